package handler

import (
	"net/http"

	"farm-to-keells/internal/notification"
	"farm-to-keells/internal/utils"
)

type notificationList struct {
	Items       []notification.Notification `json:"items"`
	UnreadCount int                         `json:"unread_count"`
}

func category(w http.ResponseWriter, r *http.Request) (notification.Category, bool) {
	c, err := notification.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return c, true
}

// ListNotifications returns the caller's inbox, newest first, with the unread
// badge count for the requested category.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	c, ok := category(w, r)
	if !ok {
		return
	}

	items, err := h.NotificationSvc.List(r.Context(), owner(r), c)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, notificationList{
		Items:       items,
		UnreadCount: notification.UnreadCount(items, c),
	})
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.NotificationSvc.MarkRead(r.Context(), id, owner(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	c, ok := category(w, r)
	if !ok {
		return
	}

	n, err := h.NotificationSvc.MarkAllRead(r.Context(), owner(r), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.NotificationSvc.Remove(r.Context(), id, owner(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AcceptPayment(w http.ResponseWriter, r *http.Request) {
	farmerID, ok := currentFarmer(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	acc, err := h.NotificationSvc.AcceptPayment(r.Context(), id, farmerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, acc)
}
