package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"farm-to-keells/internal/analytics"
	"farm-to-keells/internal/auth"
	"farm-to-keells/internal/farmer"
	"farm-to-keells/internal/logger"
	"farm-to-keells/internal/mailer"
	"farm-to-keells/internal/metrics"
	"farm-to-keells/internal/middleware"
	"farm-to-keells/internal/notification"
	"farm-to-keells/internal/order"
	"farm-to-keells/internal/payment"
	"farm-to-keells/internal/product"
	"farm-to-keells/internal/storage"
	"farm-to-keells/internal/utils"

	"go.uber.org/zap"
)

const (
	maxBodyBytes = 1 << 20

	PartialWritesCounter = "partial_writes"
)

// Handler serves the REST API over the domain services.
type Handler struct {
	FarmerSvc       farmer.Service
	ProductSvc      product.Service
	OrderSvc        order.Service
	NotificationSvc notification.Service
	PaymentSvc      payment.Service
	Mailer          mailer.Mailer
	Analytics       analytics.Client
	Admin           auth.Admin
}

// Register mounts every API route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	farmerOnly := middleware.RequireRole(auth.RoleFarmer)
	adminOnly := middleware.RequireRole(auth.RoleAdmin)
	anyone := middleware.RequireRole(auth.RoleFarmer, auth.RoleAdmin)

	mux.HandleFunc("POST /api/farmers/register", h.RegisterFarmer)
	mux.HandleFunc("POST /api/farmers/login", h.LoginFarmer)
	mux.HandleFunc("POST /api/admin/login", h.LoginAdmin)
	mux.HandleFunc("POST /api/contact", h.Contact)

	mux.Handle("GET /api/farmers", adminOnly(http.HandlerFunc(h.BrowseFarmers)))
	mux.Handle("GET /api/farmers/{id}/products", adminOnly(http.HandlerFunc(h.FarmerProducts)))
	mux.Handle("GET /api/me", farmerOnly(http.HandlerFunc(h.GetProfile)))
	mux.Handle("PATCH /api/me", farmerOnly(http.HandlerFunc(h.UpdateProfile)))
	mux.Handle("POST /api/me/avatar", farmerOnly(http.HandlerFunc(h.UploadAvatar)))

	mux.Handle("GET /api/products", farmerOnly(http.HandlerFunc(h.ListProducts)))
	mux.Handle("POST /api/products", farmerOnly(http.HandlerFunc(h.CreateProduct)))
	mux.Handle("PUT /api/products/{id}", farmerOnly(http.HandlerFunc(h.UpdateProduct)))
	mux.Handle("DELETE /api/products/{id}", farmerOnly(http.HandlerFunc(h.DeleteProduct)))

	mux.Handle("POST /api/orders", adminOnly(http.HandlerFunc(h.PlaceOrder)))
	mux.Handle("GET /api/orders", anyone(http.HandlerFunc(h.ListOrders)))
	mux.Handle("PATCH /api/orders/{id}/status", adminOnly(http.HandlerFunc(h.UpdateOrderStatus)))

	mux.Handle("GET /api/notifications", anyone(http.HandlerFunc(h.ListNotifications)))
	mux.Handle("POST /api/notifications/read-all", anyone(http.HandlerFunc(h.MarkAllNotificationsRead)))
	mux.Handle("POST /api/notifications/{id}/read", anyone(http.HandlerFunc(h.MarkNotificationRead)))
	mux.Handle("DELETE /api/notifications/{id}", anyone(http.HandlerFunc(h.DeleteNotification)))
	mux.Handle("POST /api/notifications/{id}/accept", farmerOnly(http.HandlerFunc(h.AcceptPayment)))

	mux.Handle("POST /api/payments", adminOnly(http.HandlerFunc(h.SendPayment)))
	mux.Handle("GET /api/analytics/predictions", anyone(http.HandlerFunc(h.Predictions)))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		utils.WriteJSONError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := utils.ParseID(r.PathValue("id"))
	if err != nil || id <= 0 {
		utils.WriteJSONError(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// owner is the notification scope of the caller: the farmer's id, or nil for
// the supermarket inbox.
func owner(r *http.Request) *int64 {
	if id, ok := utils.GetFarmerIDFromContext(r.Context()); ok {
		return &id
	}
	return nil
}

func currentFarmer(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := utils.GetFarmerIDFromContext(r.Context())
	if !ok {
		utils.WriteJSONError(w, "farmer login required", http.StatusUnauthorized)
	}
	return id, ok
}

var badRequest = []error{
	farmer.ErrMissingFields, farmer.ErrPasswordMismatch, farmer.ErrWeakPassword,
	farmer.ErrInvalidEmail, farmer.ErrInvalidDistrict, farmer.ErrInvalidImage, farmer.ErrImageTooLarge,
	product.ErrEmptyName, product.ErrInvalidType, product.ErrInvalidQuantity,
	product.ErrInvalidPrice, product.ErrEmptyLocation,
	order.ErrEmptySelection, order.ErrProductNotInCatalog, order.ErrMixedFarmers, order.ErrInvalidStatus,
	notification.ErrInvalidCategory, notification.ErrNotPaymentNotification, notification.ErrNoOwner,
	payment.ErrInvalidAmount, payment.ErrInvalidEmail,
	mailer.ErrMissingFields, mailer.ErrInvalidAddress,
}

var notFound = []error{
	farmer.ErrFarmerNotFound, product.ErrProductNotFound, order.ErrOrderNotFound,
	notification.ErrNotificationNotFound,
}

var conflict = []error{
	farmer.ErrUsernameTaken, farmer.ErrEmailExists,
	order.ErrInvalidTransition, notification.ErrAlreadyAccepted, notification.ErrAlreadyExists,
}

var unauthorized = []error{
	farmer.ErrInvalidCredentials, auth.ErrInvalidAdminCredentials,
}

var badGateway = []error{
	payment.ErrDispatchFailed, mailer.ErrSendFailed, analytics.ErrUnavailable, storage.ErrRequestFailed,
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// writeError maps a service error to a status code and JSON body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		orderPartial   *order.PartialWriteError
		noticePartial  *notification.PartialWriteError
		paymentPartial *payment.NoticeError
	)
	if errors.As(err, &orderPartial) || errors.As(err, &noticePartial) || errors.As(err, &paymentPartial) {
		metrics.Default.Counter(PartialWritesCounter).Inc()
	}

	switch {
	case orderPartial != nil:
		utils.WriteJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":    err.Error(),
			"order_id": orderPartial.OrderID,
		})
	case noticePartial != nil:
		utils.WriteJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":           err.Error(),
			"notification_id": noticePartial.NotificationID,
		})
	case paymentPartial != nil:
		utils.WriteJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":     err.Error(),
			"farmer_id": paymentPartial.FarmerID,
		})
	case isAny(err, badRequest):
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
	case isAny(err, notFound):
		utils.WriteJSONError(w, err.Error(), http.StatusNotFound)
	case isAny(err, conflict):
		utils.WriteJSONError(w, err.Error(), http.StatusConflict)
	case isAny(err, unauthorized):
		utils.WriteJSONError(w, err.Error(), http.StatusUnauthorized)
	case isAny(err, badGateway):
		utils.WriteJSONError(w, err.Error(), http.StatusBadGateway)
	default:
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}
