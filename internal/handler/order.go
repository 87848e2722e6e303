package handler

import (
	"net/http"

	"farm-to-keells/internal/order"
	"farm-to-keells/internal/utils"
)

type placeOrderRequest struct {
	FarmerID   int64   `json:"farmer_id"`
	ProductIDs []int64 `json:"product_ids"`
}

type statusRequest struct {
	Status order.Status `json:"status"`
}

// PlaceOrder orders whole listings from one farmer. The selection is built
// from that farmer's current catalog, so ids from another farmer are rejected.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var in placeOrderRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.FarmerID <= 0 {
		utils.WriteJSONError(w, "farmer_id is required", http.StatusBadRequest)
		return
	}
	if len(in.ProductIDs) == 0 {
		writeError(w, r, order.ErrEmptySelection)
		return
	}

	catalog, err := h.ProductSvc.ListByFarmer(r.Context(), in.FarmerID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sel, err := order.NewSelection(in.FarmerID, catalog)
	if err != nil {
		writeError(w, r, err)
		return
	}
	for _, id := range in.ProductIDs {
		if err := sel.Select(id); err != nil {
			writeError(w, r, err)
			return
		}
	}

	o, err := h.OrderSvc.PlaceOrder(r.Context(), sel)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, o)
}

// ListOrders returns the caller's orders. Admins see every farmer's orders,
// optionally narrowed with ?farmer_id=.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	scope := owner(r)
	if scope == nil {
		if raw := r.URL.Query().Get("farmer_id"); raw != "" {
			id, err := utils.ParseID(raw)
			if err != nil {
				utils.WriteJSONError(w, "invalid farmer_id", http.StatusBadRequest)
				return
			}
			scope = &id
		}
	}

	list, err := h.OrderSvc.List(r.Context(), scope)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in statusRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	o, err := h.OrderSvc.UpdateStatus(r.Context(), id, in.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}
