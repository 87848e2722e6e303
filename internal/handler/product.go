package handler

import (
	"net/http"

	"farm-to-keells/internal/product"
	"farm-to-keells/internal/utils"
)

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	farmerID, ok := currentFarmer(w, r)
	if !ok {
		return
	}

	list, err := h.ProductSvc.ListByFarmer(r.Context(), farmerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

// FarmerProducts is the supermarket's view of one farmer's catalog.
func (h *Handler) FarmerProducts(w http.ResponseWriter, r *http.Request) {
	farmerID, ok := pathID(w, r)
	if !ok {
		return
	}

	list, err := h.ProductSvc.ListByFarmer(r.Context(), farmerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	farmerID, ok := currentFarmer(w, r)
	if !ok {
		return
	}

	var in product.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	p, err := h.ProductSvc.Create(r.Context(), farmerID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	farmerID, ok := currentFarmer(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in product.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	p, err := h.ProductSvc.Update(r.Context(), id, farmerID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	farmerID, ok := currentFarmer(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.ProductSvc.Delete(r.Context(), id, farmerID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
