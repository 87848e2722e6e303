package handler

import (
	"net/http"

	"farm-to-keells/internal/analytics"
	"farm-to-keells/internal/mailer"
	"farm-to-keells/internal/utils"

	"github.com/shopspring/decimal"
)

type paymentRequest struct {
	Email  string          `json:"email"`
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) SendPayment(w http.ResponseWriter, r *http.Request) {
	var in paymentRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	n, err := h.PaymentSvc.SendPayment(r.Context(), in.Email, in.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, n)
}

func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	var in mailer.Inquiry
	if !decodeJSON(w, r, &in) {
		return
	}

	if err := h.Mailer.SendInquiry(r.Context(), in); err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (h *Handler) Predictions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.Analytics.Predictions(r.Context(), analytics.Filter{
		Location: q.Get("location"),
		Month:    q.Get("month"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, report)
}
