package handler

import (
	"net/http"

	"codeapt/internal/api/middleware"
	"codeapt/internal/app/service"
	"codeapt/internal/common"

	"github.com/go-chi/chi/v5"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
}

func NewPaymentHandler(ps *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: ps}
}

func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	// The gateway redirects the payer here with GET or POST.
	r.Get("/payment/callback", h.callback)
	r.Post("/payment/callback", h.callback)

	r.With(middleware.Authenticator).Post("/checkout/{slug}", h.checkout)
}

func (h *PaymentHandler) checkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	res, err := h.paymentService.Checkout(r.Context(), uid, chi.URLParam(r, "slug"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, res)
}

func (h *PaymentHandler) callback(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("merchant_order_id")
	if orderID == "" {
		orderID = r.PostFormValue("merchant_order_id")
	}
	if orderID == "" {
		common.RespondWithError(w, http.StatusBadRequest, "merchant_order_id is required")
		return
	}

	res, err := h.paymentService.HandleCallback(r.Context(), orderID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, res)
}
