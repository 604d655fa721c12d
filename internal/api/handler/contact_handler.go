package handler

import (
	"net/http"

	"codeapt/internal/app/service"
	"codeapt/internal/common"

	"github.com/go-chi/chi/v5"
)

type ContactHandler struct {
	contactService *service.ContactService
}

func NewContactHandler(cs *service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: cs}
}

func (h *ContactHandler) RegisterRoutes(r chi.Router) {
	r.Post("/contact", h.submit)
}

func (h *ContactHandler) submit(w http.ResponseWriter, r *http.Request) {
	var req service.ContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	common.RespondWithJSON(w, http.StatusOK, h.contactService.Submit(r.Context(), req))
}
