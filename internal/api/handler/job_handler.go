package handler

import (
	"net/http"

	"codeapt/internal/api/middleware"
	"codeapt/internal/app/service"
	"codeapt/internal/common"

	"github.com/go-chi/chi/v5"
)

type JobHandler struct {
	jobService *service.JobService
}

func NewJobHandler(js *service.JobService) *JobHandler {
	return &JobHandler{jobService: js}
}

func (h *JobHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{slug}", h.get)

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.Authenticator)
		admin.Use(middleware.AdminOnly)
		admin.Post("/", h.create)
		admin.Patch("/{slug}", h.setActive)
	})
}

func (h *JobHandler) list(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobService.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, jobs)
}

func (h *JobHandler) get(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobService.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, job)
}

func (h *JobHandler) create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateJobRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	job, err := h.jobService.Create(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, job)
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func (h *JobHandler) setActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	slug := chi.URLParam(r, "slug")
	if err := h.jobService.SetActive(r.Context(), slug, *req.IsActive); err != nil {
		respondError(w, r, err)
		return
	}
	job, err := h.jobService.Get(r.Context(), slug)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, job)
}
