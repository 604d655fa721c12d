package handler

import (
	"net/http"

	"codeapt/internal/api/middleware"
	"codeapt/internal/app/service"
	"codeapt/internal/common"

	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
	quizService    *service.QuizService
}

func NewCatalogHandler(cs *service.CatalogService, qs *service.QuizService) *CatalogHandler {
	return &CatalogHandler{catalogService: cs, quizService: qs}
}

func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/courses", h.listSubjects)
	r.With(middleware.OptionalAuth).Get("/courses/{slug}", h.getSubject)
	r.Get("/topics/{topicID}", h.getTopic)
	r.Get("/quiz/{slug}", h.getQuiz)
	r.Post("/quiz/{slug}", h.submitQuiz)

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator)
		authed.Post("/courses/{slug}/enroll", h.enroll)
		authed.Get("/dashboard", h.dashboard)
		authed.Post("/topics/{topicID}/toggle", h.toggleTopic)

		authed.Group(func(admin chi.Router) {
			admin.Use(middleware.AdminOnly)
			admin.Post("/programs", h.createProgram)
			admin.Post("/courses", h.createSubject)
			admin.Post("/courses/{slug}/topics", h.createTopic)
			admin.Post("/quiz/{slug}/questions", h.createQuizQuestion)
		})
	})
}

func (h *CatalogHandler) listSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.catalogService.ListSubjects(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, subjects)
}

func (h *CatalogHandler) getSubject(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.GetUserIDFromContext(r.Context()) // empty for anonymous callers
	detail, err := h.catalogService.GetSubject(r.Context(), chi.URLParam(r, "slug"), uid)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, detail)
}

func (h *CatalogHandler) getTopic(w http.ResponseWriter, r *http.Request) {
	topic, err := h.catalogService.GetTopic(r.Context(), chi.URLParam(r, "topicID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, topic)
}

func (h *CatalogHandler) enroll(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	res, err := h.catalogService.Enroll(r.Context(), uid, chi.URLParam(r, "slug"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, res)
}

func (h *CatalogHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	subjects, err := h.catalogService.Dashboard(r.Context(), uid)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, subjects)
}

func (h *CatalogHandler) toggleTopic(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	res, err := h.catalogService.ToggleTopic(r.Context(), uid, chi.URLParam(r, "topicID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, res)
}

func (h *CatalogHandler) getQuiz(w http.ResponseWriter, r *http.Request) {
	questions, err := h.quizService.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, questions)
}

func (h *CatalogHandler) submitQuiz(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitQuizRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.quizService.Submit(r.Context(), chi.URLParam(r, "slug"), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, res)
}

func (h *CatalogHandler) createProgram(w http.ResponseWriter, r *http.Request) {
	var req service.CreateProgramRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.catalogService.CreateProgram(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) createSubject(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSubjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.catalogService.CreateSubject(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, s)
}

func (h *CatalogHandler) createTopic(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTopicRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.catalogService.CreateTopic(r.Context(), chi.URLParam(r, "slug"), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, t)
}

func (h *CatalogHandler) createQuizQuestion(w http.ResponseWriter, r *http.Request) {
	var req service.CreateQuizQuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	q, err := h.quizService.CreateQuestion(r.Context(), chi.URLParam(r, "slug"), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, q)
}
