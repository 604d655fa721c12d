package handler

import (
	"net/http"
	"strconv"

	"codeapt/internal/api/middleware"
	"codeapt/internal/app/service"
	"codeapt/internal/common"

	"github.com/go-chi/chi/v5"
)

const maxImportBytes = 10 << 20

type ChallengeHandler struct {
	challengeService   *service.ChallengeService
	leaderboardService *service.LeaderboardService
	arenaService       *service.ArenaService
}

func NewChallengeHandler(cs *service.ChallengeService, ls *service.LeaderboardService, as *service.ArenaService) *ChallengeHandler {
	return &ChallengeHandler{challengeService: cs, leaderboardService: ls, arenaService: as}
}

func (h *ChallengeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/leaderboard", h.leaderboard)

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator)
		authed.Get("/challenges/today", h.today)
		authed.Post("/challenges/{questionID}/mcq", h.submitMCQ)
		authed.Post("/challenges/{questionID}/code", h.submitCode)
		authed.Post("/arena/run", h.runCode)

		authed.Group(func(admin chi.Router) {
			admin.Use(middleware.AdminOnly)
			admin.Post("/challenges", h.createQuestion)
			admin.Post("/challenges/import", h.importSchedule)
		})
	})
}

func (h *ChallengeHandler) today(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	view, err := h.challengeService.Today(r.Context(), uid)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, view)
}

func (h *ChallengeHandler) submitMCQ(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req service.SubmitMCQRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.challengeService.SubmitMCQ(r.Context(), uid, chi.URLParam(r, "questionID"), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, res)
}

func (h *ChallengeHandler) submitCode(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req service.SubmitCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.challengeService.SubmitCode(r.Context(), uid, chi.URLParam(r, "questionID"), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, res)
}

func (h *ChallengeHandler) createQuestion(w http.ResponseWriter, r *http.Request) {
	var req service.CreateChallengeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	q, err := h.challengeService.CreateQuestion(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, q)
}

// importSchedule expects a multipart form with the CSV in field "file".
func (h *ChallengeHandler) importSchedule(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "A CSV file is required in form field \"file\": "+err.Error())
		return
	}
	defer file.Close()

	summary, err := h.challengeService.ImportSchedule(r.Context(), file)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, summary)
}

func (h *ChallengeHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.leaderboardService.TopN(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}

func (h *ChallengeHandler) runCode(w http.ResponseWriter, r *http.Request) {
	var req service.RunCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.arenaService.Run(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, res)
}
