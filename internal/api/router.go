package api

import (
	"net/http"
	"time"

	"codeapt/internal/api/handler"
	"codeapt/internal/app/service"
	"codeapt/internal/common/security"
	"codeapt/internal/platform/logger"
	"codeapt/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services groups everything the HTTP layer calls into.
type Services struct {
	Auth        *service.AuthService
	Profile     *service.ProfileService
	Challenge   *service.ChallengeService
	Leaderboard *service.LeaderboardService
	Arena       *service.ArenaService
	Catalog     *service.CatalogService
	Quiz        *service.QuizService
	Job         *service.JobService
	Payment     *service.PaymentService
	Contact     *service.ContactService
}

func NewRouter(s Services) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(logger.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.Instrument)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifies a bearer token if present; Authenticator decides per route
	// whether one is required.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(v1 chi.Router) {
		handler.NewAuthHandler(s.Auth, s.Profile).RegisterRoutes(v1)
		handler.NewChallengeHandler(s.Challenge, s.Leaderboard, s.Arena).RegisterRoutes(v1)
		handler.NewCatalogHandler(s.Catalog, s.Quiz).RegisterRoutes(v1)
		handler.NewPaymentHandler(s.Payment).RegisterRoutes(v1)
		handler.NewContactHandler(s.Contact).RegisterRoutes(v1)
		v1.Route("/jobs", handler.NewJobHandler(s.Job).RegisterRoutes)
	})

	return r
}
