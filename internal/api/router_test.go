package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"codeapt/internal/app/service"
	"codeapt/internal/common"
	"codeapt/internal/common/security"
	"codeapt/internal/domain/model"
	"codeapt/internal/domain/repository"
	"codeapt/internal/platform/config"
	"codeapt/internal/platform/executor"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler http.Handler
	mock    sqlmock.Sqlmock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	config.AppConfig = &config.Config{JWTKey: []byte("router-test"), JWTExp: time.Hour}
	security.InitJWT()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	sandbox := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"run":{"stdout":"hi\n","stderr":"","output":"hi\n"}}`))
	}))
	t.Cleanup(sandbox.Close)

	ledgerRepo := repository.NewPgLedgerRepository(db)
	userRepo := repository.NewPgUserRepository(db)
	catalogRepo := repository.NewPgCatalogRepository(db)
	profileSvc := service.NewProfileService(userRepo, repository.NewPgProfileRepository(db))
	runner := executor.NewClient(sandbox.URL, 5*time.Second)
	leaderboard := service.NewLeaderboardService(ledgerRepo, rdb, "lb", time.Minute)
	ledger := service.NewLedgerService(db, ledgerRepo, common.FixedClock{At: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}, time.UTC, leaderboard)

	return &testServer{
		handler: NewRouter(Services{
			Auth:        service.NewAuthService(userRepo, profileSvc),
			Profile:     profileSvc,
			Challenge: service.NewChallengeService(db, repository.NewPgChallengeRepository(db), ledgerRepo, ledger,
				service.NewJudgeService(runner, 1)),
			Leaderboard: leaderboard,
			Arena:       service.NewArenaService(runner),
			Catalog:     service.NewCatalogService(catalogRepo, repository.NewPgEnrollmentRepository(db), repository.NewPgProgressRepository(db)),
			Job:         service.NewJobService(repository.NewPgJobRepository(db)),
			Contact:     service.NewContactService(),
		}),
		mock: mock,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := security.GenerateToken(security.Claims{UserID: "u-" + role, Role: role})
	require.NoError(t, err)
	return tok
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "codeapt_http_requests_total")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/challenges/today"},
		{http.MethodPost, "/api/v1/challenges/q1/mcq"},
		{http.MethodPost, "/api/v1/arena/run"},
		{http.MethodGet, "/api/v1/dashboard"},
		{http.MethodPost, "/api/v1/checkout/go"},
		{http.MethodGet, "/api/v1/profile"},
	} {
		rec := s.do(t, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestAdminRoutesRejectUsers(t *testing.T) {
	s := newTestServer(t)
	user := token(t, model.RoleUser)

	for _, path := range []string{"/api/v1/challenges", "/api/v1/courses", "/api/v1/programs", "/api/v1/jobs/"} {
		rec := s.do(t, http.MethodPost, path, user, map[string]string{})
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}

func TestValidationErrorsAreBadRequest(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/signup", "", map[string]string{"username": " ", "email": "x", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "username cannot be blank")

	rec = s.do(t, http.MethodPost, "/api/v1/arena/run", token(t, model.RoleUser), map[string]string{"code": "print(1)", "language": "rust"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported language")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestArenaRun(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/arena/run", token(t, model.RoleUser), map[string]string{"code": "print('hi')", "language": "python"})
	require.Equal(t, http.StatusOK, rec.Code)
	var body service.RunCodeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "hi\n", body.Output)
}

func TestContact(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/contact", "", service.ContactRequest{
		Name: "Ada", Email: "ada@example.com", Subject: "Hi", Message: "Hello there",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Thanks for reaching out, Ada")
}

func TestLeaderboardServedFromStoreThenCache(t *testing.T) {
	s := newTestServer(t)
	s.mock.ExpectQuery(regexp.QuoteMeta(`FROM user_streaks s`)).
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "username", "total_score", "current_streak", "max_streak"}).
			AddRow("u1", "ada", 12, 3, 3).
			AddRow("u2", "bob", 5, 1, 2))

	rec := s.do(t, http.MethodGet, "/api/v1/leaderboard?limit=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []model.LeaderboardEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "ada", entries[0].Username)
	assert.Equal(t, 1, entries[0].Rank)

	// Second call is answered from Redis without touching the store.
	rec = s.do(t, http.MethodGet, "/api/v1/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)
	assert.NoError(t, s.mock.ExpectationsWereMet())
}

func TestUnknownJobIsNotFound(t *testing.T) {
	s := newTestServer(t)
	s.mock.ExpectQuery(regexp.QuoteMeta(`FROM job_postings WHERE slug = $1`)).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec := s.do(t, http.MethodGet, "/api/v1/jobs/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMalformedIDsAreNotFound(t *testing.T) {
	s := newTestServer(t)
	user := token(t, model.RoleUser)

	for _, tc := range []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodPost, "/api/v1/challenges/not-a-uuid/mcq", map[string]string{"option": "A"}},
		{http.MethodPost, "/api/v1/challenges/not-a-uuid/code", map[string]string{"code": "print(1)", "language": "python"}},
		{http.MethodGet, "/api/v1/topics/not-a-uuid", nil},
		{http.MethodPost, "/api/v1/topics/not-a-uuid/toggle", nil},
	} {
		rec := s.do(t, tc.method, tc.path, user, tc.body)
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
	}
	assert.NoError(t, s.mock.ExpectationsWereMet(), "no query may reach the store")
}
