package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"codeapt/internal/common"
	"codeapt/internal/domain/model"
	"codeapt/internal/platform/executor"
	"codeapt/internal/platform/payment"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sql expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

type fakeLedgerRepo struct {
	mu      sync.Mutex
	entries map[string]*model.LedgerEntry
	streaks map[string]*model.UserStreakRecord
	users   map[string]string
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{
		entries: map[string]*model.LedgerEntry{},
		streaks: map[string]*model.UserStreakRecord{},
		users:   map[string]string{},
	}
}

func (r *fakeLedgerRepo) CreateEntry(_ context.Context, _ *sql.Tx, e *model.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := e.UserID + "|" + e.QuestionID
	if _, ok := r.entries[key]; ok {
		return common.ErrConflict
	}
	cp := *e
	r.entries[key] = &cp
	return nil
}

func (r *fakeLedgerRepo) FindEntry(_ context.Context, userID, questionID string) (*model.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[userID+"|"+questionID]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeLedgerRepo) LockStreak(_ context.Context, _ *sql.Tx, userID string) (*model.UserStreakRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.streaks[userID]
	if !ok {
		rec = &model.UserStreakRecord{ID: int64(len(r.streaks) + 1), UserID: userID}
		r.streaks[userID] = rec
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeLedgerRepo) UpdateStreak(_ context.Context, _ *sql.Tx, rec *model.UserStreakRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.streaks[rec.UserID] = &cp
	return nil
}

func (r *fakeLedgerRepo) FindStreak(_ context.Context, userID string) (*model.UserStreakRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.streaks[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeLedgerRepo) TopStreaks(_ context.Context, limit int) ([]model.LeaderboardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.LeaderboardEntry{}
	for _, rec := range r.streaks {
		out = append(out, model.LeaderboardEntry{
			UserID:        rec.UserID,
			Username:      r.users[rec.UserID],
			TotalScore:    rec.TotalScore,
			CurrentStreak: rec.CurrentStreak,
			MaxStreak:     rec.MaxStreak,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeChallengeRepo struct {
	questions map[string]*model.ChallengeQuestion
	cases     map[string][]model.TestCase
	created   []*model.ChallengeQuestion
	latest    *time.Time
}

func newFakeChallengeRepo(qs ...*model.ChallengeQuestion) *fakeChallengeRepo {
	r := &fakeChallengeRepo{questions: map[string]*model.ChallengeQuestion{}, cases: map[string][]model.TestCase{}}
	for _, q := range qs {
		r.questions[q.ID] = q
		r.cases[q.ID] = q.TestCases
	}
	return r
}

func (r *fakeChallengeRepo) CreateQuestion(_ context.Context, _ *sql.Tx, q *model.ChallengeQuestion) error {
	for _, existing := range r.questions {
		if existing.ReleaseDate.Equal(q.ReleaseDate) {
			return common.ErrConflict
		}
	}
	r.questions[q.ID] = q
	r.created = append(r.created, q)
	return nil
}

func (r *fakeChallengeRepo) AddTestCases(_ context.Context, _ *sql.Tx, questionID string, cases []model.TestCase) error {
	r.cases[questionID] = append(r.cases[questionID], cases...)
	return nil
}

func (r *fakeChallengeRepo) FindQuestionByID(_ context.Context, id string) (*model.ChallengeQuestion, error) {
	q, ok := r.questions[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return q, nil
}

func (r *fakeChallengeRepo) FindQuestionByDate(_ context.Context, date time.Time) (*model.ChallengeQuestion, error) {
	for _, q := range r.questions {
		if q.ReleaseDate.Equal(date) {
			return q, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeChallengeRepo) GetTestCases(_ context.Context, questionID string) ([]model.TestCase, error) {
	return r.cases[questionID], nil
}

func (r *fakeChallengeRepo) LatestReleaseDate(context.Context, *sql.Tx) (*time.Time, error) {
	return r.latest, nil
}

// fakeRunner answers each run from outputs keyed by stdin.
type fakeRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	fail    map[string]bool
	calls   int
}

func (f *fakeRunner) Run(_ context.Context, req executor.RunRequest) (*executor.RunResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail[req.Stdin] {
		return nil, errors.New("sandbox unreachable")
	}
	out := f.outputs[req.Stdin]
	return &executor.RunResult{Stdout: out}, nil
}

type fakeInvalidator struct{ calls int }

func (f *fakeInvalidator) Invalidate(context.Context) { f.calls++ }

type fakeCatalogRepo struct {
	subjects map[string]*model.Subject
	topics   map[string][]model.Topic
	programs []*model.Program
}

func newFakeCatalogRepo(subjects ...*model.Subject) *fakeCatalogRepo {
	r := &fakeCatalogRepo{subjects: map[string]*model.Subject{}, topics: map[string][]model.Topic{}}
	for _, s := range subjects {
		r.subjects[s.Slug] = s
	}
	return r
}

func (r *fakeCatalogRepo) CreateProgram(_ context.Context, p *model.Program) error {
	r.programs = append(r.programs, p)
	return nil
}

func (r *fakeCatalogRepo) CreateSubject(_ context.Context, s *model.Subject) error {
	if _, ok := r.subjects[s.Slug]; ok {
		return common.ErrConflict
	}
	r.subjects[s.Slug] = s
	return nil
}

func (r *fakeCatalogRepo) CreateTopic(_ context.Context, t *model.Topic) error {
	r.topics[t.SubjectID] = append(r.topics[t.SubjectID], *t)
	return nil
}

func (r *fakeCatalogRepo) ListSubjects(context.Context) ([]model.Subject, error) {
	out := []model.Subject{}
	for _, s := range r.subjects {
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeCatalogRepo) FindSubjectBySlug(_ context.Context, slug string) (*model.Subject, error) {
	s, ok := r.subjects[slug]
	if !ok {
		return nil, common.ErrNotFound
	}
	return s, nil
}

func (r *fakeCatalogRepo) FindSubjectByID(_ context.Context, id string) (*model.Subject, error) {
	for _, s := range r.subjects {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeCatalogRepo) ListTopics(_ context.Context, subjectID string) ([]model.Topic, error) {
	return r.topics[subjectID], nil
}

func (r *fakeCatalogRepo) FindTopicByID(_ context.Context, id string) (*model.Topic, error) {
	for _, ts := range r.topics {
		for _, t := range ts {
			if t.ID == id {
				return &t, nil
			}
		}
	}
	return nil, common.ErrNotFound
}

type fakeEnrollmentRepo struct {
	mu       sync.Mutex
	enrolled map[string]bool
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{enrolled: map[string]bool{}}
}

func (r *fakeEnrollmentRepo) Enroll(_ context.Context, _ *sql.Tx, e *model.Enrollment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := e.UserID + "|" + e.SubjectID
	if r.enrolled[key] {
		return false, nil
	}
	r.enrolled[key] = true
	return true, nil
}

func (r *fakeEnrollmentRepo) IsEnrolled(_ context.Context, userID, subjectID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enrolled[userID+"|"+subjectID], nil
}

func (r *fakeEnrollmentRepo) ListEnrolledSubjects(context.Context, string) ([]model.Subject, error) {
	return []model.Subject{}, nil
}

type fakeProgressRepo struct {
	done map[string]bool
}

func (r *fakeProgressRepo) Toggle(_ context.Context, userID, topicID string) (bool, error) {
	key := userID + "|" + topicID
	r.done[key] = !r.done[key]
	return r.done[key], nil
}

func (r *fakeProgressRepo) CompletedTopicIDs(_ context.Context, userID, _ string) ([]string, error) {
	ids := []string{}
	for key, ok := range r.done {
		if ok && len(key) > len(userID) && key[:len(userID)+1] == userID+"|" {
			ids = append(ids, key[len(userID)+1:])
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*model.PaymentOrder
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]*model.PaymentOrder{}}
}

func (r *fakeOrderRepo) Create(_ context.Context, o *model.PaymentOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.MerchantOrderID] = &cp
	return nil
}

func (r *fakeOrderRepo) FindByMerchantOrderID(_ context.Context, _ *sql.Tx, id string) (*model.PaymentOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, _ *sql.Tx, id string, status model.OrderStatus, txnID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			o.Status = status
			if txnID != "" {
				o.ProviderTxnID = txnID
			}
			return nil
		}
	}
	return common.ErrNotFound
}

func (r *fakeOrderRepo) IncrementAttempts(_ context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			o.Attempts++
			return o.Attempts, nil
		}
	}
	return 0, common.ErrNotFound
}

func (r *fakeOrderRepo) only() *model.PaymentOrder {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		cp := *o
		return &cp
	}
	return nil
}

type fakeGateway struct {
	payErr    error
	payResp   *payment.PayResponse
	status    *payment.StatusResponse
	statusErr error
	paid      []payment.PayParams
	polls     int
}

func (g *fakeGateway) Pay(_ context.Context, p payment.PayParams) (*payment.PayResponse, error) {
	g.paid = append(g.paid, p)
	if g.payErr != nil {
		return nil, g.payErr
	}
	return g.payResp, nil
}

func (g *fakeGateway) OrderStatus(context.Context, string) (*payment.StatusResponse, error) {
	g.polls++
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	return g.status, nil
}
