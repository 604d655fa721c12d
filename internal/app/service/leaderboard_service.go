package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"codeapt/internal/domain/model"
	"codeapt/internal/domain/repository"
	"codeapt/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultLeaderboardSize = 20
	MaxLeaderboardSize     = 100
)

// LeaderboardService projects ledger totals into a ranked list. The full top
// MaxLeaderboardSize is cached in Redis; smaller requests slice the cached list.
// A generation counter next to the cache key guards against stale refills.
type LeaderboardService struct {
	ledgerRepo repository.LedgerRepository
	rdb        redis.UniversalClient
	cacheKey   string
	ttl        time.Duration
}

// NewLeaderboardService caches through rdb when it is non-nil.
func NewLeaderboardService(ledgerRepo repository.LedgerRepository, rdb redis.UniversalClient, cacheKey string, ttl time.Duration) *LeaderboardService {
	return &LeaderboardService{ledgerRepo: ledgerRepo, rdb: rdb, cacheKey: cacheKey, ttl: ttl}
}

func clampLeaderboardSize(n int) int {
	if n <= 0 {
		return DefaultLeaderboardSize
	}
	if n > MaxLeaderboardSize {
		return MaxLeaderboardSize
	}
	return n
}

// storeIfCurrent writes the projection only while the generation it was read
// under is still current. KEYS: cache, generation. ARGV: generation, payload, ttl ms.
var storeIfCurrent = redis.NewScript(`
local gen = redis.call("get", KEYS[2]) or "0"
if gen ~= ARGV[1] then
    return 0
end
if tonumber(ARGV[3]) > 0 then
    redis.call("set", KEYS[1], ARGV[2], "PX", ARGV[3])
else
    redis.call("set", KEYS[1], ARGV[2])
end
return 1
`)

func (s *LeaderboardService) genKey() string {
	return s.cacheKey + ":gen"
}

func (s *LeaderboardService) TopN(ctx context.Context, n int) ([]model.LeaderboardEntry, error) {
	n = clampLeaderboardSize(n)

	entries, ok := s.cached(ctx)
	if !ok {
		// The generation is read before the store so that a write racing an
		// Invalidate is refused.
		gen, genOK := s.generation(ctx)
		rows, err := s.ledgerRepo.TopStreaks(ctx, MaxLeaderboardSize)
		if err != nil {
			return nil, err
		}
		entries = model.RankLeaderboard(rows)
		if genOK {
			s.store(ctx, gen, entries)
		}
	}

	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func (s *LeaderboardService) cached(ctx context.Context) ([]model.LeaderboardEntry, bool) {
	if s.rdb == nil {
		return nil, false
	}
	raw, err := s.rdb.Get(ctx, s.cacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.WithError(err).Warn("leaderboard cache read failed")
		}
		return nil, false
	}
	var entries []model.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		logger.Log.WithError(err).Warn("leaderboard cache entry is corrupt")
		return nil, false
	}
	return entries, true
}

func (s *LeaderboardService) generation(ctx context.Context) (string, bool) {
	if s.rdb == nil {
		return "", false
	}
	gen, err := s.rdb.Get(ctx, s.genKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "0", true
	}
	if err != nil {
		logger.Log.WithError(err).Warn("leaderboard generation read failed")
		return "", false
	}
	return gen, true
}

func (s *LeaderboardService) store(ctx context.Context, gen string, entries []model.LeaderboardEntry) {
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	stored, err := storeIfCurrent.Run(ctx, s.rdb, []string{s.cacheKey, s.genKey()}, gen, raw, s.ttl.Milliseconds()).Int()
	if err != nil {
		logger.Log.WithError(err).Warn("leaderboard cache write failed")
		return
	}
	if stored == 0 {
		logger.Log.Debug("leaderboard changed while loading, cache write skipped")
	}
}

// Invalidate drops the cached projection and bumps the generation, so loads
// that started before the change cannot repopulate the cache.
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, s.genKey())
		pipe.Del(ctx, s.cacheKey)
		return nil
	})
	if err != nil {
		logger.Log.WithError(err).Warn("leaderboard cache invalidation failed")
	}
}
