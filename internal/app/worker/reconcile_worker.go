package worker

import (
	"context"
	"errors"
	"strconv"
	"time"

	"codeapt/internal/common"
	"codeapt/internal/domain/model"
	"codeapt/internal/platform/logger"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Reconciler resolves pending payment orders against the gateway.
type Reconciler interface {
	Reconcile(ctx context.Context, merchantOrderID string) (*model.PaymentOrder, error)
	RecordAttempt(ctx context.Context, order *model.PaymentOrder) (int, error)
	Fail(ctx context.Context, merchantOrderID, txnID string) (*model.PaymentOrder, error)
}

type Config struct {
	QueueName   string
	MaxAttempts int
	PollDelay   time.Duration
	// PopTimeout bounds each blocking pop so delayed orders are promoted regularly.
	PopTimeout time.Duration
}

// ReconcileWorker drains the reconciliation queue. Orders that are still
// pending are parked in a sorted set keyed by due time and pushed back onto
// the queue once PollDelay has passed.
type ReconcileWorker struct {
	rdb        redis.UniversalClient
	reconciler Reconciler
	cfg        Config
	now        func() time.Time
}

func NewReconcileWorker(rdb redis.UniversalClient, reconciler Reconciler, cfg Config) *ReconcileWorker {
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &ReconcileWorker{rdb: rdb, reconciler: reconciler, cfg: cfg, now: time.Now}
}

func (w *ReconcileWorker) delayedKey() string {
	return w.cfg.QueueName + ":delayed"
}

func (w *ReconcileWorker) Start(ctx context.Context) {
	logger.Log.WithField("queue", w.cfg.QueueName).Info("Reconcile worker started")
	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Reconcile worker stopping")
			return
		default:
		}

		if err := w.promoteDue(ctx); err != nil && ctx.Err() == nil {
			logger.Log.WithError(err).Error("Failed to promote delayed orders")
		}

		res, err := w.rdb.BRPop(ctx, w.cfg.PopTimeout, w.cfg.QueueName).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				continue
			}
			logger.Log.WithError(err).WithField("queue", w.cfg.QueueName).Error("Failed to BRPop from reconcile queue")
			sleep(ctx, 5*time.Second)
			continue
		}

		// res is [queueName, value]
		if len(res) < 2 || res[1] == "" {
			logger.Log.Warn("BRPop returned an empty order id")
			continue
		}
		w.process(ctx, res[1])
	}
}

func (w *ReconcileWorker) process(ctx context.Context, merchantOrderID string) {
	log := logger.Log.WithField("merchant_order_id", merchantOrderID)

	order, err := w.reconciler.Reconcile(ctx, merchantOrderID)
	switch {
	case errors.Is(err, common.ErrNotFound):
		log.Warn("Dropping unknown order")
		return
	case errors.Is(err, common.ErrLockNotAcquired):
		log.Debug("Order is being reconciled elsewhere, retrying later")
		w.schedule(ctx, merchantOrderID)
		return
	case err != nil:
		log.WithError(err).Error("Failed to reconcile order")
		w.schedule(ctx, merchantOrderID)
		return
	}

	if order.IsFinal() {
		log.WithField("status", order.Status).Info("Order reconciled")
		return
	}

	attempts, err := w.reconciler.RecordAttempt(ctx, order)
	if err != nil {
		log.WithError(err).Error("Failed to record reconcile attempt")
		w.schedule(ctx, merchantOrderID)
		return
	}
	if attempts >= w.cfg.MaxAttempts {
		if _, err := w.reconciler.Fail(ctx, merchantOrderID, ""); err != nil {
			log.WithError(err).Error("Failed to expire order")
			w.schedule(ctx, merchantOrderID)
			return
		}
		log.WithField("attempts", attempts).Warn("Order still pending after max attempts, marked FAILED")
		return
	}
	log.WithFields(logrus.Fields{"attempts": attempts, "delay": w.cfg.PollDelay}).Debug("Order still pending")
	w.schedule(ctx, merchantOrderID)
}

// schedule parks the order until PollDelay from now.
func (w *ReconcileWorker) schedule(ctx context.Context, merchantOrderID string) {
	due := w.now().Add(w.cfg.PollDelay).Unix()
	err := w.rdb.ZAdd(ctx, w.delayedKey(), redis.Z{Score: float64(due), Member: merchantOrderID}).Err()
	if err != nil {
		logger.Log.WithError(err).WithField("merchant_order_id", merchantOrderID).Error("Failed to re-queue order")
	}
}

// promoteDue moves every parked order whose due time has passed back onto the
// queue. ZRem decides ownership so concurrent workers never push one twice.
func (w *ReconcileWorker) promoteDue(ctx context.Context) error {
	until := strconv.FormatInt(w.now().Unix(), 10)
	ids, err := w.rdb.ZRangeByScore(ctx, w.delayedKey(), &redis.ZRangeBy{Min: "-inf", Max: until}).Result()
	if err != nil {
		return err
	}
	for _, id := range ids {
		removed, err := w.rdb.ZRem(ctx, w.delayedKey(), id).Result()
		if err != nil {
			return err
		}
		if removed == 0 {
			continue
		}
		if err := w.rdb.RPush(ctx, w.cfg.QueueName, id).Err(); err != nil {
			return err
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
