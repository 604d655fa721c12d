package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"codeapt/internal/common"
	"codeapt/internal/domain/model"
	"codeapt/internal/domain/repository"
	"codeapt/internal/platform/logger"
	"codeapt/internal/platform/metrics"
	"codeapt/internal/platform/payment"
	"codeapt/internal/platform/queue"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// PaymentGateway is the subset of the payment client the service depends on.
type PaymentGateway interface {
	Pay(ctx context.Context, p payment.PayParams) (*payment.PayResponse, error)
	OrderStatus(ctx context.Context, merchantOrderID string) (*payment.StatusResponse, error)
}

type PaymentConfig struct {
	CallbackURL string
	QueueName   string
	LockTTL     time.Duration
}

type PaymentService struct {
	db             *sql.DB
	orderRepo      repository.OrderRepository
	catalogRepo    repository.CatalogRepository
	enrollmentRepo repository.EnrollmentRepository
	gateway        PaymentGateway
	rdb            redis.UniversalClient
	cfg            PaymentConfig
}

func NewPaymentService(
	db *sql.DB,
	orderRepo repository.OrderRepository,
	catalogRepo repository.CatalogRepository,
	enrollmentRepo repository.EnrollmentRepository,
	gateway PaymentGateway,
	rdb redis.UniversalClient,
	cfg PaymentConfig,
) *PaymentService {
	return &PaymentService{
		db:             db,
		orderRepo:      orderRepo,
		catalogRepo:    catalogRepo,
		enrollmentRepo: enrollmentRepo,
		gateway:        gateway,
		rdb:            rdb,
		cfg:            cfg,
	}
}

type CheckoutResponse struct {
	MerchantOrderID string `json:"merchant_order_id,omitempty"`
	RedirectURL     string `json:"redirect_url,omitempty"`
	AmountMinor     int64  `json:"amount_minor,omitempty"`
	AlreadyEnrolled bool   `json:"already_enrolled"`
}

// Checkout opens a PENDING order for a paid subject and returns the gateway
// redirect URL.
func (s *PaymentService) Checkout(ctx context.Context, userID, subjectSlug string) (*CheckoutResponse, error) {
	subject, err := s.catalogRepo.FindSubjectBySlug(ctx, subjectSlug)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.enrollmentRepo.IsEnrolled(ctx, userID, subject.ID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		return &CheckoutResponse{AlreadyEnrolled: true}, nil
	}
	if subject.IsFree() {
		return nil, fmt.Errorf("subject %s is free, enroll directly: %w", subject.Slug, common.ErrBadRequest)
	}

	order := &model.PaymentOrder{
		ID:              uuid.NewString(),
		MerchantOrderID: "ORD-" + uuid.NewString(),
		UserID:          userID,
		SubjectID:       subject.ID,
		AmountMinor:     subject.AmountMinor(),
		Status:          model.OrderPending,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}
	log := logger.Log.WithFields(logrus.Fields{"merchant_order_id": order.MerchantOrderID, "user_id": userID, "subject": subject.Slug})

	resp, err := s.gateway.Pay(ctx, payment.PayParams{
		MerchantOrderID: order.MerchantOrderID,
		AmountMinor:     order.AmountMinor,
		RedirectURL:     s.callbackURL(order.MerchantOrderID),
	})
	if err == nil && !resp.Success() {
		err = fmt.Errorf("gateway returned state %q without a redirect url", resp.State)
	}
	if err != nil {
		log.WithError(err).Error("Failed to initiate payment")
		if uerr := s.orderRepo.UpdateStatus(ctx, nil, order.ID, model.OrderFailed, ""); uerr != nil {
			log.WithError(uerr).Error("Failed to mark order as failed")
		}
		metrics.PaymentOrders.WithLabelValues(string(model.OrderFailed)).Inc()
		return nil, fmt.Errorf("could not initiate payment: %w", common.ErrServiceUnavailable)
	}
	metrics.PaymentOrders.WithLabelValues(string(model.OrderPending)).Inc()

	if err := s.rdb.LPush(ctx, s.cfg.QueueName, order.MerchantOrderID).Err(); err != nil {
		// The callback still reconciles the order.
		log.WithError(err).Warn("Failed to enqueue order for reconciliation")
	}
	log.Info("Payment initiated")

	return &CheckoutResponse{
		MerchantOrderID: order.MerchantOrderID,
		RedirectURL:     resp.RedirectURL,
		AmountMinor:     order.AmountMinor,
	}, nil
}

func (s *PaymentService) callbackURL(merchantOrderID string) string {
	u, err := url.Parse(s.cfg.CallbackURL)
	if err != nil {
		return s.cfg.CallbackURL + "?merchant_order_id=" + url.QueryEscape(merchantOrderID)
	}
	q := u.Query()
	q.Set("merchant_order_id", merchantOrderID)
	u.RawQuery = q.Encode()
	return u.String()
}

type CallbackResult struct {
	MerchantOrderID string            `json:"merchant_order_id"`
	Status          model.OrderStatus `json:"status"`
	Verified        bool              `json:"verified"`
	Message         string            `json:"message"`
}

// HandleCallback reconciles the order named by a gateway redirect. Gateway and
// lock failures leave the order untouched and are reported in the result.
func (s *PaymentService) HandleCallback(ctx context.Context, merchantOrderID string) (*CallbackResult, error) {
	order, err := s.orderRepo.FindByMerchantOrderID(ctx, nil, merchantOrderID)
	if err != nil {
		return nil, err
	}
	res := &CallbackResult{MerchantOrderID: order.MerchantOrderID, Status: order.Status}
	if order.Status == model.OrderSuccess {
		res.Verified = true
		res.Message = "Payment already confirmed."
		return res, nil
	}

	order, err = s.Reconcile(ctx, merchantOrderID)
	switch {
	case errors.Is(err, common.ErrLockNotAcquired):
		res.Message = "Payment verification is in progress."
		return res, nil
	case errors.Is(err, common.ErrServiceUnavailable):
		res.Message = "Could not verify payment status. Please try again shortly."
		return res, nil
	case err != nil:
		return nil, err
	}

	res.Status = order.Status
	res.Verified = true
	switch order.Status {
	case model.OrderSuccess:
		res.Message = "Payment successful. You are now enrolled."
	case model.OrderFailed:
		res.Message = "Payment failed."
	default:
		res.Verified = false
		res.Message = "Payment is still pending."
	}
	return res, nil
}

// Reconcile polls the gateway for one order under the per-order lock and
// applies the result. Final orders are returned unchanged.
func (s *PaymentService) Reconcile(ctx context.Context, merchantOrderID string) (*model.PaymentOrder, error) {
	lock, err := queue.Acquire(ctx, s.rdb, "lock:payment:"+merchantOrderID, s.cfg.LockTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if _, err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Log.WithError(err).WithField("merchant_order_id", merchantOrderID).Warn("Failed to release payment lock")
		}
	}()

	order, err := s.orderRepo.FindByMerchantOrderID(ctx, nil, merchantOrderID)
	if err != nil {
		return nil, err
	}
	if order.IsFinal() {
		return order, nil
	}

	status, err := s.gateway.OrderStatus(ctx, merchantOrderID)
	if err != nil {
		logger.Log.WithError(err).WithField("merchant_order_id", merchantOrderID).Error("Failed to fetch payment status")
		return nil, fmt.Errorf("could not verify payment: %w", common.ErrServiceUnavailable)
	}

	switch status.State {
	case payment.StateCompleted:
		return s.complete(ctx, merchantOrderID, status.TransactionID())
	case payment.StateFailed:
		return s.Fail(ctx, merchantOrderID, status.TransactionID())
	default:
		return order, nil
	}
}

// complete marks the order SUCCESS and enrolls the payer in one transaction.
func (s *PaymentService) complete(ctx context.Context, merchantOrderID, txnID string) (*model.PaymentOrder, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := s.orderRepo.FindByMerchantOrderID(ctx, tx, merchantOrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == model.OrderSuccess {
		return order, tx.Commit()
	}

	if err := s.orderRepo.UpdateStatus(ctx, tx, order.ID, model.OrderSuccess, txnID); err != nil {
		return nil, err
	}
	if _, err := s.enrollmentRepo.Enroll(ctx, tx, &model.Enrollment{
		ID:        uuid.NewString(),
		UserID:    order.UserID,
		SubjectID: order.SubjectID,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit payment: %w", err)
	}

	order.Status = model.OrderSuccess
	if txnID != "" {
		order.ProviderTxnID = txnID
	}
	metrics.PaymentOrders.WithLabelValues(string(model.OrderSuccess)).Inc()
	logger.Log.WithFields(logrus.Fields{
		"merchant_order_id": merchantOrderID,
		"user_id":           order.UserID,
		"subject_id":        order.SubjectID,
	}).Info("Payment completed, user enrolled")
	return order, nil
}

// Fail marks a non-final order FAILED. Successful orders are never downgraded.
func (s *PaymentService) Fail(ctx context.Context, merchantOrderID, txnID string) (*model.PaymentOrder, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := s.orderRepo.FindByMerchantOrderID(ctx, tx, merchantOrderID)
	if err != nil {
		return nil, err
	}
	if order.IsFinal() {
		return order, tx.Commit()
	}
	if err := s.orderRepo.UpdateStatus(ctx, tx, order.ID, model.OrderFailed, txnID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit payment failure: %w", err)
	}

	order.Status = model.OrderFailed
	metrics.PaymentOrders.WithLabelValues(string(model.OrderFailed)).Inc()
	logger.Log.WithField("merchant_order_id", merchantOrderID).Warn("Payment failed")
	return order, nil
}

// RecordAttempt counts one unresolved reconciliation pass and returns the total.
func (s *PaymentService) RecordAttempt(ctx context.Context, order *model.PaymentOrder) (int, error) {
	return s.orderRepo.IncrementAttempts(ctx, order.ID)
}
