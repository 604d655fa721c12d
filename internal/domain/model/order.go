package model

import "time"

type OrderStatus string

const (
	OrderPending OrderStatus = "PENDING"
	OrderSuccess OrderStatus = "SUCCESS"
	OrderFailed  OrderStatus = "FAILED"
)

type PaymentOrder struct {
	ID              string      `json:"id"`
	MerchantOrderID string      `json:"merchant_order_id"`
	UserID          string      `json:"user_id"`
	SubjectID       string      `json:"subject_id"`
	AmountMinor     int64       `json:"amount_minor"`
	Status          OrderStatus `json:"status"`
	ProviderTxnID   string      `json:"provider_txn_id,omitempty"`
	Attempts        int         `json:"attempts"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func (o *PaymentOrder) IsFinal() bool {
	return o.Status == OrderSuccess || o.Status == OrderFailed
}
