package payments

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCardDeclined  = errors.New("card was declined")
	ErrInvalidAmount = errors.New("payment amount must be positive")
)

// CardDetails: то, что провайдер видит о карте. Полный номер сюда не попадает.
type CardDetails struct {
	Holder string
	Brand  string
	Last4  string
}

type ChargeRequest struct {
	PaymentID   string
	Amount      int64
	Description string
	Card        CardDetails
}

type ChargeResult struct {
	TransactionID string
	ProcessedAt   time.Time
}

type PaymentProvider interface {
	Name() string

	// Charge blocks until the provider answers or ctx is done.
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)

	// Refund returns a previously charged amount.
	Refund(ctx context.Context, transactionID string, amount int64) error
}
