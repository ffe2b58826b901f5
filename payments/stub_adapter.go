package payments

import (
	"context"
	"errors"

	"github.com/Dosada05/competition-ledger/payments/stub"
)

type stubAdapter struct {
	p *stub.Provider
}

func (a stubAdapter) Name() string { return a.p.Name() }

func (a stubAdapter) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	txID, processedAt, err := a.p.Charge(ctx, req.Amount, req.Card.Last4)
	if err != nil {
		switch {
		case errors.Is(err, stub.ErrDeclined):
			return nil, ErrCardDeclined
		case errors.Is(err, stub.ErrInvalidAmount):
			return nil, ErrInvalidAmount
		}
		return nil, err
	}
	return &ChargeResult{TransactionID: txID, ProcessedAt: processedAt}, nil
}

func (a stubAdapter) Refund(ctx context.Context, transactionID string, amount int64) error {
	err := a.p.Refund(ctx, transactionID, amount)
	if errors.Is(err, stub.ErrInvalidAmount) {
		return ErrInvalidAmount
	}
	return err
}
