package stub

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Stub provider:
// - Charge: ждёт заданную задержку (или отмену контекста) и выдаёт transaction id
// - карта с last4 "0000" всегда отклоняется
const DeclinedLast4 = "0000"

var (
	ErrDeclined      = errors.New("stub: card declined")
	ErrInvalidAmount = errors.New("stub: amount must be positive")
)

type Provider struct {
	delay time.Duration
	now   func() time.Time
}

func New(delay time.Duration) *Provider {
	return &Provider{delay: delay, now: time.Now}
}

func (p *Provider) Name() string { return "stub" }

func (p *Provider) Charge(ctx context.Context, amount int64, last4 string) (transactionID string, processedAt time.Time, err error) {
	if amount <= 0 {
		return "", time.Time{}, ErrInvalidAmount
	}
	if err := p.wait(ctx); err != nil {
		return "", time.Time{}, err
	}
	if last4 == DeclinedLast4 {
		return "", time.Time{}, ErrDeclined
	}
	return "stub_" + uuid.NewString(), p.now().UTC(), nil
}

func (p *Provider) Refund(ctx context.Context, transactionID string, amount int64) error {
	if transactionID == "" {
		return errors.New("stub: missing transaction id")
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return ctx.Err()
}

func (p *Provider) wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
