package payments

import (
	"fmt"
	"time"

	"github.com/Dosada05/competition-ledger/payments/stub"
)

func NewProvider(name string, delay time.Duration) (PaymentProvider, error) {
	switch name {
	case "", "stub":
		return stubAdapter{stub.New(delay)}, nil
	default:
		return nil, fmt.Errorf("unknown payment provider: %s", name)
	}
}
