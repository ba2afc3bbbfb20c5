package service

import (
	"context"
	"log"
	"time"

	"dispatch/internal/domain"
)

// PaymentGateway charges riders for card trips. Cash and wallet trips
// never touch the gateway.
type PaymentGateway interface {
	// Charge debits the rider's card. A declined charge returns an error;
	// the caller decides whether to retry.
	Charge(ctx context.Context, riderID, tripID string, amount domain.Money) error
}

// MockGateway approves every charge. It stands in for the external
// payment processor in development and tests.
type MockGateway struct {
	// FailFor holds trip IDs whose charges should be declined.
	FailFor map[string]bool
}

// NewMockGateway creates a MockGateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{FailFor: make(map[string]bool)}
}

// Charge approves the charge unless the trip is marked to fail.
func (g *MockGateway) Charge(ctx context.Context, riderID, tripID string, amount domain.Money) error {
	if g.FailFor[tripID] {
		return ErrPaymentFailed
	}

	log.Printf("[payment] charged rider=%s trip=%s amount=%s", riderID, tripID, amount)
	return nil
}

// RetryingGateway wraps a gateway with bounded retries and linear backoff.
type RetryingGateway struct {
	inner    PaymentGateway
	attempts int
	backoff  time.Duration
}

// NewRetryingGateway wraps a gateway. attempts includes the first try.
func NewRetryingGateway(inner PaymentGateway, attempts int, backoff time.Duration) *RetryingGateway {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryingGateway{inner: inner, attempts: attempts, backoff: backoff}
}

// Charge retries the inner gateway up to the configured attempt count.
func (g *RetryingGateway) Charge(ctx context.Context, riderID, tripID string, amount domain.Money) error {
	var err error
	for i := 0; i < g.attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(g.backoff * time.Duration(i)):
			}
		}

		if err = g.inner.Charge(ctx, riderID, tripID, amount); err == nil {
			return nil
		}

		log.Printf("[payment] charge attempt %d failed for trip %s: %v", i+1, tripID, err)
	}

	return err
}

var (
	_ PaymentGateway = (*MockGateway)(nil)
	_ PaymentGateway = (*RetryingGateway)(nil)
)
