package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"dispatch/internal/bus"
	"dispatch/internal/domain"
)

func TestAcceptConcurrentSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	trip := env.seedTrip(t, nil)

	const contenders = 8
	offerIDs := make([]string, contenders)
	providerIDs := make([]string, contenders)
	for i := 0; i < contenders; i++ {
		providerIDs[i] = fmt.Sprintf("p-%d", i)
		env.seedProvider(t, providerIDs[i], 0.001*float64(i+1))
		offerIDs[i] = env.seedOffer(t, trip.ID, providerIDs[i], 1).ID
	}

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.arbiter.Accept(ctx, offerIDs[i], providerIDs[i])
		}(i)
	}
	wg.Wait()

	winners := 0
	winnerIdx := -1
	for i, err := range errs {
		switch {
		case err == nil:
			winners++
			winnerIdx = i
		case errors.Is(err, ErrRaceLost):
		default:
			t.Errorf("contender %d: unexpected error %v", i, err)
		}
	}

	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}

	got, err := env.trips.GetByID(ctx, trip.ID)
	if err != nil {
		t.Fatalf("get trip: %v", err)
	}
	if got.Status != domain.TripStatusAccepted {
		t.Errorf("trip status = %s, want accepted", got.Status)
	}
	if got.ConfirmedProviderID != providerIDs[winnerIdx] {
		t.Errorf("confirmed provider = %s, want %s", got.ConfirmedProviderID, providerIDs[winnerIdx])
	}

	// The winner left the open market; every losing offer is terminal.
	winner, err := env.providers.GetByID(ctx, got.ConfirmedProviderID)
	if err != nil {
		t.Fatalf("get winner: %v", err)
	}
	if winner.IsAvailable {
		t.Error("winner still available after acceptance")
	}
	if winner.AcceptedCount != 1 {
		t.Errorf("winner accepted count = %d, want 1", winner.AcceptedCount)
	}

	offers, err := env.offers.ListByTrip(ctx, trip.ID)
	if err != nil {
		t.Fatalf("list offers: %v", err)
	}
	for _, o := range offers {
		if o.ProviderID == got.ConfirmedProviderID {
			if o.Status != domain.OfferStatusAccepted {
				t.Errorf("winning offer status = %s, want accepted", o.Status)
			}
		} else if o.Status == domain.OfferStatusPending || o.Status == domain.OfferStatusAccepted {
			t.Errorf("losing offer %s status = %s, want terminal non-accepted", o.ID, o.Status)
		}
	}
}

func TestAcceptExpiredOffer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	trip := env.seedTrip(t, nil)
	env.seedProvider(t, "p-slow", 0.001)

	offer := env.seedOffer(t, trip.ID, "p-slow", 1)
	env.offers.mu.Lock()
	env.offers.offers[offer.ID].ExpiresAt = time.Now().Add(-time.Second)
	env.offers.mu.Unlock()

	_, err := env.arbiter.Accept(ctx, offer.ID, "p-slow")
	if !errors.Is(err, ErrOfferExpired) {
		t.Fatalf("Accept on expired offer = %v, want ErrOfferExpired", err)
	}

	got, _ := env.offers.GetByID(ctx, offer.ID)
	if got.Status != domain.OfferStatusExpired {
		t.Errorf("offer status = %s, want expired", got.Status)
	}

	tripNow, _ := env.trips.GetByID(ctx, trip.ID)
	if tripNow.Status != domain.TripStatusRequested {
		t.Errorf("trip status = %s, want still requested", tripNow.Status)
	}
}

func TestAcceptWrongProvider(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	trip := env.seedTrip(t, nil)
	env.seedProvider(t, "p-owner", 0.001)
	offer := env.seedOffer(t, trip.ID, "p-owner", 1)

	if _, err := env.arbiter.Accept(ctx, offer.ID, "p-impostor"); !errors.Is(err, ErrInvalidProviderID) {
		t.Fatalf("Accept by wrong provider = %v, want ErrInvalidProviderID", err)
	}
}

func TestAcceptNonPendingOffer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	trip := env.seedTrip(t, nil)
	env.seedProvider(t, "p-1", 0.001)
	offer := env.seedOffer(t, trip.ID, "p-1", 1)

	if _, err := env.offers.Reject(ctx, offer.ID, time.Now()); err != nil {
		t.Fatalf("reject offer: %v", err)
	}

	if _, err := env.arbiter.Accept(ctx, offer.ID, "p-1"); !errors.Is(err, ErrOfferNotPending) {
		t.Fatalf("Accept on rejected offer = %v, want ErrOfferNotPending", err)
	}
}

func TestRejectAddsExclusion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	trip := env.seedTrip(t, nil)
	env.seedProvider(t, "p-1", 0.001)
	offer := env.seedOffer(t, trip.ID, "p-1", 1)

	if err := env.arbiter.Reject(ctx, offer.ID, "p-1"); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	got, _ := env.offers.GetByID(ctx, offer.ID)
	if got.Status != domain.OfferStatusRejected {
		t.Errorf("offer status = %s, want rejected", got.Status)
	}

	tripNow, _ := env.trips.GetByID(ctx, trip.ID)
	if !tripNow.HasRejected("p-1") {
		t.Error("provider missing from the trip's exclusion set")
	}

	p, _ := env.providers.GetByID(ctx, "p-1")
	if p.RejectedCount != 1 {
		t.Errorf("rejected count = %d, want 1", p.RejectedCount)
	}

	// A second response to the same offer is refused.
	if err := env.arbiter.Reject(ctx, offer.ID, "p-1"); !errors.Is(err, ErrOfferNotPending) {
		t.Errorf("second Reject = %v, want ErrOfferNotPending", err)
	}
}

func TestSubscribeResponsesAcceptOverBus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	trip := env.seedTrip(t, nil)
	env.seedProvider(t, "p-app", 0.001)
	offer := env.seedOffer(t, trip.ID, "p-app", 1)

	env.arbiter.SubscribeResponses(ctx, env.bus)

	if err := env.bus.Publish(ctx, bus.TopicOfferResponse, offer.ID, bus.OfferResponseEvent{
		OfferID:    offer.ID,
		ProviderID: "p-app",
		Action:     "accept",
	}); err != nil {
		t.Fatalf("publish response: %v", err)
	}

	// The in-process bus delivers synchronously.
	got, _ := env.trips.GetByID(ctx, trip.ID)
	if got.Status != domain.TripStatusAccepted || got.ConfirmedProviderID != "p-app" {
		t.Errorf("trip = %s/%s, want accepted/p-app", got.Status, got.ConfirmedProviderID)
	}
}
