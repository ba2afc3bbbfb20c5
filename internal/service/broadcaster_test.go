package service

import (
	"context"
	"testing"

	"dispatch/internal/domain"
)

func TestBroadcastIssuesOffersAndLocks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	trip := env.seedTrip(t, nil)
	env.seedProvider(t, "p-1", 0.001)
	env.seedProvider(t, "p-2", 0.002)

	candidates, err := env.locator.FindCandidates(ctx, trip, 5.0, 5)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}

	offers, err := env.broadcaster.Broadcast(ctx, trip, candidates, 1)
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("offers = %d, want 2", len(offers))
	}
	for _, o := range offers {
		if o.Status != domain.OfferStatusPending || o.Round != 1 {
			t.Errorf("offer %s = %s/round %d, want pending/round 1", o.ID, o.Status, o.Round)
		}
	}

	got, _ := env.trips.GetByID(ctx, trip.ID)
	if got.BroadcastRound != 1 {
		t.Errorf("broadcast round = %d, want 1", got.BroadcastRound)
	}

	// Both providers now hold offer locks.
	for _, id := range []string{"p-1", "p-2"} {
		acquired, _ := env.locks.AcquireOfferLock(ctx, id, 0)
		if acquired {
			t.Errorf("lock for %s was free after broadcast", id)
		}
	}
}

func TestBroadcastSkipsLockedProvider(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	trip := env.seedTrip(t, nil)
	env.seedProvider(t, "p-busy", 0.001)
	env.seedProvider(t, "p-free", 0.002)

	// p-busy already holds an offer from another trip's dispatch.
	if _, err := env.locks.AcquireOfferLock(ctx, "p-busy", 0); err != nil {
		t.Fatalf("pre-acquire lock: %v", err)
	}

	candidates, err := env.locator.FindCandidates(ctx, trip, 5.0, 5)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}

	offers, err := env.broadcaster.Broadcast(ctx, trip, candidates, 1)
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if len(offers) != 1 || offers[0].ProviderID != "p-free" {
		t.Fatalf("offers = %v, want only p-free", offers)
	}

	// p-busy is not excluded, only skipped; a later round may reach them.
	got, _ := env.trips.GetByID(ctx, trip.ID)
	if got.HasRejected("p-busy") {
		t.Error("skipped provider landed in the exclusion set")
	}
}

func TestExpireRoundReleasesAndExcludes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	trip := env.seedTrip(t, nil)
	env.seedProvider(t, "p-1", 0.001)

	candidates, _ := env.locator.FindCandidates(ctx, trip, 5.0, 5)
	if _, err := env.broadcaster.Broadcast(ctx, trip, candidates, 1); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	expired, err := env.broadcaster.ExpireRound(ctx, trip.ID, 1)
	if err != nil {
		t.Fatalf("ExpireRound: %v", err)
	}
	if len(expired) != 1 || expired[0] != "p-1" {
		t.Fatalf("expired = %v, want [p-1]", expired)
	}

	got, _ := env.trips.GetByID(ctx, trip.ID)
	if !got.HasRejected("p-1") {
		t.Error("timed-out provider missing from the exclusion set")
	}

	// The lock is back; the provider can receive offers for other trips.
	acquired, _ := env.locks.AcquireOfferLock(ctx, "p-1", 0)
	if !acquired {
		t.Error("offer lock not released on round expiry")
	}

	// Expiring an already-expired round is a no-op.
	again, err := env.broadcaster.ExpireRound(ctx, trip.ID, 1)
	if err != nil {
		t.Fatalf("second ExpireRound: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second expiry touched %v, want nothing", again)
	}
}
