package service

import (
	"context"
	"testing"

	"dispatch/internal/domain"
)

func TestCreateRiderWithReferral(t *testing.T) {
	env := newTestEnv(t)
	svc := NewRiderService(env.riders, env.wallets)
	ctx := context.Background()

	referrer, err := svc.CreateRider(ctx, CreateRiderRequest{Name: "ana", Phone: "+15550000001"})
	if err != nil {
		t.Fatalf("create referrer: %v", err)
	}
	if referrer.ReferralBalance != 0 {
		t.Errorf("referrer starts with balance %d, want 0", referrer.ReferralBalance)
	}

	referred, err := svc.CreateRider(ctx, CreateRiderRequest{
		Name:       "ben",
		Phone:      "+15550000002",
		ReferredBy: referrer.ID,
	})
	if err != nil {
		t.Fatalf("create referred: %v", err)
	}

	if referred.ReferralBalance != 500 {
		t.Errorf("referred balance = %d, want 500", referred.ReferralBalance)
	}
	refreshed, _ := env.riders.GetByID(ctx, referrer.ID)
	if refreshed.ReferralBalance != 500 {
		t.Errorf("referrer balance = %d, want 500", refreshed.ReferralBalance)
	}
}

func TestCreateRiderUnknownReferrer(t *testing.T) {
	env := newTestEnv(t)
	svc := NewRiderService(env.riders, env.wallets)
	ctx := context.Background()

	rider, err := svc.CreateRider(ctx, CreateRiderRequest{
		Name:       "cat",
		Phone:      "+15550000003",
		ReferredBy: "no-such-rider",
	})
	if err != nil {
		t.Fatalf("CreateRider: %v", err)
	}

	if rider.ReferredBy != "" || rider.ReferralBalance != 0 {
		t.Errorf("rider = referredBy %q balance %d, want no bonus", rider.ReferredBy, rider.ReferralBalance)
	}
}

func TestGetWallet(t *testing.T) {
	env := newTestEnv(t)
	svc := NewRiderService(env.riders, env.wallets)
	ctx := context.Background()

	for i, e := range []*domain.WalletLedgerEntry{
		{ID: "e1", AccountID: "acct", TripID: "t1", Type: domain.LedgerRiderCharge, Amount: -1000},
		{ID: "e2", AccountID: "acct", TripID: "t2", Type: domain.LedgerRiderCharge, Amount: -700},
		{ID: "e3", AccountID: "other", TripID: "t1", Type: domain.LedgerProviderEarning, Amount: 800},
	} {
		if err := env.wallets.CreateEntry(ctx, e); err != nil {
			t.Fatalf("entry %d: %v", i, err)
		}
	}

	statement, err := svc.GetWallet(ctx, "acct")
	if err != nil {
		t.Fatalf("GetWallet: %v", err)
	}
	if statement.Balance != -1700 {
		t.Errorf("balance = %d, want -1700", statement.Balance)
	}
	if len(statement.Entries) != 2 {
		t.Errorf("entries = %d, want 2", len(statement.Entries))
	}
}
