package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// SettlementService reconciles finished trips into the wallet ledger:
// rider charge, provider earning and platform commission, with the promo
// and referral credits locked in along the way. Settle is idempotent; a
// crashed or repeated run picks up where the last one stopped and never
// writes a ledger line twice.
type SettlementService struct {
	tripRepo    repository.TripRepository
	riderRepo   repository.RiderRepository
	promoRepo   repository.PromoRepository
	pricingRepo repository.PricingRepository
	walletRepo  repository.WalletRepository

	gateway PaymentGateway
	fare    *FareCalculator
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(
	tripRepo repository.TripRepository,
	riderRepo repository.RiderRepository,
	promoRepo repository.PromoRepository,
	pricingRepo repository.PricingRepository,
	walletRepo repository.WalletRepository,
	gateway PaymentGateway,
	fare *FareCalculator,
) *SettlementService {
	return &SettlementService{
		tripRepo:    tripRepo,
		riderRepo:   riderRepo,
		promoRepo:   promoRepo,
		pricingRepo: pricingRepo,
		walletRepo:  walletRepo,
		gateway:     gateway,
		fare:        fare,
	}
}

// Settle transfers a finished trip's money. Already-settled trips are a
// no-op. A declined card charge returns ErrPaymentFailed and leaves the
// trip unsettled for a later retry.
func (s *SettlementService) Settle(ctx context.Context, tripID string) error {
	if tripID == "" {
		return ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return err
	}

	if trip.IsTransferred {
		return nil
	}

	if trip.Fare == nil {
		return ErrTripNotCompleted
	}

	switch trip.Status {
	case domain.TripStatusCompleted:
	case domain.TripStatusCancelled:
		if trip.Fare.CancellationFee <= 0 {
			return ErrTripNotCompleted
		}
	default:
		return ErrTripNotCompleted
	}

	fare := trip.Fare

	// Ledger lines are the crash witness: if any exist the credits were
	// already locked in by a previous attempt, so don't consume them
	// again.
	entries, err := s.walletRepo.ListByTrip(ctx, tripID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fare, err = s.lockInCredits(ctx, trip)
		if err != nil {
			return err
		}
	}

	// The ledger must hit the database before the gateway call: a
	// declined charge then leaves the lines behind as the witness, and the
	// retry skips lockInCredits instead of consuming the promo use and
	// referral debit a second time.
	if err := s.writeLedger(ctx, trip, fare); err != nil {
		return err
	}

	if trip.PaymentMode == domain.PaymentModeCard && fare.Total > 0 {
		if err := s.gateway.Charge(ctx, trip.RiderID, tripID, fare.Total); err != nil {
			return fmt.Errorf("%w: %v", ErrPaymentFailed, err)
		}
	}

	ok, err := s.tripRepo.MarkTransferred(ctx, tripID)
	if err != nil {
		return err
	}
	if !ok {
		// A concurrent settlement got there first; the ledger writes
		// above were deduplicated, so nothing moved twice.
		return nil
	}

	log.Printf("[settlement] trip %s settled, total=%s", tripID, fare.Total)
	return nil
}

// lockInCredits consumes the trip's promo use and debits the rider's
// referral balance. Either credit can have evaporated since the estimate
// (cap reached, balance spent elsewhere); the fare is then recomputed
// without it and stored.
func (s *SettlementService) lockInCredits(ctx context.Context, trip *domain.Trip) (*domain.FareBreakdown, error) {
	fare := trip.Fare
	changed := false

	var promo *domain.PromoCode
	if fare.PromoDiscount > 0 && trip.PromoCode != "" {
		var err error
		promo, err = s.promoRepo.GetByCode(ctx, trip.PromoCode)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			promo = nil
		}

		consumed := false
		if promo != nil {
			consumed, err = s.promoRepo.ConsumeUse(ctx, trip.PromoCode)
			if err != nil {
				return nil, err
			}
		}
		if !consumed {
			promo = nil
			changed = true
		}
	}

	referral := fare.ReferralCredit
	if referral > 0 {
		ok, err := s.riderRepo.DebitReferralBalance(ctx, trip.RiderID, referral)
		if err != nil {
			return nil, err
		}
		if !ok {
			referral = 0
			changed = true
		}
	}

	if !changed {
		return fare, nil
	}

	pricing, err := s.pricingRepo.GetByServiceType(ctx, trip.ServiceType)
	if err != nil {
		return nil, err
	}

	recomputed := s.fare.Calculate(FareInput{
		DistanceMeters:  trip.DistanceMeters,
		DurationSeconds: trip.DurationSeconds,
		Pricing:         pricing,
		SurgeBps:        trip.SurgeBps,
		Promo:           promo,
		ReferralBalance: referral,
		Tip:             fare.Tip,
		Toll:            fare.Toll,
		Now:             time.Now(),
	})

	if err := s.tripRepo.SaveFare(ctx, trip.ID, recomputed, trip.DistanceMeters, trip.DurationSeconds); err != nil {
		return nil, err
	}

	return recomputed, nil
}

// writeLedger appends the settlement's ledger lines. Lines that already
// exist from a previous attempt are skipped, which is what makes the
// whole settlement re-runnable.
func (s *SettlementService) writeLedger(ctx context.Context, trip *domain.Trip, fare *domain.FareBreakdown) error {
	pricing, err := s.pricingRepo.GetByServiceType(ctx, trip.ServiceType)
	if err != nil {
		return err
	}

	commission := pricing.Commission(fare.Total)
	now := time.Now()

	entries := []*domain.WalletLedgerEntry{
		{
			ID:        uuid.New().String(),
			AccountID: trip.RiderID,
			TripID:    trip.ID,
			Type:      domain.LedgerRiderCharge,
			Amount:    -fare.Total,
			CreatedAt: now,
		},
	}

	if trip.ConfirmedProviderID != "" {
		entries = append(entries,
			&domain.WalletLedgerEntry{
				ID:        uuid.New().String(),
				AccountID: trip.ConfirmedProviderID,
				TripID:    trip.ID,
				Type:      domain.LedgerProviderEarning,
				Amount:    fare.Total - commission,
				CreatedAt: now,
			},
			&domain.WalletLedgerEntry{
				ID:        uuid.New().String(),
				AccountID: domain.PlatformAccountID,
				TripID:    trip.ID,
				Type:      domain.LedgerPlatformCommission,
				Amount:    commission,
				CreatedAt: now,
			},
		)
	}

	if fare.ReferralCredit > 0 {
		entries = append(entries, &domain.WalletLedgerEntry{
			ID:        uuid.New().String(),
			AccountID: domain.ReferralAccountID(trip.RiderID),
			TripID:    trip.ID,
			Type:      domain.LedgerReferralCredit,
			Amount:    -fare.ReferralCredit,
			CreatedAt: now,
		})
	}

	for _, entry := range entries {
		if err := s.walletRepo.CreateEntry(ctx, entry); err != nil {
			if errors.Is(err, repository.ErrDuplicateLedgerEntry) {
				log.Printf("[settlement] ledger entry exists for trip=%s account=%s, skipping", entry.TripID, entry.AccountID)
				continue
			}
			return err
		}
	}

	return nil
}
