package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// signupReferralBonus is the referral credit granted to both sides when a
// new rider signs up with a referral.
const signupReferralBonus = domain.Money(500)

// RiderService handles rider accounts and the referral program.
type RiderService struct {
	riderRepo  repository.RiderRepository
	walletRepo repository.WalletRepository
}

// NewRiderService creates a new RiderService.
func NewRiderService(riderRepo repository.RiderRepository, walletRepo repository.WalletRepository) *RiderService {
	return &RiderService{riderRepo: riderRepo, walletRepo: walletRepo}
}

// CreateRiderRequest contains the parameters for creating a rider.
type CreateRiderRequest struct {
	Name  string
	Phone string

	// ReferredBy is the referring rider's ID, when the signup came
	// through a referral link.
	ReferredBy string
}

// CreateRider creates a rider account. A valid referral credits both the
// new rider and the referrer.
func (s *RiderService) CreateRider(ctx context.Context, req CreateRiderRequest) (*domain.Rider, error) {
	rider := &domain.Rider{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Phone:     req.Phone,
		CreatedAt: time.Now(),
	}

	if req.ReferredBy != "" {
		referrer, err := s.riderRepo.GetByID(ctx, req.ReferredBy)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			// Unknown referrer: the signup proceeds without the bonus.
		} else {
			rider.ReferredBy = referrer.ID
			rider.ReferralBalance = signupReferralBonus
		}
	}

	if err := s.riderRepo.Create(ctx, rider); err != nil {
		return nil, err
	}

	if rider.ReferredBy != "" {
		if err := s.riderRepo.CreditReferralBalance(ctx, rider.ReferredBy, signupReferralBonus); err != nil {
			log.Printf("[rider] credit referrer %s: %v", rider.ReferredBy, err)
		}
	}

	return rider, nil
}

// GetRider retrieves a rider by ID.
func (s *RiderService) GetRider(ctx context.Context, riderID string) (*domain.Rider, error) {
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}
	return s.riderRepo.GetByID(ctx, riderID)
}

// GetAllRiders retrieves all riders.
func (s *RiderService) GetAllRiders(ctx context.Context) ([]*domain.Rider, error) {
	return s.riderRepo.GetAll(ctx)
}

// WalletStatement is an account's balance together with its ledger.
type WalletStatement struct {
	AccountID string
	Balance   domain.Money
	Entries   []*domain.WalletLedgerEntry
}

// GetWallet assembles the wallet statement for any ledger account: a
// rider, a provider or the platform itself.
func (s *RiderService) GetWallet(ctx context.Context, accountID string) (*WalletStatement, error) {
	if accountID == "" {
		return nil, ErrInvalidRiderID
	}

	balance, err := s.walletRepo.Balance(ctx, accountID)
	if err != nil {
		return nil, err
	}

	entries, err := s.walletRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &WalletStatement{
		AccountID: accountID,
		Balance:   balance,
		Entries:   entries,
	}, nil
}
