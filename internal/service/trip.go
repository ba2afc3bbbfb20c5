package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/bus"
	"dispatch/internal/domain"
	"dispatch/internal/notify"
	"dispatch/internal/repository"
	"dispatch/internal/routing"
)

// DispatchConfig holds the dispatch loop parameters.
type DispatchConfig struct {
	// ProviderTimeout is the response window of each broadcast round.
	ProviderTimeout time.Duration

	// ProvidersPerRound caps the offers issued per round.
	ProvidersPerRound int

	// MaxBroadcastRounds bounds the rounds before the trip is cancelled
	// for lack of providers.
	MaxBroadcastRounds int

	// SearchRadiusKm is the candidate search radius around the pickup.
	SearchRadiusKm float64
}

// DefaultDispatchConfig returns the default dispatch parameters.
func DefaultDispatchConfig() DispatchConfig {
	return DispatchConfig{
		ProviderTimeout:    15 * time.Second,
		ProvidersPerRound:  5,
		MaxBroadcastRounds: 3,
		SearchRadiusKm:     5.0,
	}
}

// TripService owns the trip lifecycle: creation with a fare estimate, the
// background dispatch loop, the status state machine, and completion
// hand-off to settlement.
type TripService struct {
	tripRepo     repository.TripRepository
	riderRepo    repository.RiderRepository
	providerRepo repository.ProviderRepository
	offerRepo    repository.OfferRepository
	pricingRepo  repository.PricingRepository
	promoRepo    repository.PromoRepository
	walletRepo   repository.WalletRepository

	locator     *Locator
	broadcaster *Broadcaster
	surge       *SurgeService
	fare        *FareCalculator
	router      routing.Router
	settlement  *SettlementService

	notifier notify.Notifier
	bus      bus.Bus

	waiters *waiterRegistry
	cfg     DispatchConfig
}

// NewTripService creates a new TripService.
func NewTripService(
	tripRepo repository.TripRepository,
	riderRepo repository.RiderRepository,
	providerRepo repository.ProviderRepository,
	offerRepo repository.OfferRepository,
	pricingRepo repository.PricingRepository,
	promoRepo repository.PromoRepository,
	walletRepo repository.WalletRepository,
	locator *Locator,
	broadcaster *Broadcaster,
	surge *SurgeService,
	fare *FareCalculator,
	router routing.Router,
	settlement *SettlementService,
	notifier notify.Notifier,
	b bus.Bus,
	cfg DispatchConfig,
) *TripService {
	return &TripService{
		tripRepo:     tripRepo,
		riderRepo:    riderRepo,
		providerRepo: providerRepo,
		offerRepo:    offerRepo,
		pricingRepo:  pricingRepo,
		promoRepo:    promoRepo,
		walletRepo:   walletRepo,
		locator:      locator,
		broadcaster:  broadcaster,
		surge:        surge,
		fare:         fare,
		router:       router,
		settlement:   settlement,
		notifier:     notifier,
		bus:          b,
		waiters:      newWaiterRegistry(),
		cfg:          cfg,
	}
}

// RequestTripRequest contains the parameters for creating a trip.
type RequestTripRequest struct {
	RiderID     string
	ServiceType string
	PickupLat   float64
	PickupLng   float64
	DropoffLat  float64
	DropoffLng  float64
	PaymentMode domain.PaymentMode
	PromoCode   string
}

// RequestTrip validates the request, pins the surge factor, computes the
// fare estimate and creates the trip, then starts the dispatch loop in
// the background.
func (s *TripService) RequestTrip(ctx context.Context, req RequestTripRequest) (*domain.Trip, error) {
	if req.RiderID == "" {
		return nil, ErrInvalidRiderID
	}

	if !domain.ValidLatitude(req.PickupLat) || !domain.ValidLongitude(req.PickupLng) ||
		!domain.ValidLatitude(req.DropoffLat) || !domain.ValidLongitude(req.DropoffLng) {
		return nil, ErrInvalidGeometry
	}
	if req.PickupLat == req.DropoffLat && req.PickupLng == req.DropoffLng {
		return nil, ErrInvalidGeometry
	}

	if req.ServiceType != domain.ServiceTypeEconomy && req.ServiceType != domain.ServiceTypePremium {
		return nil, ErrInvalidServiceType
	}

	if req.PaymentMode == "" {
		req.PaymentMode = domain.PaymentModeCash
	}
	switch req.PaymentMode {
	case domain.PaymentModeCash, domain.PaymentModeCard, domain.PaymentModeWallet:
	default:
		return nil, ErrInvalidPaymentMode
	}

	rider, err := s.riderRepo.GetByID(ctx, req.RiderID)
	if err != nil {
		return nil, err
	}

	pricing, err := s.pricingRepo.GetByServiceType(ctx, req.ServiceType)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	var promo *domain.PromoCode
	if req.PromoCode != "" {
		promo, err = s.promoRepo.GetByCode(ctx, req.PromoCode)
		if err != nil {
			return nil, err
		}
		if err := ValidatePromo(promo, now); err != nil {
			return nil, err
		}
	}

	meters, seconds, err := s.router.DistanceAndDuration(ctx,
		req.PickupLat, req.PickupLng, req.DropoffLat, req.DropoffLng)
	if err != nil {
		return nil, err
	}

	surgeBps := s.surge.GetSurgeBps(ctx, req.PickupLat, req.PickupLng)

	estimate := s.fare.Calculate(FareInput{
		DistanceMeters:  meters,
		DurationSeconds: seconds,
		Pricing:         pricing,
		SurgeBps:        surgeBps,
		Promo:           promo,
		ReferralBalance: rider.ReferralBalance,
		Now:             now,
	})

	trip := &domain.Trip{
		ID:            uuid.New().String(),
		RiderID:       req.RiderID,
		ServiceType:   req.ServiceType,
		PickupLat:     req.PickupLat,
		PickupLng:     req.PickupLng,
		DropoffLat:    req.DropoffLat,
		DropoffLng:    req.DropoffLng,
		Status:        domain.TripStatusRequested,
		PaymentMode:   req.PaymentMode,
		PromoCode:     req.PromoCode,
		SurgeBps:      estimate.SurgeBps,
		EstimatedFare: estimate.Total,
		RequestedAt:   now,
	}

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}

	s.publishStatus(ctx, trip)

	go s.dispatch(trip.ID)

	return trip, nil
}

// dispatch runs the broadcast rounds for a trip until a provider accepts,
// the rider cancels, or the rounds run out. It runs on its own goroutine
// with its own context so it outlives the creating request.
func (s *TripService) dispatch(tripID string) {
	ctx := context.Background()

	w := s.waiters.register(tripID)
	defer s.waiters.unregister(tripID)

	for round := 1; round <= s.cfg.MaxBroadcastRounds; round++ {
		trip, err := s.tripRepo.GetByID(ctx, tripID)
		if err != nil {
			log.Printf("[dispatch] load trip %s: %v", tripID, err)
			return
		}
		if trip.Status != domain.TripStatusRequested {
			return
		}

		candidates, err := s.locator.FindCandidates(ctx, trip, s.cfg.SearchRadiusKm, s.cfg.ProvidersPerRound)
		if err != nil {
			log.Printf("[dispatch] find candidates for trip %s: %v", tripID, err)
		}

		// An empty round still waits out the full window: providers may
		// come online or free up before the next sweep.
		if len(candidates) > 0 {
			if _, err := s.broadcaster.Broadcast(ctx, trip, candidates, round); err != nil {
				log.Printf("[dispatch] broadcast round %d for trip %s: %v", round, tripID, err)
			}
		}

		timer := time.NewTimer(s.cfg.ProviderTimeout)

		select {
		case providerID := <-w.acceptCh:
			timer.Stop()
			log.Printf("[dispatch] trip %s accepted by provider %s in round %d", tripID, providerID, round)
			if _, err := s.broadcaster.ExpireRound(ctx, tripID, round); err != nil {
				log.Printf("[dispatch] expire round %d for trip %s: %v", round, tripID, err)
			}
			return

		case <-w.cancelCh:
			timer.Stop()
			if _, err := s.broadcaster.ExpireRound(ctx, tripID, round); err != nil {
				log.Printf("[dispatch] expire round %d for trip %s: %v", round, tripID, err)
			}
			return

		case <-timer.C:
			if _, err := s.broadcaster.ExpireRound(ctx, tripID, round); err != nil {
				log.Printf("[dispatch] expire round %d for trip %s: %v", round, tripID, err)
			}
		}
	}

	// Every round exhausted without a winner.
	ok, err := s.tripRepo.Cancel(ctx, tripID, domain.CancelReasonNoProviders, time.Now(), domain.TripStatusRequested)
	if err != nil {
		log.Printf("[dispatch] cancel exhausted trip %s: %v", tripID, err)
		return
	}
	if !ok {
		// A late acceptance or rider cancel won the race.
		return
	}

	if trip, err := s.tripRepo.GetByID(ctx, tripID); err == nil {
		s.publishStatus(ctx, trip)
	}
}

// CancelTrip cancels a trip on the rider's behalf. Before the provider
// arrives cancellation is free; after arrival the cancellation fee
// applies and is settled to the provider. An in-progress or terminal trip
// cannot be cancelled.
func (s *TripService) CancelTrip(ctx context.Context, tripID, reason string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	switch trip.Status {
	case domain.TripStatusRequested:
		ok, err := s.tripRepo.Cancel(ctx, tripID, reason, now, domain.TripStatusRequested)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrTripNotCancellable
		}
		s.waiters.notifyCancel(tripID)

	case domain.TripStatusAccepted:
		ok, err := s.tripRepo.Cancel(ctx, tripID, reason, now, domain.TripStatusAccepted)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrTripNotCancellable
		}
		s.releaseProvider(ctx, trip.ConfirmedProviderID)

	case domain.TripStatusArrived:
		pricing, err := s.pricingRepo.GetByServiceType(ctx, trip.ServiceType)
		if err != nil {
			return nil, err
		}

		ok, err := s.tripRepo.Cancel(ctx, tripID, reason, now, domain.TripStatusArrived)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrTripNotCancellable
		}

		fee := s.fare.CancellationFare(pricing)
		if err := s.tripRepo.SaveFare(ctx, tripID, fee, 0, 0); err != nil {
			return nil, err
		}

		s.releaseProvider(ctx, trip.ConfirmedProviderID)

		if err := s.settlement.Settle(ctx, tripID); err != nil {
			log.Printf("[trip] settle cancellation fee for %s: %v", tripID, err)
		}

	default:
		return nil, ErrTripNotCancellable
	}

	if trip.ConfirmedProviderID != "" {
		if err := s.providerRepo.IncrementCounter(ctx, trip.ConfirmedProviderID, domain.CounterCancelled); err != nil {
			log.Printf("[trip] bump cancelled count for %s: %v", trip.ConfirmedProviderID, err)
		}
	}

	trip, err = s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	s.publishStatus(ctx, trip)

	return trip, nil
}

// CancelTripByProvider cancels a trip on the confirmed provider's
// behalf. Unlike the rider path it also covers an in-progress trip, for
// breakdowns and safety stops, and never charges the rider a fee. The
// reason is recorded on the trip so support can trace the drop.
func (s *TripService) CancelTripByProvider(ctx context.Context, tripID, providerID, reason string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if providerID == "" {
		return nil, ErrInvalidProviderID
	}
	if reason == "" {
		reason = "provider_cancelled"
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if trip.ConfirmedProviderID != providerID {
		return nil, ErrNotConfirmedProvider
	}

	ok, err := s.tripRepo.Cancel(ctx, tripID, reason, time.Now(),
		domain.TripStatusAccepted, domain.TripStatusArrived, domain.TripStatusInProgress)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTripNotCancellable
	}

	if err := s.providerRepo.IncrementCounter(ctx, providerID, domain.CounterCancelled); err != nil {
		log.Printf("[trip] bump cancelled count for %s: %v", providerID, err)
	}
	s.releaseProvider(ctx, providerID)

	trip, err = s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	s.publishStatus(ctx, trip)

	return trip, nil
}

// MarkArrived records the confirmed provider reaching the pickup point.
func (s *TripService) MarkArrived(ctx context.Context, tripID, providerID string) (*domain.Trip, error) {
	return s.transition(ctx, tripID, providerID, domain.TripStatusAccepted, domain.TripStatusArrived)
}

// StartTrip moves an arrived trip into progress when the rider boards.
func (s *TripService) StartTrip(ctx context.Context, tripID, providerID string) (*domain.Trip, error) {
	return s.transition(ctx, tripID, providerID, domain.TripStatusArrived, domain.TripStatusInProgress)
}

// transition applies one forward step of the state machine for the
// confirmed provider.
func (s *TripService) transition(ctx context.Context, tripID, providerID string, from, to domain.TripStatus) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if providerID == "" {
		return nil, ErrInvalidProviderID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if trip.ConfirmedProviderID != providerID {
		return nil, ErrNotConfirmedProvider
	}

	ok, err := s.tripRepo.Transition(ctx, tripID, from, to, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	trip, err = s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	s.publishStatus(ctx, trip)

	return trip, nil
}

// CompleteTripRequest contains the parameters for completing a trip.
type CompleteTripRequest struct {
	TripID     string
	ProviderID string

	// Actual trip telemetry. When absent the routing provider's estimate
	// over the trip geometry is used instead.
	DistanceMeters  int64
	DurationSeconds int64

	Tip  domain.Money
	Toll domain.Money
}

// CompleteTrip ends an in-progress trip, computes the final fare from the
// actual telemetry and hands the trip to settlement. Settlement failures
// do not undo completion; the trip stays completed with the transfer
// still owed.
func (s *TripService) CompleteTrip(ctx context.Context, req CompleteTripRequest) (*domain.Trip, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.ProviderID == "" {
		return nil, ErrInvalidProviderID
	}

	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	if trip.ConfirmedProviderID != req.ProviderID {
		return nil, ErrNotConfirmedProvider
	}

	now := time.Now()

	ok, err := s.tripRepo.Transition(ctx, req.TripID, domain.TripStatusInProgress, domain.TripStatusCompleted, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	meters, seconds := req.DistanceMeters, req.DurationSeconds
	if meters <= 0 || seconds <= 0 {
		meters, seconds, err = s.router.DistanceAndDuration(ctx,
			trip.PickupLat, trip.PickupLng, trip.DropoffLat, trip.DropoffLng)
		if err != nil {
			return nil, err
		}
	}

	fare, err := s.finalFare(ctx, trip, meters, seconds, req.Tip, req.Toll, true, now)
	if err != nil {
		return nil, err
	}

	if err := s.tripRepo.SaveFare(ctx, req.TripID, fare, meters, seconds); err != nil {
		return nil, err
	}

	if err := s.providerRepo.IncrementCounter(ctx, req.ProviderID, domain.CounterCompleted); err != nil {
		log.Printf("[trip] bump completed count for %s: %v", req.ProviderID, err)
	}
	s.releaseProvider(ctx, req.ProviderID)

	if err := s.settlement.Settle(ctx, req.TripID); err != nil {
		log.Printf("[trip] settle trip %s: %v", req.TripID, err)
	}

	trip, err = s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	s.publishStatus(ctx, trip)

	return trip, nil
}

// finalFare computes a trip's fare from telemetry, resolving the pinned
// surge, the promo code and the rider's referral credit.
func (s *TripService) finalFare(ctx context.Context, trip *domain.Trip, meters, seconds int64, tip, toll domain.Money, allowPromo bool, now time.Time) (*domain.FareBreakdown, error) {
	pricing, err := s.pricingRepo.GetByServiceType(ctx, trip.ServiceType)
	if err != nil {
		return nil, err
	}

	var promo *domain.PromoCode
	if allowPromo && trip.PromoCode != "" {
		promo, err = s.promoRepo.GetByCode(ctx, trip.PromoCode)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	rider, err := s.riderRepo.GetByID(ctx, trip.RiderID)
	if err != nil {
		return nil, err
	}

	return s.fare.Calculate(FareInput{
		DistanceMeters:  meters,
		DurationSeconds: seconds,
		Pricing:         pricing,
		SurgeBps:        trip.SurgeBps,
		Promo:           promo,
		ReferralBalance: rider.ReferralBalance,
		Tip:             tip,
		Toll:            toll,
		Now:             now,
	}), nil
}

// GetTrip retrieves a trip by ID.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	return s.tripRepo.GetByID(ctx, tripID)
}

// GetAllTrips retrieves recent trips.
func (s *TripService) GetAllTrips(ctx context.Context) ([]*domain.Trip, error) {
	return s.tripRepo.GetAll(ctx)
}

// ListOffers retrieves every offer issued for a trip.
func (s *TripService) ListOffers(ctx context.Context, tripID string) ([]*domain.Offer, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	return s.offerRepo.ListByTrip(ctx, tripID)
}

// Receipt is the rider-facing settlement record of a finished trip.
type Receipt struct {
	Trip          *domain.Trip
	Fare          *domain.FareBreakdown
	LedgerEntries []*domain.WalletLedgerEntry
}

// GetReceipt assembles the receipt for a completed or fee-cancelled trip.
func (s *TripService) GetReceipt(ctx context.Context, tripID string) (*Receipt, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if trip.Fare == nil {
		return nil, ErrTripNotCompleted
	}

	entries, err := s.walletRepo.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	return &Receipt{
		Trip:          trip,
		Fare:          trip.Fare,
		LedgerEntries: entries,
	}, nil
}

// releaseProvider puts a provider back on the open market after their
// trip ends.
func (s *TripService) releaseProvider(ctx context.Context, providerID string) {
	if providerID == "" {
		return
	}
	if err := s.providerRepo.SetAvailability(ctx, providerID, true); err != nil {
		log.Printf("[trip] release provider %s: %v", providerID, err)
	}
}

// publishStatus emits the trip's current status to the bus and the
// parties' notification channels.
func (s *TripService) publishStatus(ctx context.Context, trip *domain.Trip) {
	ev := bus.TripStatusEvent{
		TripID:     trip.ID,
		RiderID:    trip.RiderID,
		ProviderID: trip.ConfirmedProviderID,
		Status:     string(trip.Status),
		Reason:     trip.CancelReason,
	}

	if err := s.bus.Publish(ctx, bus.TopicTripStatus, trip.ID, ev); err != nil {
		log.Printf("[trip] publish status for %s: %v", trip.ID, err)
	}

	s.notifier.NotifyTripStatus(ctx, trip.RiderID, trip.ID, trip.Status)
	if trip.ConfirmedProviderID != "" {
		s.notifier.NotifyTripStatus(ctx, trip.ConfirmedProviderID, trip.ID, trip.Status)
	}
}
