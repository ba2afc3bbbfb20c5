package postgres

import "dispatch/internal/repository"

// Ensure concrete types implement the repository interfaces.
var (
	_ repository.RiderRepository    = (*RiderRepository)(nil)
	_ repository.ProviderRepository = (*ProviderRepository)(nil)
	_ repository.TripRepository     = (*TripRepository)(nil)
	_ repository.OfferRepository    = (*OfferRepository)(nil)
	_ repository.PromoRepository    = (*PromoRepository)(nil)
	_ repository.WalletRepository   = (*WalletRepository)(nil)
	_ repository.PricingRepository  = (*PricingRepository)(nil)
	_ repository.ZoneRepository     = (*ZoneRepository)(nil)
)
