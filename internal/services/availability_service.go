package services

import (
	"context"

	"roofradar/internal/domain"
	"roofradar/internal/repos"
)

// AvailabilityService derives the remaining-copies figure the landing page
// shows. Checkout never consults it; the cap is enforced atomically in the
// purchase repo.
type AvailabilityService struct {
	Purchases *repos.PurchaseRepo
	Cache     *repos.StatsCache // nil disables caching
	Cap       int
}

func NewAvailabilityService(purchases *repos.PurchaseRepo, cache *repos.StatsCache, cap int) *AvailabilityService {
	return &AvailabilityService{Purchases: purchases, Cache: cache, Cap: cap}
}

// Check returns current availability. A storage error propagates so callers
// fail closed instead of advertising copies that may not exist.
func (s *AvailabilityService) Check(ctx context.Context) (domain.Availability, error) {
	if n, ok := s.Cache.Remaining(ctx); ok {
		return s.toAvailability(n), nil
	}

	active, err := s.Purchases.ActiveCount()
	if err != nil {
		return domain.Availability{}, err
	}
	remaining := s.Cap - active
	if remaining < 0 {
		remaining = 0
	}
	s.Cache.SetRemaining(ctx, remaining)
	return s.toAvailability(remaining), nil
}

func (s *AvailabilityService) toAvailability(remaining int) domain.Availability {
	status := "AVAILABLE"
	if remaining <= 0 {
		status = "SOLD_OUT"
	}
	return domain.Availability{Status: status, Remaining: remaining, Cap: s.Cap}
}
