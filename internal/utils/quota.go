package utils

import "dormhub-backend/internal/domain"

// EvaluateQuota decides whether a user may add one more favorite or
// reservation on top of currentCount. Premium is unlimited; any other tier is
// held to the free limits. Callers must pass a count read in the same unit of
// work as the write it gates.
func EvaluateQuota(tier domain.SubscriptionTier, kind domain.QuotaKind, currentCount int, limits domain.QuotaLimits) domain.QuotaDecision {
	if tier == domain.SubscriptionTierPremium {
		return domain.QuotaAllow
	}
	if currentCount < 0 {
		currentCount = 0
	}

	var limit int
	switch kind {
	case domain.QuotaKindFavorite:
		limit = limits.Favorites
	case domain.QuotaKindReservation:
		limit = limits.Reservations
	default:
		return domain.QuotaDeny
	}

	if currentCount < limit {
		return domain.QuotaAllow
	}
	return domain.QuotaDeny
}

// BuildQuotaSnapshot assembles the read model served to clients as an upgrade hint.
func BuildQuotaSnapshot(tier domain.SubscriptionTier, activeReservations, favorites int, limits domain.QuotaLimits) *domain.QuotaSnapshot {
	snap := &domain.QuotaSnapshot{
		Tier:                   tier,
		ActiveReservationCount: activeReservations,
		FavoriteCount:          favorites,
		CanReserve:             EvaluateQuota(tier, domain.QuotaKindReservation, activeReservations, limits) == domain.QuotaAllow,
		CanFavorite:            EvaluateQuota(tier, domain.QuotaKindFavorite, favorites, limits) == domain.QuotaAllow,
	}
	if tier != domain.SubscriptionTierPremium {
		l := limits
		snap.Limits = &l
	}
	return snap
}
