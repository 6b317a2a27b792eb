package service

import (
	"context"
	"time"

	"dormhub-backend/internal/domain"
	"dormhub-backend/internal/metrics"
	"dormhub-backend/internal/repository"
	"dormhub-backend/internal/utils"

	"github.com/google/uuid"
)

type quotaService struct {
	reservations repository.ReservationRepository
	favorites    repository.FavoriteRepository
	properties   repository.PropertyCatalog
	limits       domain.QuotaLimits
	now          func() time.Time
}

func NewQuotaService(
	reservations repository.ReservationRepository,
	favorites repository.FavoriteRepository,
	properties repository.PropertyCatalog,
	limits domain.QuotaLimits,
	opts ...Option,
) QuotaService {
	o := buildOptions(opts)
	return &quotaService{
		reservations: reservations,
		favorites:    favorites,
		properties:   properties,
		limits:       limits,
		now:          o.now,
	}
}

// GetQuota recomputes the caller's counts from storage on every call.
func (s *quotaService) GetQuota(ctx context.Context, caller *domain.Caller) (*domain.QuotaSnapshot, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	active, err := s.reservations.CountActiveByTenant(ctx, caller.UserID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	favorites, err := s.favorites.Count(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	return utils.BuildQuotaSnapshot(caller.Tier, active, favorites, s.limits), nil
}

func (s *quotaService) AddFavorite(ctx context.Context, caller *domain.Caller, propertyID uuid.UUID) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if _, err := s.properties.GetProperty(ctx, propertyID); err != nil {
		return err
	}
	return s.favorites.Add(ctx, caller.UserID, propertyID, func(count int) error {
		if utils.EvaluateQuota(caller.Tier, domain.QuotaKindFavorite, count, s.limits) == domain.QuotaDeny {
			metrics.QuotaDenials.WithLabelValues(string(domain.QuotaKindFavorite)).Inc()
			return domain.ErrLimitReached
		}
		return nil
	})
}

func (s *quotaService) RemoveFavorite(ctx context.Context, caller *domain.Caller, propertyID uuid.UUID) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	return s.favorites.Remove(ctx, caller.UserID, propertyID)
}
