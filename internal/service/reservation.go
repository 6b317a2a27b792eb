package service

import (
	"context"
	"errors"
	"time"

	"dormhub-backend/internal/domain"
	"dormhub-backend/internal/logger"
	"dormhub-backend/internal/metrics"
	"dormhub-backend/internal/repository"
	"dormhub-backend/internal/utils"

	"github.com/google/uuid"
)

type reservationService struct {
	reservations repository.ReservationRepository
	properties   repository.PropertyCatalog
	limits       domain.QuotaLimits
	now          func() time.Time
}

func NewReservationService(
	reservations repository.ReservationRepository,
	properties repository.PropertyCatalog,
	limits domain.QuotaLimits,
	opts ...Option,
) ReservationService {
	o := buildOptions(opts)
	return &reservationService{
		reservations: reservations,
		properties:   properties,
		limits:       limits,
		now:          o.now,
	}
}

func (s *reservationService) CreateReservation(ctx context.Context, caller *domain.Caller, propertyID uuid.UUID, message string) (*domain.Reservation, error) {
	if err := requireTenant(caller); err != nil {
		return nil, err
	}

	property, err := s.properties.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if !property.IsAvailable || !property.PaymentRules.AllowReservations {
		return nil, domain.ErrPropertyUnavailable
	}

	now := s.now().UTC()
	res := domain.NewReservation(caller.UserID, property, message, now)

	// The count is taken inside the insert transaction, after the tenant's
	// stale holds have been expired.
	err = s.reservations.Create(ctx, res, now, func(count int) error {
		if utils.EvaluateQuota(caller.Tier, domain.QuotaKindReservation, count, s.limits) == domain.QuotaDeny {
			metrics.QuotaDenials.WithLabelValues(string(domain.QuotaKindReservation)).Inc()
			return domain.ErrLimitReached
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrLimitReached) {
			logger.Info("Reservation quota reached", "tenantID", caller.UserID, "tier", caller.Tier)
		}
		return nil, err
	}

	metrics.ReservationTransitions.WithLabelValues(string(domain.ReservationStatusPending)).Inc()
	logger.Info("Reservation created", "reservationID", res.ID, "propertyID", propertyID, "expiresAt", res.ExpiryDate)
	return res, nil
}

func (s *reservationService) ApproveReservation(ctx context.Context, caller *domain.Caller, id uuid.UUID) (*domain.Reservation, error) {
	return s.landlordDecision(ctx, caller, id, domain.ReservationStatusApproved, "")
}

func (s *reservationService) RejectReservation(ctx context.Context, caller *domain.Caller, id uuid.UUID, reason string) (*domain.Reservation, error) {
	return s.landlordDecision(ctx, caller, id, domain.ReservationStatusRejected, reason)
}

func (s *reservationService) landlordDecision(ctx context.Context, caller *domain.Caller, id uuid.UUID, to domain.ReservationStatus, reason string) (*domain.Reservation, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.LandlordID != caller.UserID {
		return nil, domain.ErrNotAuthorized
	}
	return s.transition(ctx, res, to, reason)
}

func (s *reservationService) CancelReservation(ctx context.Context, caller *domain.Caller, id uuid.UUID) (*domain.Reservation, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.TenantID != caller.UserID {
		return nil, domain.ErrNotAuthorized
	}
	return s.transition(ctx, res, domain.ReservationStatusCancelled, "")
}

// transition checks the effective status first so that lazily expired and
// completed holds are refused without a write, then lets the conditional
// update settle any race.
func (s *reservationService) transition(ctx context.Context, res *domain.Reservation, to domain.ReservationStatus, reason string) (*domain.Reservation, error) {
	now := s.now().UTC()
	current := res.EffectiveStatus(now)
	if !current.CanTransitionTo(to) {
		if current == domain.ReservationStatusExpired {
			s.persistExpiry(ctx, res.ID)
		}
		return nil, domain.ErrInvalidTransition
	}

	updated, err := s.reservations.Transition(ctx, res.ID, to, reason, now)
	if err != nil {
		return nil, err
	}
	metrics.ReservationTransitions.WithLabelValues(string(to)).Inc()
	logger.Info("Reservation transitioned", "reservationID", res.ID, "from", current, "to", to)
	return updated, nil
}

// ExpireReservation persists expiry of a pending hold past its expiry date.
// Any other hold yields ErrInvalidTransition.
func (s *reservationService) ExpireReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	res, err := s.reservations.Expire(ctx, id, s.now().UTC())
	if err != nil {
		return nil, err
	}
	metrics.ReservationTransitions.WithLabelValues(string(domain.ReservationStatusExpired)).Inc()
	logger.Info("Reservation expired", "reservationID", id)
	return res, nil
}

func (s *reservationService) ExpireStaleReservations(ctx context.Context, limit int) (int, error) {
	expired, err := s.reservations.ExpireStale(ctx, s.now().UTC(), limit)
	if err != nil {
		return 0, err
	}
	metrics.ReservationTransitions.WithLabelValues(string(domain.ReservationStatusExpired)).Add(float64(len(expired)))
	return len(expired), nil
}

// persistExpiry writes an expiry observed on a read path. Losing the race to
// the sweep or another reader is fine.
func (s *reservationService) persistExpiry(ctx context.Context, id uuid.UUID) {
	if _, err := s.ExpireReservation(ctx, id); err != nil && !errors.Is(err, domain.ErrInvalidTransition) {
		logger.Warn("Failed to persist lazy expiry", "reservationID", id, "error", err)
	}
}

func (s *reservationService) GetReservation(ctx context.Context, caller *domain.Caller, id uuid.UUID) (*domain.Reservation, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(caller, res.TenantID, res.LandlordID) {
		return nil, domain.ErrNotAuthorized
	}

	now := s.now().UTC()
	if res.IsExpired(now) && !res.HasBooking {
		s.persistExpiry(ctx, res.ID)
	}
	return res.Resolve(now), nil
}

func (s *reservationService) ListReservations(ctx context.Context, caller *domain.Caller, status string, page, pageSize int32) ([]domain.Reservation, int32, error) {
	if err := requireCaller(caller); err != nil {
		return nil, 0, err
	}
	now := s.now().UTC()
	f := scopeFilter(caller, status, page, pageSize)
	f.AsOf = now

	list, count, err := s.reservations.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	for i := range list {
		list[i].Resolve(now)
	}
	return list, count, nil
}
