package service

import (
	"context"
	"strings"
	"time"

	"dormhub-backend/internal/domain"
	"dormhub-backend/internal/logger"
	"dormhub-backend/internal/metrics"
	"dormhub-backend/internal/repository"

	"github.com/google/uuid"
)

type escrowService struct {
	escrows repository.EscrowRepository
	now     func() time.Time
}

func NewEscrowService(escrows repository.EscrowRepository, opts ...Option) EscrowService {
	o := buildOptions(opts)
	return &escrowService{escrows: escrows, now: o.now}
}

// AcceptEscrow releases the held funds to the landlord and starts occupancy.
func (s *escrowService) AcceptEscrow(ctx context.Context, caller *domain.Caller, id uuid.UUID) (*domain.EscrowView, error) {
	return s.finalize(ctx, caller, id, domain.EscrowStatusReleased, nil, domain.BookingStatusActive)
}

// DeclineEscrow refunds the tenant and rejects the booking. reason is required.
func (s *escrowService) DeclineEscrow(ctx context.Context, caller *domain.Caller, id uuid.UUID, reason string) (*domain.EscrowView, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ErrInvalidArgument
	}
	return s.finalize(ctx, caller, id, domain.EscrowStatusRefunded, &reason, domain.BookingStatusRejected)
}

func (s *escrowService) finalize(ctx context.Context, caller *domain.Caller, id uuid.UUID, to domain.EscrowStatus, reason *string, bookingStatus domain.BookingStatus) (*domain.EscrowView, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	current, err := s.escrows.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.LandlordID != caller.UserID {
		return nil, domain.ErrNotAuthorized
	}
	if current.Status.IsFinal() {
		return nil, domain.ErrAlreadyFinalized
	}

	// Finalize is the authority; the check above only saves a transaction.
	e, err := s.escrows.Finalize(ctx, id, to, reason, bookingStatus, s.now().UTC())
	if err != nil {
		logger.Warn("Escrow finalize refused", "escrowID", id, "to", to, "error", err)
		return nil, err
	}

	metrics.EscrowTransitions.WithLabelValues(string(to)).Inc()
	logger.Info("Escrow finalized", "escrowID", id, "bookingID", e.BookingID, "status", e.Status, "amount", e.Amount)
	return domain.NewEscrowView(e), nil
}

func (s *escrowService) GetEscrow(ctx context.Context, caller *domain.Caller, id uuid.UUID) (*domain.EscrowView, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	e, err := s.escrows.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(caller, e.TenantID, e.LandlordID) {
		return nil, domain.ErrNotAuthorized
	}
	return domain.NewEscrowView(e), nil
}

func (s *escrowService) ListEscrows(ctx context.Context, caller *domain.Caller, status string, page, pageSize int32) ([]domain.EscrowTransaction, int32, error) {
	if err := requireCaller(caller); err != nil {
		return nil, 0, err
	}
	return s.escrows.List(ctx, scopeFilter(caller, status, page, pageSize))
}
