package repository

import (
	"context"
	"time"

	"dormhub-backend/internal/domain"

	"github.com/google/uuid"
)

// ListFilter scopes list queries. Nil party ids mean "any" (admin view).
type ListFilter struct {
	TenantID   *uuid.UUID
	LandlordID *uuid.UUID
	Status     string
	Page       int32
	PageSize   int32
	// AsOf is the instant derived reservation statuses are evaluated at.
	AsOf time.Time
}

// CountCheck is evaluated inside the write transaction with the count that
// transaction observed. Returning an error aborts the write.
type CountCheck func(currentCount int) error

type PropertyCatalog interface {
	GetProperty(ctx context.Context, id uuid.UUID) (*domain.Property, error)
}

type ReservationRepository interface {
	// Create serializes on the tenant, expires the tenant's stale holds, runs
	// check against the active count and inserts r with its created event.
	Create(ctx context.Context, r *domain.Reservation, now time.Time, check CountCheck) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	// Transition moves r to the target status only if the stored status can
	// reach it and a pending hold has not run out. Returns ErrInvalidTransition otherwise.
	Transition(ctx context.Context, id uuid.UUID, to domain.ReservationStatus, reason string, now time.Time) (*domain.Reservation, error)
	// Expire persists a lazily observed expiry. Returns ErrInvalidTransition when the hold is not stale.
	Expire(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Reservation, error)
	ExpireStale(ctx context.Context, now time.Time, limit int) ([]domain.Reservation, error)
	CountActiveByTenant(ctx context.Context, tenantID uuid.UUID, now time.Time) (int, error)
	List(ctx context.Context, f ListFilter) ([]domain.Reservation, int32, error)
}

type BookingRepository interface {
	// CreateWithEscrow inserts the booking, its escrow and the booking.created
	// event in one transaction.
	CreateWithEscrow(ctx context.Context, b *domain.Booking, e *domain.EscrowTransaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	HasLiveBooking(ctx context.Context, tenantID, propertyID uuid.UUID) (bool, error)
	// Complete moves an active booking to completed.
	Complete(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Booking, error)
	List(ctx context.Context, f ListFilter) ([]domain.Booking, int32, error)
}

type EscrowRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.EscrowTransaction, error)
	// Finalize moves a held escrow to released or refunded and advances the
	// owning booking to bookingStatus in the same transaction. Exactly one
	// concurrent caller wins; the rest get ErrAlreadyFinalized.
	Finalize(ctx context.Context, id uuid.UUID, to domain.EscrowStatus, reason *string, bookingStatus domain.BookingStatus, now time.Time) (*domain.EscrowTransaction, error)
	List(ctx context.Context, f ListFilter) ([]domain.EscrowTransaction, int32, error)
}

type FavoriteRepository interface {
	Count(ctx context.Context, userID uuid.UUID) (int, error)
	// Add serializes on the user and runs check against the current count before inserting.
	Add(ctx context.Context, userID, propertyID uuid.UUID, check CountCheck) error
	Remove(ctx context.Context, userID, propertyID uuid.UUID) error
}

type OutboxMessage struct {
	ID         uuid.UUID
	RoutingKey string
	Payload    []byte
	Attempts   int
}

type OutboxRepository interface {
	Claim(ctx context.Context, limit int, staleAfter time.Duration) ([]OutboxMessage, error)
	MarkPublished(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, retryAfter time.Duration, reason string) error
}
