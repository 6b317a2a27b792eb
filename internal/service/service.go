package service

import (
	"context"
	"time"

	"dormhub-backend/internal/domain"
	"dormhub-backend/internal/repository"

	"github.com/google/uuid"
)

type ReservationService interface {
	CreateReservation(ctx context.Context, caller *domain.Caller, propertyID uuid.UUID, message string) (*domain.Reservation, error)
	ApproveReservation(ctx context.Context, caller *domain.Caller, id uuid.UUID) (*domain.Reservation, error)
	RejectReservation(ctx context.Context, caller *domain.Caller, id uuid.UUID, reason string) (*domain.Reservation, error)
	CancelReservation(ctx context.Context, caller *domain.Caller, id uuid.UUID) (*domain.Reservation, error)
	// ExpireReservation is system triggered and carries no caller.
	ExpireReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	ExpireStaleReservations(ctx context.Context, limit int) (int, error)
	GetReservation(ctx context.Context, caller *domain.Caller, id uuid.UUID) (*domain.Reservation, error)
	ListReservations(ctx context.Context, caller *domain.Caller, status string, page, pageSize int32) ([]domain.Reservation, int32, error)
}

type CreateBookingRequest struct {
	PropertyID     uuid.UUID
	PaymentType    domain.PaymentType
	MoveInDate     time.Time
	DurationMonths int32
	ReservationID  *uuid.UUID
}

type BookingService interface {
	CreateBooking(ctx context.Context, caller *domain.Caller, req CreateBookingRequest) (*domain.Booking, error)
	CancelBooking(ctx context.Context, caller *domain.Caller, id uuid.UUID, reason string) (*domain.Booking, error)
	CompleteBooking(ctx context.Context, caller *domain.Caller, id uuid.UUID) (*domain.Booking, error)
	GetBooking(ctx context.Context, caller *domain.Caller, id uuid.UUID) (*domain.Booking, error)
	ListBookings(ctx context.Context, caller *domain.Caller, status string, page, pageSize int32) ([]domain.Booking, int32, error)
}

type EscrowService interface {
	AcceptEscrow(ctx context.Context, caller *domain.Caller, id uuid.UUID) (*domain.EscrowView, error)
	DeclineEscrow(ctx context.Context, caller *domain.Caller, id uuid.UUID, reason string) (*domain.EscrowView, error)
	GetEscrow(ctx context.Context, caller *domain.Caller, id uuid.UUID) (*domain.EscrowView, error)
	ListEscrows(ctx context.Context, caller *domain.Caller, status string, page, pageSize int32) ([]domain.EscrowTransaction, int32, error)
}

type QuotaService interface {
	GetQuota(ctx context.Context, caller *domain.Caller) (*domain.QuotaSnapshot, error)
	AddFavorite(ctx context.Context, caller *domain.Caller, propertyID uuid.UUID) error
	RemoveFavorite(ctx context.Context, caller *domain.Caller, propertyID uuid.UUID) error
}

// Option configures the services; used by tests to pin the clock.
type Option func(*options)

type options struct {
	now func() time.Time
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func requireCaller(c *domain.Caller) error {
	if c == nil || c.UserID == uuid.Nil {
		return domain.ErrNotAuthenticated
	}
	return nil
}

// requireTenant admits students only; landlords and admins do not reserve or book.
func requireTenant(c *domain.Caller) error {
	if err := requireCaller(c); err != nil {
		return err
	}
	if c.Role != domain.UserRoleStudent {
		return domain.ErrNotAuthorized
	}
	return nil
}

// canView reports whether c is a party to a record or an admin.
func canView(c *domain.Caller, tenantID, landlordID uuid.UUID) bool {
	return c.IsAdmin() || c.UserID == tenantID || c.UserID == landlordID
}

// scopeFilter restricts list queries to what the caller's role may see.
func scopeFilter(c *domain.Caller, status string, page, pageSize int32) repository.ListFilter {
	f := repository.ListFilter{Status: status, Page: page, PageSize: pageSize}
	switch c.Role {
	case domain.UserRoleAdmin:
	case domain.UserRoleLandlord:
		id := c.UserID
		f.LandlordID = &id
	default:
		id := c.UserID
		f.TenantID = &id
	}
	return f
}
