package service_test

import (
	"context"
	"time"

	"dormhub-backend/internal/domain"
	"dormhub-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockPropertyCatalog struct {
	mock.Mock
}

func (m *MockPropertyCatalog) GetProperty(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}

// MockReservationRepo.Create returns (activeCount, err); when err is nil the
// check callback is run against activeCount like the real transaction does.
type MockReservationRepo struct {
	mock.Mock
}

func (m *MockReservationRepo) Create(ctx context.Context, r *domain.Reservation, now time.Time, check repository.CountCheck) error {
	args := m.Called(ctx, r, now)
	if err := args.Error(1); err != nil {
		return err
	}
	return check(args.Int(0))
}
func (m *MockReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) Transition(ctx context.Context, id uuid.UUID, to domain.ReservationStatus, reason string, now time.Time) (*domain.Reservation, error) {
	args := m.Called(ctx, id, to, reason, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) Expire(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Reservation, error) {
	args := m.Called(ctx, id, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) ExpireStale(ctx context.Context, now time.Time, limit int) ([]domain.Reservation, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) CountActiveByTenant(ctx context.Context, tenantID uuid.UUID, now time.Time) (int, error) {
	args := m.Called(ctx, tenantID, now)
	return args.Int(0), args.Error(1)
}
func (m *MockReservationRepo) List(ctx context.Context, f repository.ListFilter) ([]domain.Reservation, int32, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.Reservation), args.Get(1).(int32), args.Error(2)
}

type MockBookingRepo struct {
	mock.Mock
}

func (m *MockBookingRepo) CreateWithEscrow(ctx context.Context, b *domain.Booking, e *domain.EscrowTransaction) error {
	args := m.Called(ctx, b, e)
	return args.Error(0)
}
func (m *MockBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) HasLiveBooking(ctx context.Context, tenantID, propertyID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, propertyID)
	return args.Bool(0), args.Error(1)
}
func (m *MockBookingRepo) Complete(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Booking, error) {
	args := m.Called(ctx, id, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) List(ctx context.Context, f repository.ListFilter) ([]domain.Booking, int32, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.Booking), args.Get(1).(int32), args.Error(2)
}

type MockEscrowRepo struct {
	mock.Mock
}

func (m *MockEscrowRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.EscrowTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EscrowTransaction), args.Error(1)
}
func (m *MockEscrowRepo) Finalize(ctx context.Context, id uuid.UUID, to domain.EscrowStatus, reason *string, bookingStatus domain.BookingStatus, now time.Time) (*domain.EscrowTransaction, error) {
	args := m.Called(ctx, id, to, reason, bookingStatus, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EscrowTransaction), args.Error(1)
}
func (m *MockEscrowRepo) List(ctx context.Context, f repository.ListFilter) ([]domain.EscrowTransaction, int32, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.EscrowTransaction), args.Get(1).(int32), args.Error(2)
}

// MockFavoriteRepo.Add returns (currentCount, err) and runs check like MockReservationRepo.Create.
type MockFavoriteRepo struct {
	mock.Mock
}

func (m *MockFavoriteRepo) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}
func (m *MockFavoriteRepo) Add(ctx context.Context, userID, propertyID uuid.UUID, check repository.CountCheck) error {
	args := m.Called(ctx, userID, propertyID)
	if err := args.Error(1); err != nil {
		return err
	}
	return check(args.Int(0))
}
func (m *MockFavoriteRepo) Remove(ctx context.Context, userID, propertyID uuid.UUID) error {
	args := m.Called(ctx, userID, propertyID)
	return args.Error(0)
}
