package http

import (
	"context"

	"dormhub-backend/internal/domain"
	"dormhub-backend/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockReservationService struct{ mock.Mock }

func (m *MockReservationService) CreateReservation(ctx context.Context, caller *domain.Caller, propertyID uuid.UUID, message string) (*domain.Reservation, error) {
	args := m.Called(ctx, caller, propertyID, message)
	res, _ := args.Get(0).(*domain.Reservation)
	return res, args.Error(1)
}

func (m *MockReservationService) ApproveReservation(ctx context.Context, caller *domain.Caller, id uuid.UUID) (*domain.Reservation, error) {
	args := m.Called(ctx, caller, id)
	res, _ := args.Get(0).(*domain.Reservation)
	return res, args.Error(1)
}

func (m *MockReservationService) RejectReservation(ctx context.Context, caller *domain.Caller, id uuid.UUID, reason string) (*domain.Reservation, error) {
	args := m.Called(ctx, caller, id, reason)
	res, _ := args.Get(0).(*domain.Reservation)
	return res, args.Error(1)
}

func (m *MockReservationService) CancelReservation(ctx context.Context, caller *domain.Caller, id uuid.UUID) (*domain.Reservation, error) {
	args := m.Called(ctx, caller, id)
	res, _ := args.Get(0).(*domain.Reservation)
	return res, args.Error(1)
}

func (m *MockReservationService) ExpireReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*domain.Reservation)
	return res, args.Error(1)
}

func (m *MockReservationService) ExpireStaleReservations(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

func (m *MockReservationService) GetReservation(ctx context.Context, caller *domain.Caller, id uuid.UUID) (*domain.Reservation, error) {
	args := m.Called(ctx, caller, id)
	res, _ := args.Get(0).(*domain.Reservation)
	return res, args.Error(1)
}

func (m *MockReservationService) ListReservations(ctx context.Context, caller *domain.Caller, status string, page, pageSize int32) ([]domain.Reservation, int32, error) {
	args := m.Called(ctx, caller, status, page, pageSize)
	res, _ := args.Get(0).([]domain.Reservation)
	return res, args.Get(1).(int32), args.Error(2)
}

type MockBookingService struct{ mock.Mock }

func (m *MockBookingService) CreateBooking(ctx context.Context, caller *domain.Caller, req service.CreateBookingRequest) (*domain.Booking, error) {
	args := m.Called(ctx, caller, req)
	b, _ := args.Get(0).(*domain.Booking)
	return b, args.Error(1)
}

func (m *MockBookingService) CancelBooking(ctx context.Context, caller *domain.Caller, id uuid.UUID, reason string) (*domain.Booking, error) {
	args := m.Called(ctx, caller, id, reason)
	b, _ := args.Get(0).(*domain.Booking)
	return b, args.Error(1)
}

func (m *MockBookingService) CompleteBooking(ctx context.Context, caller *domain.Caller, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, caller, id)
	b, _ := args.Get(0).(*domain.Booking)
	return b, args.Error(1)
}

func (m *MockBookingService) GetBooking(ctx context.Context, caller *domain.Caller, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, caller, id)
	b, _ := args.Get(0).(*domain.Booking)
	return b, args.Error(1)
}

func (m *MockBookingService) ListBookings(ctx context.Context, caller *domain.Caller, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	args := m.Called(ctx, caller, status, page, pageSize)
	b, _ := args.Get(0).([]domain.Booking)
	return b, args.Get(1).(int32), args.Error(2)
}

type MockEscrowService struct{ mock.Mock }

func (m *MockEscrowService) AcceptEscrow(ctx context.Context, caller *domain.Caller, id uuid.UUID) (*domain.EscrowView, error) {
	args := m.Called(ctx, caller, id)
	e, _ := args.Get(0).(*domain.EscrowView)
	return e, args.Error(1)
}

func (m *MockEscrowService) DeclineEscrow(ctx context.Context, caller *domain.Caller, id uuid.UUID, reason string) (*domain.EscrowView, error) {
	args := m.Called(ctx, caller, id, reason)
	e, _ := args.Get(0).(*domain.EscrowView)
	return e, args.Error(1)
}

func (m *MockEscrowService) GetEscrow(ctx context.Context, caller *domain.Caller, id uuid.UUID) (*domain.EscrowView, error) {
	args := m.Called(ctx, caller, id)
	e, _ := args.Get(0).(*domain.EscrowView)
	return e, args.Error(1)
}

func (m *MockEscrowService) ListEscrows(ctx context.Context, caller *domain.Caller, status string, page, pageSize int32) ([]domain.EscrowTransaction, int32, error) {
	args := m.Called(ctx, caller, status, page, pageSize)
	e, _ := args.Get(0).([]domain.EscrowTransaction)
	return e, args.Get(1).(int32), args.Error(2)
}

type MockQuotaService struct{ mock.Mock }

func (m *MockQuotaService) GetQuota(ctx context.Context, caller *domain.Caller) (*domain.QuotaSnapshot, error) {
	args := m.Called(ctx, caller)
	s, _ := args.Get(0).(*domain.QuotaSnapshot)
	return s, args.Error(1)
}

func (m *MockQuotaService) AddFavorite(ctx context.Context, caller *domain.Caller, propertyID uuid.UUID) error {
	return m.Called(ctx, caller, propertyID).Error(0)
}

func (m *MockQuotaService) RemoveFavorite(ctx context.Context, caller *domain.Caller, propertyID uuid.UUID) error {
	return m.Called(ctx, caller, propertyID).Error(0)
}
