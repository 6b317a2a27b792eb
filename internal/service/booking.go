package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dormhub-backend/internal/domain"
	"dormhub-backend/internal/logger"
	"dormhub-backend/internal/metrics"
	"dormhub-backend/internal/repository"
	"dormhub-backend/internal/utils"

	"github.com/google/uuid"
)

const defaultCancelReason = "Cancelled by tenant"

type bookingService struct {
	bookings     repository.BookingRepository
	escrows      repository.EscrowRepository
	reservations repository.ReservationRepository
	properties   repository.PropertyCatalog
	now          func() time.Time
}

func NewBookingService(
	bookings repository.BookingRepository,
	escrows repository.EscrowRepository,
	reservations repository.ReservationRepository,
	properties repository.PropertyCatalog,
	opts ...Option,
) BookingService {
	o := buildOptions(opts)
	return &bookingService{
		bookings:     bookings,
		escrows:      escrows,
		reservations: reservations,
		properties:   properties,
		now:          o.now,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, caller *domain.Caller, req CreateBookingRequest) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.CreateBooking", "propertyID", req.PropertyID, "paymentType", req.PaymentType)

	if err := requireTenant(caller); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if req.DurationMonths <= 0 {
		return nil, fmt.Errorf("%w: duration_months must be positive", domain.ErrInvalidArgument)
	}
	if !req.MoveInDate.After(now) {
		return nil, fmt.Errorf("%w: move_in_date must be in the future", domain.ErrInvalidArgument)
	}

	property, err := s.properties.GetProperty(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if !property.IsAvailable {
		return nil, domain.ErrPropertyUnavailable
	}

	if req.ReservationID != nil {
		if err := s.checkReservation(ctx, caller, *req.ReservationID, req.PropertyID, now); err != nil {
			return nil, err
		}
	}

	live, err := s.bookings.HasLiveBooking(ctx, caller.UserID, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if live {
		return nil, domain.ErrDuplicateBooking
	}

	plan, err := utils.ComputePaymentPlan(property, req.PaymentType)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidConfiguration) {
			logger.Error("Property payment rules are inconsistent", "propertyID", property.ID,
				"rentAmount", property.RentAmount, "downpaymentAmount", property.PaymentRules.DownpaymentAmount, "error", err)
		}
		return nil, err
	}

	booking := &domain.Booking{
		ID:               uuid.New(),
		PropertyID:       property.ID,
		TenantID:         caller.UserID,
		LandlordID:       property.LandlordID,
		ReservationID:    req.ReservationID,
		Status:           domain.BookingStatusConfirmed,
		PaymentType:      plan.PlanUsed,
		RentAmount:       property.RentAmount,
		AmountPaid:       plan.AmountNow,
		RemainingBalance: plan.RemainingBalance,
		MoveInDate:       req.MoveInDate.UTC(),
		DurationMonths:   req.DurationMonths,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	escrow := &domain.EscrowTransaction{
		ID:         uuid.New(),
		BookingID:  booking.ID,
		PropertyID: booking.PropertyID,
		LandlordID: booking.LandlordID,
		TenantID:   booking.TenantID,
		Amount:     plan.AmountNow,
		Status:     domain.EscrowStatusHeld,
		HeldDate:   now,
	}

	if err := s.bookings.CreateWithEscrow(ctx, booking, escrow); err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err, "propertyID", req.PropertyID)
		return nil, err
	}
	booking.Escrow = escrow

	metrics.BookingsCreated.WithLabelValues(string(plan.PlanUsed)).Inc()
	metrics.EscrowTransitions.WithLabelValues(string(domain.EscrowStatusHeld)).Inc()
	logger.ExitMethod("bookingService.CreateBooking", "bookingID", booking.ID, "escrowID", escrow.ID, "amountPaid", booking.AmountPaid)
	return booking, nil
}

// checkReservation validates a reservation the tenant claims to be booking
// from. The reservation itself is never modified.
func (s *bookingService) checkReservation(ctx context.Context, caller *domain.Caller, reservationID, propertyID uuid.UUID, now time.Time) error {
	res, err := s.reservations.GetByID(ctx, reservationID)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: reservation %s not found", domain.ErrInvalidArgument, reservationID)
	}
	if err != nil {
		return err
	}
	if res.TenantID != caller.UserID {
		return domain.ErrNotAuthorized
	}
	if res.PropertyID != propertyID {
		return fmt.Errorf("%w: reservation is for a different property", domain.ErrInvalidArgument)
	}
	switch res.EffectiveStatus(now) {
	case domain.ReservationStatusApproved:
		return nil
	case domain.ReservationStatusCompleted:
		return domain.ErrDuplicateBooking
	default:
		return domain.ErrInvalidTransition
	}
}

func (s *bookingService) CancelBooking(ctx context.Context, caller *domain.Caller, id uuid.UUID, reason string) (*domain.Booking, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.TenantID != caller.UserID {
		return nil, domain.ErrNotAuthorized
	}
	if booking.Status != domain.BookingStatusConfirmed || booking.Escrow == nil {
		return nil, domain.ErrInvalidTransition
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultCancelReason
	}

	escrow, err := s.escrows.Finalize(ctx, booking.Escrow.ID, domain.EscrowStatusRefunded, &reason,
		domain.BookingStatusCancelled, s.now().UTC())
	if err != nil {
		return nil, err
	}

	metrics.EscrowTransitions.WithLabelValues(string(domain.EscrowStatusRefunded)).Inc()
	logger.Info("Booking cancelled by tenant", "bookingID", id, "escrowID", escrow.ID)
	booking.Status = domain.BookingStatusCancelled
	booking.UpdatedAt = *escrow.RefundedDate
	booking.Escrow = escrow
	return booking, nil
}

func (s *bookingService) CompleteBooking(ctx context.Context, caller *domain.Caller, id uuid.UUID) (*domain.Booking, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.LandlordID != caller.UserID {
		return nil, domain.ErrNotAuthorized
	}
	if booking.Status != domain.BookingStatusActive {
		return nil, domain.ErrInvalidTransition
	}

	completed, err := s.bookings.Complete(ctx, id, s.now().UTC())
	if err != nil {
		return nil, err
	}
	completed.Escrow = booking.Escrow
	logger.Info("Booking completed", "bookingID", id)
	return completed, nil
}

func (s *bookingService) GetBooking(ctx context.Context, caller *domain.Caller, id uuid.UUID) (*domain.Booking, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(caller, booking.TenantID, booking.LandlordID) {
		return nil, domain.ErrNotAuthorized
	}
	return booking, nil
}

func (s *bookingService) ListBookings(ctx context.Context, caller *domain.Caller, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	if err := requireCaller(caller); err != nil {
		return nil, 0, err
	}
	return s.bookings.List(ctx, scopeFilter(caller, status, page, pageSize))
}
