package service_test

import (
	"context"
	"sync"
	"time"

	"dormhub-backend/internal/domain"
	"dormhub-backend/internal/repository"

	"github.com/google/uuid"
)

// memStore is an in-memory stand-in for the Postgres store that keeps the
// same conditional-update semantics under a single mutex.
type memStore struct {
	mu           sync.Mutex
	reservations map[uuid.UUID]domain.Reservation
	bookings     map[uuid.UUID]domain.Booking
	escrows      map[uuid.UUID]domain.EscrowTransaction
	events       []domain.EventType
}

func newMemStore() *memStore {
	return &memStore{
		reservations: map[uuid.UUID]domain.Reservation{},
		bookings:     map[uuid.UUID]domain.Booking{},
		escrows:      map[uuid.UUID]domain.EscrowTransaction{},
	}
}

type memReservations struct{ *memStore }
type memEscrows struct{ *memStore }

func (s *memStore) liveBooking(tenantID, propertyID uuid.UUID) bool {
	for _, b := range s.bookings {
		if b.TenantID == tenantID && b.PropertyID == propertyID && b.Status.IsLive() {
			return true
		}
	}
	return false
}

func (s *memStore) expireLocked(now time.Time, match func(domain.Reservation) bool) []domain.Reservation {
	var out []domain.Reservation
	for id, r := range s.reservations {
		if match(r) && r.IsExpired(now) {
			r.Status = domain.ReservationStatusExpired
			r.UpdatedAt = now
			s.reservations[id] = r
			s.events = append(s.events, domain.EventReservationExpired)
			out = append(out, r)
		}
	}
	return out
}

func (s *memStore) countActiveLocked(tenantID uuid.UUID, now time.Time) int {
	n := 0
	for _, r := range s.reservations {
		if r.TenantID != tenantID || s.liveBooking(r.TenantID, r.PropertyID) {
			continue
		}
		if r.Status == domain.ReservationStatusApproved || (r.Status == domain.ReservationStatusPending && !r.IsExpired(now)) {
			n++
		}
	}
	return n
}

func (s memReservations) Create(ctx context.Context, r *domain.Reservation, now time.Time, check repository.CountCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked(now, func(x domain.Reservation) bool { return x.TenantID == r.TenantID })
	for _, x := range s.reservations {
		if x.TenantID == r.TenantID && x.PropertyID == r.PropertyID && x.Status.IsActive() {
			return domain.ErrDuplicateReservation
		}
	}
	if err := check(s.countActiveLocked(r.TenantID, now)); err != nil {
		return err
	}
	s.reservations[r.ID] = *r
	s.events = append(s.events, domain.EventReservationCreated)
	return nil
}

func (s memReservations) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	r.HasBooking = s.liveBooking(r.TenantID, r.PropertyID)
	return &r, nil
}

func (s memReservations) Transition(ctx context.Context, id uuid.UUID, to domain.ReservationStatus, reason string, now time.Time) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok || !r.Status.CanTransitionTo(to) || r.IsExpired(now) {
		return nil, domain.ErrInvalidTransition
	}
	r.Status = to
	r.RejectionReason = reason
	r.UpdatedAt = now
	s.reservations[id] = r
	s.events = append(s.events, to.Event())
	return &r, nil
}

func (s memReservations) Expire(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.expireLocked(now, func(x domain.Reservation) bool { return x.ID == id })
	if len(out) == 0 {
		return nil, domain.ErrInvalidTransition
	}
	return &out[0], nil
}

func (s memReservations) ExpireStale(ctx context.Context, now time.Time, limit int) ([]domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expireLocked(now, func(domain.Reservation) bool { return true }), nil
}

func (s memReservations) CountActiveByTenant(ctx context.Context, tenantID uuid.UUID, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countActiveLocked(tenantID, now), nil
}

func (s memReservations) List(ctx context.Context, f repository.ListFilter) ([]domain.Reservation, int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Reservation
	for _, r := range s.reservations {
		if f.TenantID != nil && r.TenantID != *f.TenantID {
			continue
		}
		if f.LandlordID != nil && r.LandlordID != *f.LandlordID {
			continue
		}
		r.HasBooking = s.liveBooking(r.TenantID, r.PropertyID)
		if f.Status != "" && string(r.EffectiveStatus(f.AsOf)) != f.Status {
			continue
		}
		out = append(out, r)
	}
	return out, int32(len(out)), nil
}

func (s memEscrows) GetByID(ctx context.Context, id uuid.UUID) (*domain.EscrowTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.escrows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (s memEscrows) Finalize(ctx context.Context, id uuid.UUID, to domain.EscrowStatus, reason *string, bookingStatus domain.BookingStatus, now time.Time) (*domain.EscrowTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.escrows[id]
	if !ok || e.Status != domain.EscrowStatusHeld {
		return nil, domain.ErrAlreadyFinalized
	}
	b := s.bookings[e.BookingID]
	if !b.Status.IsLive() {
		return nil, domain.ErrInvalidTransition
	}

	e.Status = to
	if to == domain.EscrowStatusReleased {
		e.ReleasedDate = &now
		s.events = append(s.events, domain.EventEscrowReleased)
	} else {
		e.RefundedDate = &now
		e.RefundReason = reason
		s.events = append(s.events, domain.EventEscrowRefunded)
	}
	b.Status = bookingStatus
	b.UpdatedAt = now
	s.escrows[id] = e
	s.bookings[b.ID] = b
	return &e, nil
}

func (s memEscrows) List(ctx context.Context, f repository.ListFilter) ([]domain.EscrowTransaction, int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.EscrowTransaction
	for _, e := range s.escrows {
		out = append(out, e)
	}
	return out, int32(len(out)), nil
}

// seedBooking stores a confirmed booking with a held escrow and returns both.
func (s *memStore) seedBooking(tenantID, landlordID, propertyID uuid.UUID, amount int64, now time.Time) (domain.Booking, domain.EscrowTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := domain.Booking{
		ID:          uuid.New(),
		PropertyID:  propertyID,
		TenantID:    tenantID,
		LandlordID:  landlordID,
		Status:      domain.BookingStatusConfirmed,
		PaymentType: domain.PaymentTypeFull,
		RentAmount:  amount,
		AmountPaid:  amount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	e := domain.EscrowTransaction{
		ID:         uuid.New(),
		BookingID:  b.ID,
		PropertyID: propertyID,
		LandlordID: landlordID,
		TenantID:   tenantID,
		Amount:     amount,
		Status:     domain.EscrowStatusHeld,
		HeldDate:   now,
	}
	s.bookings[b.ID] = b
	s.escrows[e.ID] = e
	return b, e
}
