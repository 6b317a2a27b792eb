package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusApproved  ReservationStatus = "approved"
	ReservationStatusRejected  ReservationStatus = "rejected"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusExpired   ReservationStatus = "expired"
	// ReservationStatusCompleted is never stored. It is reported for an active
	// reservation once a live booking exists for the same tenant and property.
	ReservationStatusCompleted ReservationStatus = "completed"
)

// ReservationHoldDuration is how long a pending reservation holds a property.
const ReservationHoldDuration = 48 * time.Hour

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationStatusPending: {
		ReservationStatusApproved,
		ReservationStatusRejected,
		ReservationStatusCancelled,
		ReservationStatusExpired,
	},
	ReservationStatusApproved: {
		ReservationStatusCancelled,
	},
}

// Event names the notification emitted when a reservation enters s.
func (s ReservationStatus) Event() EventType {
	switch s {
	case ReservationStatusPending:
		return EventReservationCreated
	case ReservationStatusApproved:
		return EventReservationApproved
	case ReservationStatusRejected:
		return EventReservationRejected
	case ReservationStatusCancelled:
		return EventReservationCancelled
	case ReservationStatusExpired:
		return EventReservationExpired
	}
	return ""
}

// IsActive reports whether the stored status still holds the property.
func (s ReservationStatus) IsActive() bool {
	return s == ReservationStatusPending || s == ReservationStatusApproved
}

func (s ReservationStatus) IsTerminal() bool {
	switch s {
	case ReservationStatusRejected, ReservationStatusCancelled, ReservationStatusExpired:
		return true
	}
	return false
}

func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ReservationSourcesFor lists the stored statuses from which next is reachable.
func ReservationSourcesFor(next ReservationStatus) []string {
	var sources []string
	for from, targets := range reservationTransitions {
		for _, to := range targets {
			if to == next {
				sources = append(sources, string(from))
			}
		}
	}
	return sources
}

type Reservation struct {
	ID              uuid.UUID         `json:"id"`
	PropertyID      uuid.UUID         `json:"property_id"`
	TenantID        uuid.UUID         `json:"tenant_id"`
	LandlordID      uuid.UUID         `json:"landlord_id"`
	Status          ReservationStatus `json:"status"`
	Message         string            `json:"message,omitempty"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	ExpiryDate      time.Time         `json:"expiry_date"`
	UpdatedAt       time.Time         `json:"updated_at"`
	// HasBooking is filled by queries that join live bookings on (tenant, property).
	HasBooking bool `json:"-"`
}

func NewReservation(tenantID uuid.UUID, property *Property, message string, now time.Time) *Reservation {
	now = now.UTC()
	return &Reservation{
		ID:         uuid.New(),
		PropertyID: property.ID,
		TenantID:   tenantID,
		LandlordID: property.LandlordID,
		Status:     ReservationStatusPending,
		Message:    message,
		CreatedAt:  now,
		ExpiryDate: now.Add(ReservationHoldDuration),
		UpdatedAt:  now,
	}
}

// IsExpired reports whether a pending hold has run past its expiry date.
func (r *Reservation) IsExpired(now time.Time) bool {
	return r.Status == ReservationStatusPending && now.After(r.ExpiryDate)
}

// EffectiveStatus is the status callers should see: lazily expired holds read
// as expired and active holds with a live booking read as completed.
func (r *Reservation) EffectiveStatus(now time.Time) ReservationStatus {
	if r.HasBooking && r.Status.IsActive() {
		return ReservationStatusCompleted
	}
	if r.IsExpired(now) {
		return ReservationStatusExpired
	}
	return r.Status
}

// Resolve rewrites Status to the effective status. Only used on read paths;
// stored status is changed exclusively through conditional transitions.
func (r *Reservation) Resolve(now time.Time) *Reservation {
	r.Status = r.EffectiveStatus(now)
	return r
}
