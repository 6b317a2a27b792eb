package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventReservationCreated   EventType = "reservation.created"
	EventReservationApproved  EventType = "reservation.approved"
	EventReservationRejected  EventType = "reservation.rejected"
	EventReservationCancelled EventType = "reservation.cancelled"
	EventReservationExpired   EventType = "reservation.expired"
	EventBookingCreated       EventType = "booking.created"
	EventEscrowReleased       EventType = "escrow.released"
	EventEscrowRefunded       EventType = "escrow.refunded"
)

// Event is handed to the notification collaborator through the outbox.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Type       EventType         `json:"type"`
	EntityID   uuid.UUID         `json:"entity_id"`
	TenantID   uuid.UUID         `json:"tenant_id"`
	LandlordID uuid.UUID         `json:"landlord_id"`
	PropertyID uuid.UUID         `json:"property_id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func NewReservationEvent(t EventType, r *Reservation, at time.Time) *Event {
	return &Event{
		ID:         uuid.New(),
		Type:       t,
		EntityID:   r.ID,
		TenantID:   r.TenantID,
		LandlordID: r.LandlordID,
		PropertyID: r.PropertyID,
		OccurredAt: at.UTC(),
	}
}

func NewBookingEvent(t EventType, b *Booking, at time.Time) *Event {
	return &Event{
		ID:         uuid.New(),
		Type:       t,
		EntityID:   b.ID,
		TenantID:   b.TenantID,
		LandlordID: b.LandlordID,
		PropertyID: b.PropertyID,
		OccurredAt: at.UTC(),
		Attributes: map[string]string{
			"payment_type": string(b.PaymentType),
		},
	}
}

func NewEscrowEvent(t EventType, e *EscrowTransaction, at time.Time) *Event {
	ev := &Event{
		ID:         uuid.New(),
		Type:       t,
		EntityID:   e.ID,
		TenantID:   e.TenantID,
		LandlordID: e.LandlordID,
		PropertyID: e.PropertyID,
		OccurredAt: at.UTC(),
		Attributes: map[string]string{
			"booking_id": e.BookingID.String(),
		},
	}
	if e.RefundReason != nil {
		ev.Attributes["reason"] = *e.RefundReason
	}
	return ev
}
