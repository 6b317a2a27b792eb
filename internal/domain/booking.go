package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusActive    BookingStatus = "active"
	BookingStatusRejected  BookingStatus = "rejected"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// IsLive reports whether the booking still occupies its (tenant, property) pair.
func (s BookingStatus) IsLive() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusActive:
		return true
	}
	return false
}

// LiveBookingStatuses is used by queries that join or count live bookings.
var LiveBookingStatuses = []string{
	string(BookingStatusPending),
	string(BookingStatusConfirmed),
	string(BookingStatusActive),
}

type PaymentType string

const (
	PaymentTypeFull        PaymentType = "full"
	PaymentTypeDownpayment PaymentType = "downpayment"
)

func (p PaymentType) Valid() bool {
	return p == PaymentTypeFull || p == PaymentTypeDownpayment
}

// Booking amounts are integer centavos.
type Booking struct {
	ID            uuid.UUID     `json:"id"`
	PropertyID    uuid.UUID     `json:"property_id"`
	TenantID      uuid.UUID     `json:"tenant_id"`
	LandlordID    uuid.UUID     `json:"landlord_id"`
	ReservationID *uuid.UUID    `json:"reservation_id,omitempty"`
	Status        BookingStatus `json:"status"`
	PaymentType   PaymentType   `json:"payment_type"`
	// Rent snapshot taken at creation; the payment split is checked against it.
	RentAmount       int64              `json:"rent_amount"`
	AmountPaid       int64              `json:"amount_paid"`
	RemainingBalance int64              `json:"remaining_balance"`
	MoveInDate       time.Time          `json:"move_in_date"`
	DurationMonths   int32              `json:"duration_months"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	Escrow           *EscrowTransaction `json:"escrow,omitempty"`
}
