package domain

import (
	"time"

	"github.com/google/uuid"
)

type EscrowStatus string

const (
	EscrowStatusHeld     EscrowStatus = "held"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusRefunded EscrowStatus = "refunded"
)

func (s EscrowStatus) IsFinal() bool {
	return s == EscrowStatusReleased || s == EscrowStatusRefunded
}

type EscrowTransaction struct {
	ID           uuid.UUID    `json:"id"`
	BookingID    uuid.UUID    `json:"booking_id"`
	PropertyID   uuid.UUID    `json:"property_id"`
	LandlordID   uuid.UUID    `json:"landlord_id"`
	TenantID     uuid.UUID    `json:"tenant_id"`
	Amount       int64        `json:"amount"`
	Status       EscrowStatus `json:"status"`
	HeldDate     time.Time    `json:"held_date"`
	ReleasedDate *time.Time   `json:"released_date,omitempty"`
	RefundedDate *time.Time   `json:"refunded_date,omitempty"`
	RefundReason *string      `json:"refund_reason,omitempty"`
}

type TimelineEntry struct {
	Status    EscrowStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Label     string       `json:"label"`
}

// Timeline is derived from the date columns, oldest first. The machine is
// terminal after one transition so it never has more than two entries.
func (e *EscrowTransaction) Timeline() []TimelineEntry {
	entries := []TimelineEntry{{
		Status:    EscrowStatusHeld,
		Timestamp: e.HeldDate,
		Label:     "Payment held in escrow",
	}}
	switch {
	case e.Status == EscrowStatusReleased && e.ReleasedDate != nil:
		entries = append(entries, TimelineEntry{
			Status:    EscrowStatusReleased,
			Timestamp: *e.ReleasedDate,
			Label:     "Released to landlord",
		})
	case e.Status == EscrowStatusRefunded && e.RefundedDate != nil:
		label := "Refunded to tenant"
		if e.RefundReason != nil && *e.RefundReason != "" {
			label += ": " + *e.RefundReason
		}
		entries = append(entries, TimelineEntry{
			Status:    EscrowStatusRefunded,
			Timestamp: *e.RefundedDate,
			Label:     label,
		})
	}
	return entries
}

// EscrowView is the read model returned to clients.
type EscrowView struct {
	EscrowTransaction
	Timeline []TimelineEntry `json:"timeline"`
}

func NewEscrowView(e *EscrowTransaction) *EscrowView {
	return &EscrowView{EscrowTransaction: *e, Timeline: e.Timeline()}
}
