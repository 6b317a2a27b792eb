package domain

import "github.com/google/uuid"

// Property is owned by the catalog; this service only reads it.
type Property struct {
	ID           uuid.UUID    `json:"id"`
	LandlordID   uuid.UUID    `json:"landlord_id"`
	Title        string       `json:"title"`
	RentAmount   int64        `json:"rent_amount"`
	PaymentRules PaymentRules `json:"payment_rules"`
	IsAvailable  bool         `json:"is_available"`
}

type PaymentRules struct {
	AllowReservations bool  `json:"allow_reservations"`
	EnableDownpayment bool  `json:"enable_downpayment"`
	DownpaymentAmount int64 `json:"downpayment_amount"`
}
