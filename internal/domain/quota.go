package domain

type QuotaKind string

const (
	QuotaKindFavorite    QuotaKind = "favorite"
	QuotaKindReservation QuotaKind = "reservation"
)

type QuotaDecision string

const (
	QuotaAllow QuotaDecision = "allow"
	QuotaDeny  QuotaDecision = "limit_reached"
)

// QuotaLimits are the free tier ceilings. Premium is unlimited.
type QuotaLimits struct {
	Favorites    int `json:"favorites"`
	Reservations int `json:"reservations"`
}

var DefaultQuotaLimits = QuotaLimits{Favorites: 3, Reservations: 2}

// QuotaSnapshot is recomputed from storage on every request, never cached.
type QuotaSnapshot struct {
	Tier                   SubscriptionTier `json:"tier"`
	ActiveReservationCount int              `json:"active_reservations"`
	FavoriteCount          int              `json:"favorites"`
	Limits                 *QuotaLimits     `json:"limits,omitempty"`
	CanReserve             bool             `json:"can_reserve"`
	CanFavorite            bool             `json:"can_favorite"`
}
