package domain

import "github.com/google/uuid"

type UserRole string

const (
	UserRoleStudent  UserRole = "student"
	UserRoleLandlord UserRole = "landlord"
	UserRoleAdmin    UserRole = "admin"
)

type SubscriptionTier string

const (
	SubscriptionTierFree    SubscriptionTier = "free"
	SubscriptionTierPremium SubscriptionTier = "premium"
)

type User struct {
	ID    uuid.UUID        `json:"id"`
	Name  string           `json:"name"`
	Email string           `json:"email"`
	Role  UserRole         `json:"role"`
	Tier  SubscriptionTier `json:"tier"`
}

// Caller is the authenticated identity attached to every operation.
type Caller struct {
	UserID uuid.UUID
	Role   UserRole
	Tier   SubscriptionTier
}

func (c *Caller) IsAdmin() bool {
	return c != nil && c.Role == UserRoleAdmin
}
