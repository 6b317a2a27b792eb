package security

import (
	"errors"
	"strconv"
	"time"

	"dormhub-backend/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type for this endpoint")
)

type TokenType string

const (
	TokenTypeAccess TokenType = "access"
)

// UserClaims are issued by the identity service; this service only validates them.
type UserClaims struct {
	UserID string                  `json:"user_id"`
	Email  string                  `json:"email,omitempty"`
	Type   TokenType               `json:"type"`
	Role   domain.UserRole         `json:"role"`
	Tier   domain.SubscriptionTier `json:"tier"`
	jwt.RegisteredClaims
}

// Caller converts validated claims into the identity used by the services.
// Unknown tiers are treated as free.
func (c *UserClaims) Caller() (*domain.Caller, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	switch c.Role {
	case domain.UserRoleStudent, domain.UserRoleLandlord, domain.UserRoleAdmin:
	default:
		return nil, ErrInvalidToken
	}
	tier := c.Tier
	if tier != domain.SubscriptionTierPremium {
		tier = domain.SubscriptionTierFree
	}
	return &domain.Caller{UserID: id, Role: c.Role, Tier: tier}, nil
}

type TokenManager interface {
	GenerateAccessToken(user *domain.User, ttl time.Duration) (string, error)
	ValidateToken(tokenString string) (*UserClaims, error)
}

type tokenManager struct {
	secret []byte
}

func NewTokenManager(secret string) TokenManager {
	return &tokenManager{
		secret: []byte(secret),
	}
}

// GenerateAccessToken mirrors the identity service's tokens; used by tooling and tests.
func (m *tokenManager) GenerateAccessToken(user *domain.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := UserClaims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Type:   TokenTypeAccess,
		Role:   user.Role,
		Tier:   user.Tier,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "auth-service",
			Audience:  jwt.ClaimStrings{"api-access"},
			ID:        generateJTI(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	// Populate UserID from Subject if it was lost
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	return claims, nil
}

// Simple unique ID generator
func generateJTI() string {
	return strconv.FormatInt(time.Now().UnixNano(), 16)
}
