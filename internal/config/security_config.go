package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// EndpointSecurityConfig maps route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	"healthz": SecurityPublic,
	"metrics": SecurityPublic,

	"reservations.create":  SecurityAccess,
	"reservations.list":    SecurityAccess,
	"reservations.get":     SecurityAccess,
	"reservations.approve": SecurityAccess,
	"reservations.reject":  SecurityAccess,
	"reservations.cancel":  SecurityAccess,

	"bookings.create":   SecurityAccess,
	"bookings.list":     SecurityAccess,
	"bookings.get":      SecurityAccess,
	"bookings.cancel":   SecurityAccess,
	"bookings.complete": SecurityAccess,

	"escrows.list":    SecurityAccess,
	"escrows.get":     SecurityAccess,
	"escrows.accept":  SecurityAccess,
	"escrows.decline": SecurityAccess,

	"quota.get":        SecurityAccess,
	"favorites.add":    SecurityAccess,
	"favorites.remove": SecurityAccess,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
