// config/security_config.go
package config

import "github.com/barneeyyu/library-server/internal/domain"

type SecurityLevel int

const (
	SecurityPublic    SecurityLevel = iota // No authentication
	SecurityMember                         // Any signed-in borrower
	SecurityLibrarian                      // Librarian role required
)

// RouteSecurityConfig maps route names to their required security level.
// Routes missing from the map require SecurityMember.
var RouteSecurityConfig = map[string]SecurityLevel{
	"healthz": SecurityPublic,

	"borrow":        SecurityMember,
	"return":        SecurityMember,
	"my-records":    SecurityMember,
	"current-loans": SecurityMember,
	"borrow-limits": SecurityMember,

	"overdue-loans": SecurityLibrarian,
	"send-due-soon": SecurityLibrarian,
}

// RouteSecurity returns the level required for a route.
func RouteSecurity(route string) SecurityLevel {
	if level, ok := RouteSecurityConfig[route]; ok {
		return level
	}
	return SecurityMember
}

// Allows reports whether a caller with role may use a route at level.
func (l SecurityLevel) Allows(role domain.Role) bool {
	switch l {
	case SecurityPublic, SecurityMember:
		return true
	case SecurityLibrarian:
		return role == domain.RoleLibrarian
	}
	return false
}
