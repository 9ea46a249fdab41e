package types

import (
	"strings"

	"github.com/google/uuid"
)

const (
	// RoleSubscriber is the lowest-privilege role; logins by actors holding
	// only this role are not recorded.
	RoleSubscriber = "subscriber"
	// RoleAdministrator marks actors eligible for presence ticks.
	RoleAdministrator = "administrator"
)

// ActorRef identifies who initiated an action along with the role set the
// host platform reported for them.
type ActorRef struct {
	ID    uuid.UUID
	Roles []string
}

// IsZero reports whether the reference carries no actor.
func (a ActorRef) IsZero() bool {
	return a.ID == uuid.Nil
}

// HasRole reports whether the actor holds the provided role.
func (a ActorRef) HasRole(role string) bool {
	return HasRole(a.Roles, role)
}

// IsAdministrator reports whether the actor holds the administrator role.
func (a ActorRef) IsAdministrator() bool {
	return a.HasRole(RoleAdministrator)
}

// HasRole reports whether roles contains role, ignoring case and padding.
func HasRole(roles []string, role string) bool {
	role = normalizeRole(role)
	if role == "" {
		return false
	}
	for _, candidate := range roles {
		if normalizeRole(candidate) == role {
			return true
		}
	}
	return false
}

// NormalizeRoles lower-cases, trims and de-duplicates a role set.
func NormalizeRoles(roles []string) []string {
	if len(roles) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		role = normalizeRole(role)
		if role == "" {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
