package service

import (
	"github.com/Baaaki/buy-sell-store/internal/models"
	"github.com/google/uuid"
)

// Principal is the authenticated caller. Handlers pass it explicitly into
// every operation that depends on who is acting.
type Principal struct {
	UserID    uuid.UUID
	Login     string
	Role      models.Role
	SessionID string
}

func (p Principal) Authenticated() bool {
	return p.UserID != uuid.Nil && p.SessionID != ""
}

// requireRole fails with ErrForbiddenRole unless p holds one of roles.
func (p Principal) requireRole(action string, roles ...models.Role) error {
	for _, r := range roles {
		if p.Role == r {
			return nil
		}
	}
	return newError(ErrForbiddenRole, "role %s is not suitable to %s", p.Role, action)
}
