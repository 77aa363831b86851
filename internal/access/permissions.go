package access

import (
	"context"
	"fmt"

	"github.com/AlxM1/aelo/internal/domain"
	"github.com/google/uuid"
)

type Permission string

const (
	PermRead           Permission = "read"
	PermCreate         Permission = "create"
	PermUpdate         Permission = "update"
	PermDelete         Permission = "delete"
	PermManageUsers    Permission = "manage_users"
	PermManageSettings Permission = "manage_settings"
)

var Permissions = []Permission{
	PermRead,
	PermCreate,
	PermUpdate,
	PermDelete,
	PermManageUsers,
	PermManageSettings,
}

var grants = map[domain.Role]map[Permission]bool{
	domain.RoleEditor: {
		PermRead:   true,
		PermCreate: true,
		PermUpdate: true,
	},
	domain.RoleAdmin: {
		PermRead:           true,
		PermCreate:         true,
		PermUpdate:         true,
		PermDelete:         true,
		PermManageSettings: true,
	},
	domain.RoleSuperAdmin: {
		PermRead:           true,
		PermCreate:         true,
		PermUpdate:         true,
		PermDelete:         true,
		PermManageUsers:    true,
		PermManageSettings: true,
	},
}

// Granted is the one lookup into the role/permission table.
// Unknown roles are granted nothing.
func Granted(role domain.Role, p Permission) bool {
	return grants[role][p]
}

// Session is an authenticated admin.
type Session struct {
	UserID uuid.UUID   `json:"user_id"`
	Role   domain.Role `json:"role"`
	Name   string      `json:"name"`
	Email  string      `json:"email"`
}

func CheckPermission(s *Session, p Permission) bool {
	if s == nil {
		return false
	}
	return Granted(s.Role, p)
}

// RequirePermission fails with ErrUnauthorized without a session and with
// ErrForbidden when the role lacks p.
func RequirePermission(s *Session, p Permission) error {
	if s == nil {
		return domain.ErrUnauthorized
	}
	if !Granted(s.Role, p) {
		return fmt.Errorf("%w: role %s lacks %s", domain.ErrForbidden, s.Role, p)
	}
	return nil
}

// RequireAtLeast checks the role tier rather than a single permission.
func RequireAtLeast(s *Session, min domain.Role) error {
	if s == nil {
		return domain.ErrUnauthorized
	}
	if !s.Role.AtLeast(min) {
		return fmt.Errorf("%w: requires %s", domain.ErrForbidden, min)
	}
	return nil
}

// CanListUsers needs read and at least the ADMIN tier.
func CanListUsers(s *Session) error {
	if err := RequirePermission(s, PermRead); err != nil {
		return err
	}
	return RequireAtLeast(s, domain.RoleAdmin)
}

func CanManageUsers(s *Session) error {
	return RequirePermission(s, PermManageUsers)
}

// CanDeleteUser adds the self-deletion guard on top of CanManageUsers.
// No role may delete its own account.
func CanDeleteUser(s *Session, target uuid.UUID) error {
	if err := CanManageUsers(s); err != nil {
		return err
	}
	if s.UserID == target {
		return domain.ErrSelfDeletion
	}
	return nil
}

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns nil when ctx carries no session.
func SessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}
