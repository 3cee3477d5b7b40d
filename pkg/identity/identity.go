// Package identity carries the authenticated caller through request handling.
//
// The identity is resolved once by the auth middleware from a validated
// bearer token and threaded explicitly via context.Context; nothing in the
// system relies on ambient mutable request state.
package identity

import (
	"context"

	"github.com/staffdesk/staffdesk-backend/pkg/errors"
)

// Roles known to the system.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// Identity represents the authenticated caller of the current request.
type Identity struct {
	// ID is the credential record's unique identifier
	ID string `json:"id"`

	// Email is the caller's login email
	Email string `json:"email"`

	// Role is either "admin" or "employee"
	Role string `json:"role"`

	// EmployeeID links an employee-role credential to its employee record
	EmployeeID *string `json:"employee_id,omitempty"`
}

// IsAdmin reports whether the caller holds the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// CanAccessEmployee reports whether the caller may read data belonging to
// the given employee record: admins always, employees only their own.
func (i *Identity) CanAccessEmployee(employeeID string) bool {
	if i == nil {
		return false
	}
	if i.Role == RoleAdmin {
		return true
	}
	return i.EmployeeID != nil && *i.EmployeeID == employeeID
}

type contextKey struct{}

// WithIdentity returns a context carrying the caller identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext retrieves the caller identity from the context.
func FromContext(ctx context.Context) (*Identity, error) {
	id, ok := ctx.Value(contextKey{}).(*Identity)
	if !ok || id == nil {
		return nil, errors.Unauthorized("not authenticated")
	}
	return id, nil
}
