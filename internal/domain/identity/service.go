// Package identity resolves an authenticated session to a role and, for
// non-admins, the employee profile bound to it.
package identity

import (
	"context"
	"errors"
	"log/slog"

	"hrkyc/internal/domain/directory"
)

type Role string

const (
	// RoleAdmin comes straight off the identity's admin flag; no employee
	// lookup happens for admins.
	RoleAdmin Role = "admin"
	// RoleEmployee is a login bound to exactly one employee profile.
	RoleEmployee Role = "employee"
	// RoleUnlinked is a login with no matching profile yet. It is a valid
	// steady state, not an error; the client redirects to login.
	RoleUnlinked Role = "unlinked"
)

type Session struct {
	UserID  string
	Email   string
	IsAdmin bool
}

type Resolution struct {
	Role     Role                `json:"role"`
	Employee *directory.Employee `json:"employee"`
}

type EmployeeLookup interface {
	ByOfficialEmail(ctx context.Context, email string) (*directory.Employee, error)
}

type Service struct {
	Employees EmployeeLookup
}

func NewService(employees EmployeeLookup) *Service {
	return &Service{Employees: employees}
}

// Resolve maps a session to (role, employee). The join key is the official
// email. Lookup failures degrade to an unlinked resolution instead of
// blocking login.
func (s *Service) Resolve(ctx context.Context, sess Session) Resolution {
	if sess.IsAdmin {
		return Resolution{Role: RoleAdmin}
	}

	emp, err := s.Employees.ByOfficialEmail(ctx, sess.Email)
	if err != nil {
		if !errors.Is(err, directory.ErrNotFound) {
			slog.Warn("employee lookup failed", "email", sess.Email, "err", err)
		}
		return Resolution{Role: RoleUnlinked}
	}
	return Resolution{Role: RoleEmployee, Employee: emp}
}
