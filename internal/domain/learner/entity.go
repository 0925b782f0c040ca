// Package learner contains the account model for students and professors.
// Authentication (token issuance and verification) is out of scope; the
// package only stores the account row, including the password hash written
// at registration.
package learner

import (
	"strings"
	"time"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
)

// Role distinguishes students from professors. Authorization policy is
// assumed to have been applied before the core is invoked; the role here
// backs display and review-queue queries only.
type Role string

const (
	RoleStudent   Role = "student"
	RoleProfessor Role = "professor"
)

// IsValid checks if the role is one of the known values.
func (r Role) IsValid() bool {
	return r == RoleStudent || r == RoleProfessor
}

// ParseRole parses and validates a role string.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", shared.ErrInvalidLearnerRole
	}
	return r, nil
}

// Learner is an account row.
type Learner struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsProfessor reports whether the account may resolve reward requests and
// review submissions.
func (l Learner) IsProfessor() bool {
	return l.Role == RoleProfessor
}
