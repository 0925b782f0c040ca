// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"regexp"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// UserID identifies a learner (student or professor) in UUID format.
type UserID string

// IsValid checks if the user ID is a valid UUID.
func (id UserID) IsValid() bool {
	return uuidRegex.MatchString(string(id))
}

// String returns the string representation.
func (id UserID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty.
func (id UserID) IsEmpty() bool {
	return id == ""
}

// NewUserID creates a new UserID with validation.
func NewUserID(id string) (UserID, error) {
	uid := UserID(strings.ToLower(strings.TrimSpace(id)))
	if !uid.IsValid() {
		return "", NewDomainError("shared", "NewUserID", ErrInvalidID, "invalid user ID format")
	}
	return uid, nil
}

// ModuleID identifies a curriculum module.
type ModuleID string

// IsValid checks if the module ID is a valid UUID.
func (id ModuleID) IsValid() bool {
	return uuidRegex.MatchString(string(id))
}

// String returns the string representation.
func (id ModuleID) String() string {
	return string(id)
}

// NewModuleID creates a new ModuleID with validation.
func NewModuleID(id string) (ModuleID, error) {
	mid := ModuleID(strings.ToLower(strings.TrimSpace(id)))
	if !mid.IsValid() {
		return "", NewDomainError("shared", "NewModuleID", ErrInvalidID, "invalid module ID format")
	}
	return mid, nil
}

// TrailID identifies a curriculum trail.
type TrailID string

// IsValid checks if the trail ID is a valid UUID.
func (id TrailID) IsValid() bool {
	return uuidRegex.MatchString(string(id))
}

// String returns the string representation.
func (id TrailID) String() string {
	return string(id)
}

// NewTrailID creates a new TrailID with validation.
func NewTrailID(id string) (TrailID, error) {
	tid := TrailID(strings.ToLower(strings.TrimSpace(id)))
	if !tid.IsValid() {
		return "", NewDomainError("shared", "NewTrailID", ErrInvalidID, "invalid trail ID format")
	}
	return tid, nil
}
