// Package reward contains the reward-redemption model: a catalog of
// redeemable reward types with XP costs and the request lifecycle
// (pending → approved/rejected, terminal).
package reward

import (
	"strings"
	"time"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REWARD TYPES
// ══════════════════════════════════════════════════════════════════════════════

// Type identifies a redeemable reward.
type Type string

const (
	// TypeHorasAfins - complementary academic hours.
	TypeHorasAfins Type = "horas_afins"

	// TypePontoExtra - extra grade point in a course.
	TypePontoExtra Type = "ponto_extra"

	// TypeCertificado - printed completion certificate.
	TypeCertificado Type = "certificado"
)

// String returns the string representation.
func (t Type) String() string {
	return string(t)
}

// typeCosts is the per-type XP cost catalog. Cost is an attribute of the
// type, not a global constant: the three types cost the same today but are
// free to diverge.
var typeCosts = map[Type]int{
	TypeHorasAfins:  100,
	TypePontoExtra:  100,
	TypeCertificado: 100,
}

// ParseType parses and validates a reward type string.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := typeCosts[t]; !ok {
		return "", shared.ErrUnknownRewardType
	}
	return t, nil
}

// Cost returns the XP cost of the reward type.
func (t Type) Cost() (int, error) {
	cost, ok := typeCosts[t]
	if !ok {
		return 0, shared.ErrUnknownRewardType
	}
	return cost, nil
}

// Types returns all known reward types.
func Types() []Type {
	return []Type{TypeHorasAfins, TypePontoExtra, TypeCertificado}
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status is the lifecycle state of a reward request.
type Status string

const (
	// StatusPending - created, awaiting professor review.
	StatusPending Status = "pending"

	// StatusApproved - terminal; the cost was debited.
	StatusApproved Status = "approved"

	// StatusRejected - terminal; no balance change.
	StatusRejected Status = "rejected"
)

// IsTerminal reports whether the status admits no further transition.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST
// ══════════════════════════════════════════════════════════════════════════════

// Request is an immutable snapshot of a reward request row. Ledger
// operations return fresh snapshots; handles are never mutated in place, so
// they cannot drift from the store.
type Request struct {
	ID                string
	StudentID         string
	RewardType        Type
	PointsCost        int
	Message           string
	Status            Status
	ProfessorID       *string
	ProfessorResponse *string
	CreatedAt         time.Time
	ResolvedAt        *time.Time
}

// IsResolved reports whether the request reached a terminal state.
func (r Request) IsResolved() bool {
	return r.Status.IsTerminal()
}

// PendingRequest is a pending request joined with requester display info for
// the professor review queue.
type PendingRequest struct {
	Request
	StudentName  string
	StudentEmail string
}
