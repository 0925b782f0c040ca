// Package submission contains the artifact-submission model. The artifact
// bytes themselves live with the external storage collaborator; the core
// records only the submission row and its review state, which feed the
// first-approval achievement rule.
package submission

import (
	"time"
)

// Status is the review state of a submission.
type Status string

const (
	// StatusPending - submitted, awaiting professor review.
	StatusPending Status = "pending"

	// StatusApproved - terminal; counts toward approval achievements.
	StatusApproved Status = "approved"

	// StatusRejected - terminal.
	StatusRejected Status = "rejected"
)

// IsTerminal reports whether the status admits no further transition.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Submission is an artifact submission row.
type Submission struct {
	ID           string
	UserID       string
	ModuleID     string
	ArtifactName string
	Status       Status
	ReviewedBy   *string
	CreatedAt    time.Time
	ReviewedAt   *time.Time
}

// IsReviewed reports whether the submission reached a terminal state.
func (s Submission) IsReviewed() bool {
	return s.Status.IsTerminal()
}
