// Package notification defines the one-way sink the core fires user-visible
// events into. Delivery is an external collaborator: the core never waits on
// a sink result for correctness, and a failed notification must not roll
// back the balance, grant, or approval that triggered it.
package notification

import (
	"context"
)

// EventKind classifies a user-visible notification.
type EventKind string

const (
	KindModuleCompleted     EventKind = "module_completed"
	KindTrailCompleted      EventKind = "trail_completed"
	KindAchievementUnlocked EventKind = "achievement_unlocked"
	KindRewardApproved      EventKind = "reward_approved"
	KindRewardRejected      EventKind = "reward_rejected"
	KindSubmissionReviewed  EventKind = "submission_reviewed"
)

// Sink receives user-visible notifications, best effort. Implementations
// must be safe for concurrent use and should return quickly; the core calls
// Notify after its transaction has committed and ignores the error beyond
// logging it.
type Sink interface {
	Notify(ctx context.Context, userID string, kind EventKind, title, body string)
}

// NopSink discards all notifications. Used in tests and when the
// notification layer is disabled.
type NopSink struct{}

// Notify implements Sink.
func (NopSink) Notify(ctx context.Context, userID string, kind EventKind, title, body string) {}
