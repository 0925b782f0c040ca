// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the progression engine; the notification layer subscribes
// to these to build user-facing messages.
const (
	// Learner events
	EventLearnerRegistered EventType = "learner.registered"

	// Progress events
	EventModuleStarted   EventType = "progress.module_started"
	EventModuleCompleted EventType = "progress.module_completed"
	EventTrailCompleted  EventType = "progress.trail_completed"
	EventXPCredited      EventType = "progress.xp_credited"
	EventXPDebited       EventType = "progress.xp_debited"
	EventLevelChanged    EventType = "progress.level_changed"

	// Achievement events
	EventAchievementUnlocked EventType = "achievement.unlocked"

	// Reward events
	EventRewardRequested EventType = "reward.requested"
	EventRewardApproved  EventType = "reward.approved"
	EventRewardRejected  EventType = "reward.rejected"

	// Submission events
	EventSubmissionCreated  EventType = "submission.created"
	EventSubmissionReviewed EventType = "submission.reviewed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// ModuleCompletedEvent is emitted when a learner completes a module.
type ModuleCompletedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	ModuleID string `json:"module_id"`
	TrailID  string `json:"trail_id"`
	XPEarned int    `json:"xp_earned"`
}

// NewModuleCompletedEvent creates a module completion event.
func NewModuleCompletedEvent(userID, moduleID, trailID string, xpEarned int) ModuleCompletedEvent {
	return ModuleCompletedEvent{
		BaseEvent: NewBaseEvent(EventModuleCompleted, userID),
		UserID:    userID,
		ModuleID:  moduleID,
		TrailID:   trailID,
		XPEarned:  xpEarned,
	}
}

// Payload implements Event interface.
func (e ModuleCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"module_id": e.ModuleID,
		"trail_id":  e.TrailID,
		"xp_earned": e.XPEarned,
	}
}

// TrailCompletedEvent is emitted when every module of a trail is completed.
type TrailCompletedEvent struct {
	BaseEvent
	UserID  string `json:"user_id"`
	TrailID string `json:"trail_id"`
}

// NewTrailCompletedEvent creates a trail completion event.
func NewTrailCompletedEvent(userID, trailID string) TrailCompletedEvent {
	return TrailCompletedEvent{
		BaseEvent: NewBaseEvent(EventTrailCompleted, userID),
		UserID:    userID,
		TrailID:   trailID,
	}
}

// Payload implements Event interface.
func (e TrailCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":  e.UserID,
		"trail_id": e.TrailID,
	}
}

// XPChangedEvent is emitted on every balance mutation (credit or debit).
type XPChangedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Delta    int    `json:"delta"`
	TotalXP  int    `json:"total_xp"`
	OldLevel int    `json:"old_level"`
	NewLevel int    `json:"new_level"`
	Reason   string `json:"reason"`
}

// NewXPChangedEvent creates an XP change event. Delta is negative for debits.
func NewXPChangedEvent(userID string, delta, totalXP, oldLevel, newLevel int, reason string) XPChangedEvent {
	eventType := EventXPCredited
	if delta < 0 {
		eventType = EventXPDebited
	}
	return XPChangedEvent{
		BaseEvent: NewBaseEvent(eventType, userID),
		UserID:    userID,
		Delta:     delta,
		TotalXP:   totalXP,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		Reason:    reason,
	}
}

// Payload implements Event interface.
func (e XPChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"delta":     e.Delta,
		"total_xp":  e.TotalXP,
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
		"reason":    e.Reason,
	}
}

// LevelChanged reports whether the mutation moved the learner across a
// level boundary, in either direction.
func (e XPChangedEvent) LevelChanged() bool {
	return e.OldLevel != e.NewLevel
}

// ═══════════════════════════════════════════════════════════════════════════
// Achievement Events
// ═══════════════════════════════════════════════════════════════════════════

// AchievementUnlockedEvent is emitted when an achievement is newly granted.
type AchievementUnlockedEvent struct {
	BaseEvent
	UserID           string `json:"user_id"`
	AchievementTitle string `json:"achievement_title"`
	XPReward         int    `json:"xp_reward"`
}

// NewAchievementUnlockedEvent creates an achievement unlock event.
func NewAchievementUnlockedEvent(userID, title string, xpReward int) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:        NewBaseEvent(EventAchievementUnlocked, userID),
		UserID:           userID,
		AchievementTitle: title,
		XPReward:         xpReward,
	}
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":           e.UserID,
		"achievement_title": e.AchievementTitle,
		"xp_reward":         e.XPReward,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Reward Events
// ═══════════════════════════════════════════════════════════════════════════

// RewardResolvedEvent is emitted when a professor approves or rejects a request.
type RewardResolvedEvent struct {
	BaseEvent
	RequestID   string `json:"request_id"`
	StudentID   string `json:"student_id"`
	ProfessorID string `json:"professor_id"`
	RewardType  string `json:"reward_type"`
	Approved    bool   `json:"approved"`
	PointsCost  int    `json:"points_cost"`
}

// NewRewardResolvedEvent creates a reward resolution event.
func NewRewardResolvedEvent(requestID, studentID, professorID, rewardType string, approved bool, cost int) RewardResolvedEvent {
	eventType := EventRewardRejected
	if approved {
		eventType = EventRewardApproved
	}
	return RewardResolvedEvent{
		BaseEvent:   NewBaseEvent(eventType, studentID),
		RequestID:   requestID,
		StudentID:   studentID,
		ProfessorID: professorID,
		RewardType:  rewardType,
		Approved:    approved,
		PointsCost:  cost,
	}
}

// Payload implements Event interface.
func (e RewardResolvedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"request_id":   e.RequestID,
		"student_id":   e.StudentID,
		"professor_id": e.ProfessorID,
		"reward_type":  e.RewardType,
		"approved":     e.Approved,
		"points_cost":  e.PointsCost,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
