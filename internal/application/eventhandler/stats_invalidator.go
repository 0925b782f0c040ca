// Package eventhandler contains the in-process subscribers wired onto the
// event bus at startup.
package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/application/query"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
)

// statsAffectingEvents are the event types that change any number shown in
// a learner's stats aggregate.
var statsAffectingEvents = []shared.EventType{
	shared.EventModuleCompleted,
	shared.EventTrailCompleted,
	shared.EventXPCredited,
	shared.EventXPDebited,
	shared.EventAchievementUnlocked,
	shared.EventRewardApproved,
}

// StatsInvalidator drops cached stats snapshots when the underlying
// numbers change. Every event's aggregate ID is the affected learner.
type StatsInvalidator struct {
	cache   query.StatsCache
	timeout time.Duration
	logger  *slog.Logger
}

// NewStatsInvalidator creates a new invalidator.
func NewStatsInvalidator(cache query.StatsCache, logger *slog.Logger) *StatsInvalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsInvalidator{
		cache:   cache,
		timeout: 2 * time.Second,
		logger:  logger,
	}
}

// Register subscribes the invalidator to every stats-affecting event type.
func (i *StatsInvalidator) Register(bus shared.EventSubscriber) error {
	for _, eventType := range statsAffectingEvents {
		if err := bus.Subscribe(eventType, i.Handle); err != nil {
			return err
		}
	}
	return nil
}

// Handle invalidates the learner's cached snapshot.
func (i *StatsInvalidator) Handle(event shared.Event) error {
	userID := event.AggregateID()
	if userID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
	defer cancel()

	i.cache.Invalidate(ctx, userID)
	i.logger.Debug("stats cache invalidated", "user_id", userID, "event_type", event.EventType())
	return nil
}
