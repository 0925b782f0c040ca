package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/douglasrmachado/Trilhas-App-sub001/pkg/timeutil"
)

func TestNextStreak(t *testing.T) {
	now := time.Date(2026, 3, 11, 14, 0, 0, 0, timeutil.SaoPauloTZ)
	sameDay := now.Add(-3 * time.Hour)
	yesterday := now.AddDate(0, 0, -1)
	lastWeek := now.AddDate(0, 0, -7)

	t.Run("first completion starts at one", func(t *testing.T) {
		assert.Equal(t, 1, nextStreak(0, nil, now))
	})

	t.Run("same day keeps the streak", func(t *testing.T) {
		assert.Equal(t, 4, nextStreak(4, &sameDay, now))
	})

	t.Run("same day repairs a zero streak", func(t *testing.T) {
		assert.Equal(t, 1, nextStreak(0, &sameDay, now))
	})

	t.Run("consecutive day extends", func(t *testing.T) {
		assert.Equal(t, 5, nextStreak(4, &yesterday, now))
	})

	t.Run("gap resets to one", func(t *testing.T) {
		assert.Equal(t, 1, nextStreak(9, &lastWeek, now))
	})
}
