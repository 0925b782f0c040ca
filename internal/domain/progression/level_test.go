package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForXP(t *testing.T) {
	cases := []struct {
		totalXP int
		level   int
	}{
		{0, 1},
		{1, 1},
		{999, 1},
		{1000, 2},
		{1050, 2},
		{1999, 2},
		{2000, 3},
		{10000, 11},
		{-50, MinLevel},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.level, LevelForXP(tc.totalXP), "totalXP=%d", tc.totalXP)
	}
}

func TestXPForNextLevel(t *testing.T) {
	assert.Equal(t, 1000, XPForNextLevel(0))
	assert.Equal(t, 1, XPForNextLevel(999))
	assert.Equal(t, 1000, XPForNextLevel(1000))
	assert.Equal(t, 950, XPForNextLevel(1050))
	assert.Equal(t, 1000, XPForNextLevel(-10))
}
