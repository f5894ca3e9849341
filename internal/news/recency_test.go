package news

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFresh(t *testing.T) {
	now := time.Now()
	maxAge := 8 * time.Hour

	recent := now.Add(-2 * time.Hour)
	old := now.Add(-9 * time.Hour)
	boundary := now.Add(-8 * time.Hour)

	assert.True(t, Fresh(&recent, now, maxAge))
	assert.False(t, Fresh(&old, now, maxAge))

	// Exactly at the threshold still passes
	assert.True(t, Fresh(&boundary, now, maxAge))
}

func TestFreshNilTimestamp(t *testing.T) {
	// Feeds without timestamps are treated as fresh
	assert.True(t, Fresh(nil, time.Now(), 8*time.Hour))
}

func TestAgeLabel(t *testing.T) {
	now := time.Now()

	justNow := now.Add(-30 * time.Second)
	minutes := now.Add(-42 * time.Minute)
	hours := now.Add(-5 * time.Hour)
	days := now.Add(-72 * time.Hour)

	assert.Equal(t, "just now", AgeLabel(&justNow, now))
	assert.Equal(t, "42m ago", AgeLabel(&minutes, now))
	assert.Equal(t, "5h ago", AgeLabel(&hours, now))
	assert.Equal(t, "3d ago", AgeLabel(&days, now))
	assert.Equal(t, "", AgeLabel(nil, now))
}
