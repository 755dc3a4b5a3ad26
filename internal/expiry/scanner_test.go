package expiry

import (
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleRunsDailyAtEight(t *testing.T) {
	schedule, err := cron.ParseStandard(Schedule)
	require.NoError(t, err)

	from := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	next := schedule.Next(from)
	assert.Equal(t, time.Date(2026, time.January, 1, 8, 0, 0, 0, time.UTC), next)

	// A run at 8:00 schedules the next one a full day later
	after := schedule.Next(next)
	assert.Equal(t, next.Add(24*time.Hour), after)
}
