package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	p := mustParse(t, weekDoc)
	p.WorkoutDays[0].Exercises[0].Completed = true
	p.WorkoutDays[1].Exercises[0].Completed = true

	s := Summarize(p)
	assert.Equal(t, 2, s.Completed)
	assert.Equal(t, 4, s.Total)
	assert.InDelta(t, 50.0, s.Percent, 0.001)
	assert.Equal(t, 1, s.CompletedDays)

	require.Len(t, s.Days, 3)
	assert.Equal(t, DayProgress{Index: 0, Day: "Monday", Completed: 1, Total: 2}, s.Days[0])
	assert.True(t, s.Days[1].Done())
	assert.InDelta(t, 50.0, s.Days[0].Percent(), 0.001)
}

func TestSummarize_EmptyPlan(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.Percent)

	p := mustParse(t, `{"workoutDays":[{"day":"Sunday","focus":"Rest"}]}`)
	s = Summarize(p)
	assert.Equal(t, 0, s.CompletedDays, "a day without exercises is not a completed day")
	assert.Zero(t, s.Days[0].Percent())
}

func TestMotivationalMessage(t *testing.T) {
	tests := []struct {
		percent float64
		want    string
	}{
		{100, "🎉 Amazing! You've completed your plan!"},
		{80, "💪 Great work! Keep pushing!"},
		{75, "💪 Great work! Keep pushing!"},
		{50, "🔥 You're halfway there! Don't give up!"},
		{25, "👍 Good start! Stay consistent!"},
		{3.5, "🌟 Every journey begins with a single step!"},
		{0, "🚀 Ready to start? You got this!"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MotivationalMessage(tt.percent), "percent %v", tt.percent)
	}
}

func TestToday(t *testing.T) {
	p := mustParse(t, `{"workoutDays":[{"day":"monday","focus":"Push"},{"day":"Wednesday","focus":"Pull"}]}`)

	monday := time.Date(2024, time.May, 6, 9, 0, 0, 0, time.UTC)
	day, ok := Today(p, monday)
	require.True(t, ok)
	assert.Equal(t, "Push", day.Focus)

	_, ok = Today(p, monday.AddDate(0, 0, 1))
	assert.False(t, ok, "tuesday is a rest day")

	_, ok = Today(nil, monday)
	assert.False(t, ok)
}
