package plan

import (
	"time"

	"fitness-coach/internal/models"
)

type DayProgress struct {
	Index     int
	Day       string
	Completed int
	Total     int
}

// Percent is 0 for a day without exercises.
func (d DayProgress) Percent() float64 {
	if d.Total == 0 {
		return 0
	}
	return float64(d.Completed) / float64(d.Total) * 100
}

// Done reports a day with at least one exercise, all of them completed.
func (d DayProgress) Done() bool {
	return d.Total > 0 && d.Completed == d.Total
}

type Summary struct {
	Completed     int
	Total         int
	Percent       float64
	CompletedDays int
	Days          []DayProgress
}

// Summarize counts completed exercises overall and per day.
func Summarize(p *models.WorkoutPlan) Summary {
	var s Summary
	if p == nil {
		return s
	}
	for _, day := range p.WorkoutDays {
		dp := DayProgress{Index: day.Index, Day: day.Day, Total: len(day.Exercises)}
		for _, ex := range day.Exercises {
			if ex.Completed {
				dp.Completed++
			}
		}
		s.Completed += dp.Completed
		s.Total += dp.Total
		if dp.Done() {
			s.CompletedDays++
		}
		s.Days = append(s.Days, dp)
	}
	if s.Total > 0 {
		s.Percent = float64(s.Completed) / float64(s.Total) * 100
	}
	return s
}

func MotivationalMessage(percent float64) string {
	switch {
	case percent >= 100:
		return "🎉 Amazing! You've completed your plan!"
	case percent >= 75:
		return "💪 Great work! Keep pushing!"
	case percent >= 50:
		return "🔥 You're halfway there! Don't give up!"
	case percent >= 25:
		return "👍 Good start! Stay consistent!"
	case percent > 0:
		return "🌟 Every journey begins with a single step!"
	default:
		return "🚀 Ready to start? You got this!"
	}
}

// Today returns the plan day named after the weekday. No match means a rest day.
func Today(p *models.WorkoutPlan, now time.Time) (*models.WorkoutDay, bool) {
	if p == nil {
		return nil, false
	}
	return p.FindDay(now.Weekday().String())
}
