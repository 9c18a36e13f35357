package plan

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"fitness-coach/internal/models"
)

type exerciseDoc struct {
	Name          string `json:"name"`
	Sets          int    `json:"sets"`
	Reps          int    `json:"reps"`
	Duration      string `json:"duration"`
	RestPeriod    string `json:"restPeriod"`
	Instructions  string `json:"instructions"`
	TargetMuscles string `json:"targetMuscles"`
	Completed     *bool  `json:"completed,omitempty"`
}

type dayDoc struct {
	Day       string        `json:"day"`
	Focus     string        `json:"focus"`
	Notes     string        `json:"notes"`
	Exercises []exerciseDoc `json:"exercises"`
}

type planDoc struct {
	PlanName      string   `json:"planName"`
	Goal          string   `json:"goal"`
	DurationWeeks int      `json:"durationWeeks"`
	OverallNotes  string   `json:"overallNotes"`
	WorkoutDays   []dayDoc `json:"workoutDays"`
}

// Record is the data-store row for a plan. WorkoutDays holds the day list in
// the plan document's field names.
type Record struct {
	UserID        int64           `json:"user_id"`
	PlanName      string          `json:"plan_name"`
	Goal          string          `json:"goal"`
	DurationWeeks int             `json:"duration_weeks"`
	OverallNotes  string          `json:"overall_notes"`
	WorkoutDays   json.RawMessage `json:"workout_days"`
}

// Encode renders the plan in the document format the completion backend is
// asked to produce. Completion state is not part of that contract.
func Encode(p *models.WorkoutPlan) ([]byte, error) {
	doc := planDoc{
		PlanName:      p.PlanName,
		Goal:          p.Goal,
		DurationWeeks: p.DurationWeeks,
		OverallNotes:  p.OverallNotes,
		WorkoutDays:   encodeDays(p.WorkoutDays, false),
	}
	return json.Marshal(doc)
}

// NewRecord maps a plan to its storage row.
func NewRecord(p *models.WorkoutPlan) (*Record, error) {
	userID, err := strconv.ParseInt(strings.TrimSpace(p.UserID), 10, 64)
	if err != nil {
		return nil, &InvalidUserIDError{UserID: p.UserID}
	}
	days, err := json.Marshal(encodeDays(p.WorkoutDays, true))
	if err != nil {
		return nil, fmt.Errorf("failed to encode workout days: %w", err)
	}
	return &Record{
		UserID:        userID,
		PlanName:      p.PlanName,
		Goal:          p.Goal,
		DurationWeeks: p.DurationWeeks,
		OverallNotes:  p.OverallNotes,
		WorkoutDays:   days,
	}, nil
}

// Serialize renders the plan as a storage document.
func Serialize(p *models.WorkoutPlan) ([]byte, error) {
	rec, err := NewRecord(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(rec)
}

func encodeDays(days []models.WorkoutDay, withCompletion bool) []dayDoc {
	out := make([]dayDoc, 0, len(days))
	for _, d := range days {
		dd := dayDoc{
			Day:       d.Day,
			Focus:     d.Focus,
			Notes:     d.Notes,
			Exercises: make([]exerciseDoc, 0, len(d.Exercises)),
		}
		for _, e := range d.Exercises {
			ed := exerciseDoc{
				Name:          e.Name,
				Sets:          e.Sets,
				Reps:          e.Reps,
				Duration:      e.Duration,
				RestPeriod:    e.RestPeriod,
				Instructions:  e.Instructions,
				TargetMuscles: e.TargetMuscles,
			}
			if withCompletion {
				completed := e.Completed
				ed.Completed = &completed
			}
			dd.Exercises = append(dd.Exercises, ed)
		}
		out = append(out, dd)
	}
	return out
}
