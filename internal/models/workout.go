package models

import (
	"strings"
	"time"
)

// DurationUnset marks an exercise measured in reps rather than time.
const DurationUnset = "N/A"

// WorkoutPlan owns its days in program order.
type WorkoutPlan struct {
	UserID        string       `json:"user_id"`
	PlanName      string       `json:"plan_name"`
	Goal          string       `json:"goal"`
	DurationWeeks int          `json:"duration_weeks"`
	OverallNotes  string       `json:"overall_notes"`
	WorkoutDays   []WorkoutDay `json:"workout_days"`
}

// WorkoutDay is one program day. Index is assigned at parse time and is the
// join key for progress written by this system; Day is kept for display.
type WorkoutDay struct {
	Index     int        `json:"-"`
	Day       string     `json:"day"`
	Focus     string     `json:"focus"`
	Notes     string     `json:"notes"`
	Exercises []Exercise `json:"exercises"`
}

type Exercise struct {
	Name          string `json:"name"`
	Sets          int    `json:"sets"`
	Reps          int    `json:"reps"`
	Duration      string `json:"duration"`
	RestPeriod    string `json:"restPeriod"`
	Instructions  string `json:"instructions"`
	TargetMuscles string `json:"targetMuscles"`
	Completed     bool   `json:"completed"`
}

// HasDuration reports whether the exercise is timed (e.g. planks).
func (e *Exercise) HasDuration() bool {
	return e.Duration != "" && e.Duration != DurationUnset
}

// FindDay returns the first day whose label matches, ignoring case.
func (p *WorkoutPlan) FindDay(label string) (*WorkoutDay, bool) {
	label = strings.TrimSpace(label)
	for i := range p.WorkoutDays {
		if strings.EqualFold(p.WorkoutDays[i].Day, label) {
			return &p.WorkoutDays[i], true
		}
	}
	return nil, false
}

// DayAt returns the day with the given synthetic index.
func (p *WorkoutPlan) DayAt(index int) (*WorkoutDay, bool) {
	for i := range p.WorkoutDays {
		if p.WorkoutDays[i].Index == index {
			return &p.WorkoutDays[i], true
		}
	}
	return nil, false
}

// FindExercise matches an exercise name exactly.
func (d *WorkoutDay) FindExercise(name string) (*Exercise, bool) {
	for i := range d.Exercises {
		if d.Exercises[i].Name == name {
			return &d.Exercises[i], true
		}
	}
	return nil, false
}

// ProgressEvent is one remote completion row. DayIndex is nil for rows
// written before days carried an index.
type ProgressEvent struct {
	ID           int64      `json:"id,omitempty"`
	UserID       string     `json:"user_id"`
	Day          string     `json:"day"`
	DayIndex     *int       `json:"day_index,omitempty"`
	ExerciseName string     `json:"exercise_name"`
	Completed    bool       `json:"completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}
