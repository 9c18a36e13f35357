package plan

import (
	"encoding/json"
	"fmt"

	"fitness-coach/internal/models"
)

type indexKey struct {
	day      int
	exercise string
}

type labelKey struct {
	day      string
	exercise string
}

// Merge copies completion flags from the progress log onto the plan. Events
// carrying a day index join on it; older rows join on the day label, compared
// case-sensitively. For repeated keys the last event in input order wins.
// Exercises with no matching event keep their current flag. It returns the
// number of exercises whose flag was set.
func Merge(p *models.WorkoutPlan, events []models.ProgressEvent) int {
	if p == nil || len(events) == 0 {
		return 0
	}

	byIndex := make(map[indexKey]bool)
	byLabel := make(map[labelKey]bool)
	for _, ev := range events {
		if ev.ExerciseName == "" {
			continue
		}
		if ev.DayIndex != nil {
			byIndex[indexKey{day: *ev.DayIndex, exercise: ev.ExerciseName}] = ev.Completed
			continue
		}
		if ev.Day == "" {
			continue
		}
		byLabel[labelKey{day: ev.Day, exercise: ev.ExerciseName}] = ev.Completed
	}

	applied := 0
	for i := range p.WorkoutDays {
		day := &p.WorkoutDays[i]
		for j := range day.Exercises {
			ex := &day.Exercises[j]
			if done, ok := byIndex[indexKey{day: day.Index, exercise: ex.Name}]; ok {
				ex.Completed = done
				applied++
				continue
			}
			if done, ok := byLabel[labelKey{day: day.Day, exercise: ex.Name}]; ok {
				ex.Completed = done
				applied++
			}
		}
	}
	return applied
}

type progressRow struct {
	UserID       json.RawMessage `json:"user_id"`
	Day          *string         `json:"day"`
	DayIndex     *int            `json:"day_index"`
	ExerciseName *string         `json:"exercise_name"`
	Completed    *bool           `json:"completed"`
}

// DecodeProgress reads a progress document (a JSON array of rows). Rows that
// are not objects, have wrongly typed fields, or lack exercise_name, completed
// or a day reference are skipped and counted. A document that is not an
// array fails as a whole.
func DecodeProgress(raw []byte) ([]models.ProgressEvent, int, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformedProgress, err)
	}
	// json.Unmarshal accepts null as a nil slice.
	if rows == nil {
		return nil, 0, fmt.Errorf("%w: document is null", ErrMalformedProgress)
	}

	events := make([]models.ProgressEvent, 0, len(rows))
	skipped := 0
	for _, r := range rows {
		var row progressRow
		if err := json.Unmarshal(r, &row); err != nil {
			skipped++
			continue
		}
		if row.ExerciseName == nil || row.Completed == nil || (row.Day == nil && row.DayIndex == nil) {
			skipped++
			continue
		}
		ev := models.ProgressEvent{
			UserID:       stringValue(row.UserID, ""),
			DayIndex:     row.DayIndex,
			ExerciseName: *row.ExerciseName,
			Completed:    *row.Completed,
		}
		if row.Day != nil {
			ev.Day = *row.Day
		}
		events = append(events, ev)
	}
	return events, skipped, nil
}

// MergeDocument decodes a progress document and merges it. On a structural
// error the plan is left untouched.
func MergeDocument(p *models.WorkoutPlan, raw []byte) (int, error) {
	events, _, err := DecodeProgress(raw)
	if err != nil {
		return 0, err
	}
	return Merge(p, events), nil
}
