// Package plan turns plan documents into WorkoutPlans and keeps them in step
// with the progress log.
package plan

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"fitness-coach/internal/models"
)

const (
	DefaultGeneratedPlanName = "Personalized Workout Plan"
	DefaultStoredPlanName    = "Your Workout Plan"
	DefaultDurationWeeks     = 4
	DefaultRestPeriod        = "60 seconds"
)

const fence = "```"

// openingFence matches a leading fence with an optional language tag.
var openingFence = regexp.MustCompile("^```[A-Za-z0-9_+.-]*[ \t]*\r?\n?")

// StripFence removes a fenced-code-block wrapper such as ```json ... ```.
func StripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, fence) {
		s = openingFence.ReplaceAllString(s, "")
	}
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, fence) {
		s = s[:len(s)-len(fence)]
	}
	return strings.TrimSpace(s)
}

// Parse decodes a plan document produced by the completion backend.
func Parse(userID, raw string) (*models.WorkoutPlan, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}
	return buildPlan(userID, fields, DefaultGeneratedPlanName)
}

// ParseStored decodes a plan as kept by the data store: either a single row
// or the row array a REST query returns, newest first. An empty array is
// reported as ErrNoPlan.
func ParseStored(userID string, raw []byte) (*models.WorkoutPlan, error) {
	s := StripFence(string(raw))
	if strings.HasPrefix(s, "[") {
		var rows []json.RawMessage
		if err := json.Unmarshal([]byte(s), &rows); err != nil {
			return nil, malformed(err, "invalid plan rows")
		}
		if len(rows) == 0 {
			return nil, ErrNoPlan
		}
		s = string(rows[0])
	}

	fields, err := decodeObject(s)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		if v, ok := lookup(fields, "user_id", "userId"); ok {
			userID = stringValue(v, "")
		}
	}
	return buildPlan(userID, fields, DefaultStoredPlanName)
}

func decodeObject(raw string) (map[string]json.RawMessage, error) {
	s := StripFence(raw)
	if s == "" {
		return nil, malformed(nil, "empty document")
	}
	if !strings.HasSuffix(s, "}") && !strings.HasSuffix(s, "]") {
		tail := s
		if len(tail) > 40 {
			tail = tail[len(tail)-40:]
		}
		return nil, malformed(nil, "document appears truncated near %q", tail)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &fields); err != nil {
		return nil, malformed(err, "invalid JSON")
	}
	if fields == nil {
		return nil, malformed(nil, "document is not an object")
	}
	return fields, nil
}

func buildPlan(userID string, fields map[string]json.RawMessage, defaultName string) (*models.WorkoutPlan, error) {
	daysRaw, ok := lookup(fields, "workoutDays", "workout_days")
	if !ok {
		return nil, malformed(nil, "missing 'workoutDays' field")
	}
	// Some stores keep the day list as a JSON string column.
	if bytes.HasPrefix(bytes.TrimSpace(daysRaw), []byte(`"`)) {
		var inner string
		if err := json.Unmarshal(daysRaw, &inner); err != nil {
			return nil, malformed(err, "invalid workoutDays")
		}
		daysRaw = json.RawMessage(inner)
	}

	var days []json.RawMessage
	if err := json.Unmarshal(daysRaw, &days); err != nil {
		return nil, malformed(err, "workoutDays is not an array")
	}

	p := &models.WorkoutPlan{
		UserID:        userID,
		PlanName:      optString(fields, defaultName, "planName", "plan_name"),
		Goal:          goalValue(fields),
		DurationWeeks: nonNegative(optInt(fields, DefaultDurationWeeks, "durationWeeks", "duration_weeks")),
		OverallNotes:  optString(fields, "", "overallNotes", "overall_notes"),
		WorkoutDays:   make([]models.WorkoutDay, 0, len(days)),
	}

	for i, d := range days {
		day, err := parseDay(i, d)
		if err != nil {
			return nil, err
		}
		p.WorkoutDays = append(p.WorkoutDays, day)
	}
	return p, nil
}

func parseDay(index int, raw json.RawMessage) (models.WorkoutDay, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return models.WorkoutDay{}, malformed(err, "workoutDays[%d] is not an object", index)
	}

	label, ok := requiredString(fields, "day")
	if !ok {
		return models.WorkoutDay{}, malformed(nil, "workoutDays[%d] is missing 'day'", index)
	}

	day := models.WorkoutDay{
		Index:     index,
		Day:       label,
		Focus:     optString(fields, "", "focus"),
		Notes:     optString(fields, "", "notes"),
		Exercises: []models.Exercise{},
	}

	exRaw, ok := lookup(fields, "exercises")
	if !ok {
		return day, nil
	}
	var exercises []json.RawMessage
	if err := json.Unmarshal(exRaw, &exercises); err != nil {
		return models.WorkoutDay{}, malformed(err, "workoutDays[%d].exercises is not an array", index)
	}
	for j, e := range exercises {
		ex, err := parseExercise(e)
		if err != nil {
			return models.WorkoutDay{}, malformed(err, "workoutDays[%d].exercises[%d]", index, j)
		}
		day.Exercises = append(day.Exercises, ex)
	}
	return day, nil
}

func parseExercise(raw json.RawMessage) (models.Exercise, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return models.Exercise{}, malformed(err, "not an object")
	}
	name, ok := requiredString(fields, "name")
	if !ok {
		return models.Exercise{}, malformed(nil, "missing 'name'")
	}
	return models.Exercise{
		Name:          name,
		Sets:          nonNegative(optInt(fields, 0, "sets")),
		Reps:          nonNegative(optInt(fields, 0, "reps")),
		Duration:      optString(fields, models.DurationUnset, "duration"),
		RestPeriod:    optString(fields, DefaultRestPeriod, "restPeriod", "rest_period"),
		Instructions:  optString(fields, "", "instructions"),
		TargetMuscles: optString(fields, "", "targetMuscles", "target_muscles"),
		Completed:     false,
	}, nil
}

// lookup returns the first present, non-null value among the given keys.
func lookup(fields map[string]json.RawMessage, keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		v, ok := fields[k]
		if !ok {
			continue
		}
		if t := bytes.TrimSpace(v); len(t) == 0 || bytes.Equal(t, []byte("null")) {
			continue
		}
		return v, true
	}
	return nil, false
}

func requiredString(fields map[string]json.RawMessage, key string) (string, bool) {
	v, ok := lookup(fields, key)
	if !ok {
		return "", false
	}
	s := stringValue(v, "")
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func optString(fields map[string]json.RawMessage, def string, keys ...string) string {
	v, ok := lookup(fields, keys...)
	if !ok {
		return def
	}
	return stringValue(v, def)
}

func optInt(fields map[string]json.RawMessage, def int, keys ...string) int {
	v, ok := lookup(fields, keys...)
	if !ok {
		return def
	}
	return intValue(v, def)
}

// goalValue accepts the goal either as text or as a multi-select list.
func goalValue(fields map[string]json.RawMessage) string {
	v, ok := lookup(fields, "goal")
	if !ok {
		return ""
	}
	var list []string
	if err := json.Unmarshal(v, &list); err == nil {
		return strings.Join(list, ", ")
	}
	return stringValue(v, "")
}

func decodeScalar(raw json.RawMessage) (any, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

func stringValue(raw json.RawMessage, def string) string {
	v, ok := decodeScalar(raw)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		return def
	}
}

func intValue(raw json.RawMessage, def int) int {
	v, ok := decodeScalar(raw)
	if !ok {
		return def
	}
	var f float64
	var err error
	switch x := v.(type) {
	case json.Number:
		f, err = x.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return def
	}
	if err != nil {
		return def
	}
	return int(f)
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
