package bot

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeSurvey(t *testing.T, s *survey, answers ...string) {
	t.Helper()
	for _, a := range answers {
		_, ok := s.answer(a)
		require.True(t, ok, "answer %q rejected at step %d", a, s.step)
	}
}

func TestSurvey_HappyPath(t *testing.T) {
	s := newSurvey(42, "Sam")
	assert.Equal(t, StepAge, s.step)

	completeSurvey(t, s, "29", "180", "81,5", "Build muscle, Lose weight", "3-4 times a week", "1.5", "yes", "Left knee pain", "20 8 5")
	require.Equal(t, StepConfirm, s.step)

	q := s.current()
	assert.Contains(t, q.Text, "Age: 29")
	assert.Contains(t, q.Text, "Weight: 81.5 kg")
	assert.Contains(t, q.Text, "Push-ups / dips / pull-ups: 20 / 8 / 5")

	_, ok := s.answer(answerConfirm)
	require.True(t, ok)
	assert.True(t, s.done())

	p := s.profile
	assert.Equal(t, int64(42), p.UserID)
	assert.Equal(t, "Sam", p.Name)
	assert.Equal(t, 29, p.Age)
	assert.Equal(t, 180.0, p.HeightCm)
	assert.Equal(t, 81.5, p.WeightKg)
	assert.Equal(t, "Overweight", p.BMICategory)
	assert.Equal(t, "Build muscle, Lose weight", p.Goals)
	assert.True(t, p.GymEquipment)
	assert.Equal(t, "Left knee pain", p.Injuries)
	assert.Equal(t, 8, p.CurrentDips)
}

func TestSurvey_InvalidAnswersStayOnStep(t *testing.T) {
	tests := []struct {
		name    string
		prefix  []string
		answer  string
		atStep  surveyStep
		options bool
	}{
		{"age not a number", nil, "old", StepAge, false},
		{"age out of range", nil, "7", StepAge, false},
		{"height out of range", []string{"30"}, "20", StepHeight, false},
		{"weight out of range", []string{"30", "170"}, "500", StepWeight, false},
		{"empty goal", []string{"30", "170", "70"}, " , ", StepGoal, true},
		{"hours too long", []string{"30", "170", "70", "Build muscle", "Rarely"}, "9", StepHours, false},
		{"equipment maybe", []string{"30", "170", "70", "Build muscle", "Rarely", "1"}, "maybe", StepEquipment, true},
		{"two counts", []string{"30", "170", "70", "Build muscle", "Rarely", "1", "No", "None"}, "10 5", StepLevel, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSurvey(1, "")
			completeSurvey(t, s, tt.prefix...)

			q, ok := s.answer(tt.answer)
			assert.False(t, ok)
			assert.Equal(t, tt.atStep, s.step)
			assert.NotEmpty(t, q.Text)
			assert.Equal(t, tt.options, len(q.Options) > 0)
		})
	}
}

func TestSurvey_NoneInjuriesAndRestart(t *testing.T) {
	s := newSurvey(1, "Ana")
	completeSurvey(t, s, "30", "170", "70", "General fitness", "Rarely", "1", "No", "none", "0 0 0")
	assert.Equal(t, "", s.profile.Injuries)
	assert.Contains(t, s.current().Text, "Injuries: None")

	q, ok := s.answer(answerRestart)
	require.True(t, ok)
	assert.Equal(t, StepAge, s.step)
	assert.Equal(t, "Ana", s.profile.Name)
	assert.Zero(t, s.profile.Age)
	assert.Equal(t, "How old are you?", q.Text)

	_, ok = s.answer("maybe later")
	assert.False(t, ok)
}

func TestParseCounts(t *testing.T) {
	got, ok := parseCounts("20, 8/5")
	require.True(t, ok)
	assert.Equal(t, [3]int{20, 8, 5}, got)

	_, ok = parseCounts("20 8 -1")
	assert.False(t, ok)
}

func TestSurvey_AdvanceFinishesOnce(t *testing.T) {
	s := newSurvey(42, "Sam")
	completeSurvey(t, s, "29", "180", "81", "General fitness", "Rarely", "1", "no", "None", "10 5 2")
	require.Equal(t, StepConfirm, s.step)

	const answers = 8
	results := make(chan bool, answers)
	var wg sync.WaitGroup
	for i := 0; i < answers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, profile, finished := s.advance(answerConfirm)
			if finished {
				assert.Equal(t, 29, profile.Age)
			}
			results <- finished
		}()
	}
	wg.Wait()
	close(results)

	count := 0
	for finished := range results {
		if finished {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.True(t, s.done())
}
