package plan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitness-coach/internal/models"
	"fitness-coach/pkg/logger"
)

type fakeStore struct {
	plan        []byte
	progress    []byte
	planErr     error
	progressErr error
	appendErr   error

	saved  []*Record
	events []models.ProgressEvent
}

func (f *fakeStore) FetchPlan(_ context.Context, _ string) ([]byte, error) {
	return f.plan, f.planErr
}

func (f *fakeStore) SavePlan(_ context.Context, rec *Record) error {
	f.saved = append(f.saved, rec)
	return nil
}

func (f *fakeStore) FetchProgress(_ context.Context, _ string) ([]byte, error) {
	return f.progress, f.progressErr
}

func (f *fakeStore) AppendProgressEvent(_ context.Context, ev models.ProgressEvent) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.events = append(f.events, ev)
	return nil
}

type fakeGenerator struct {
	doc   string
	err   error
	calls int
}

func (f *fakeGenerator) GenerateWorkoutPlan(_ context.Context, _ *models.UserProfile) (string, error) {
	f.calls++
	return f.doc, f.err
}

func storedRow(t *testing.T) []byte {
	t.Helper()
	p := mustParse(t, weekDoc)
	raw, err := Serialize(p)
	require.NoError(t, err)
	return raw
}

func TestService_Load(t *testing.T) {
	store := &fakeStore{
		plan:     storedRow(t),
		progress: []byte(`[{"user_id":42,"day":"Wednesday","exercise_name":"Pull-ups","completed":true}]`),
	}
	svc := NewService(store, nil, logger.NewNop())

	p, err := svc.Load(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "42", p.UserID)
	assert.Equal(t, DefaultGeneratedPlanName, p.PlanName)
	assert.True(t, p.WorkoutDays[1].Exercises[0].Completed)
	assert.False(t, p.WorkoutDays[0].Exercises[0].Completed)
}

func TestService_Load_NoPlan(t *testing.T) {
	for name, doc := range map[string][]byte{"nil": nil, "empty rows": []byte(`[]`)} {
		t.Run(name, func(t *testing.T) {
			svc := NewService(&fakeStore{plan: doc}, nil, logger.NewNop())
			_, err := svc.Load(context.Background(), "42")
			assert.ErrorIs(t, err, ErrNoPlan)
		})
	}
}

func TestService_Load_ProgressFailureKeepsDefaults(t *testing.T) {
	tests := map[string]*fakeStore{
		"fetch error":    {progressErr: errors.New("boom")},
		"malformed body": {progress: []byte(`{"oops":true}`)},
	}
	for name, store := range tests {
		t.Run(name, func(t *testing.T) {
			store.plan = storedRow(t)
			svc := NewService(store, nil, logger.NewNop())

			p, err := svc.Load(context.Background(), "42")
			require.NoError(t, err)
			for _, d := range p.WorkoutDays {
				for _, ex := range d.Exercises {
					assert.False(t, ex.Completed)
				}
			}
		})
	}
}

func TestService_LoadOrGenerate(t *testing.T) {
	t.Run("existing plan is not regenerated", func(t *testing.T) {
		gen := &fakeGenerator{doc: pushDoc}
		svc := NewService(&fakeStore{plan: storedRow(t)}, gen, logger.NewNop())

		p, err := svc.LoadOrGenerate(context.Background(), "42", &models.UserProfile{})
		require.NoError(t, err)
		assert.Len(t, p.WorkoutDays, 3)
		assert.Equal(t, 0, gen.calls)
	})

	t.Run("missing plan is generated and saved", func(t *testing.T) {
		gen := &fakeGenerator{doc: "```json\n" + pushDoc + "\n```"}
		store := &fakeStore{}
		svc := NewService(store, gen, logger.NewNop())

		p, err := svc.LoadOrGenerate(context.Background(), "42", &models.UserProfile{})
		require.NoError(t, err)
		assert.Equal(t, 1, gen.calls)
		assert.Equal(t, DefaultGeneratedPlanName, p.PlanName)
		require.Len(t, store.saved, 1)
		assert.Equal(t, int64(42), store.saved[0].UserID)
	})

	t.Run("unreadable stored plan is regenerated", func(t *testing.T) {
		gen := &fakeGenerator{doc: pushDoc}
		svc := NewService(&fakeStore{plan: []byte(`{"plan_name":"x"}`)}, gen, logger.NewNop())

		_, err := svc.LoadOrGenerate(context.Background(), "42", &models.UserProfile{})
		require.NoError(t, err)
		assert.Equal(t, 1, gen.calls)
	})

	t.Run("store errors are not masked", func(t *testing.T) {
		gen := &fakeGenerator{doc: pushDoc}
		svc := NewService(&fakeStore{planErr: errors.New("down")}, gen, logger.NewNop())

		_, err := svc.LoadOrGenerate(context.Background(), "42", &models.UserProfile{})
		require.Error(t, err)
		assert.Equal(t, 0, gen.calls)
	})

	t.Run("malformed generation is surfaced", func(t *testing.T) {
		gen := &fakeGenerator{doc: `{"workoutDays":[{"day":"Mon`}
		store := &fakeStore{}
		svc := NewService(store, gen, logger.NewNop())

		_, err := svc.LoadOrGenerate(context.Background(), "42", &models.UserProfile{})
		assert.ErrorIs(t, err, ErrMalformedPlan)
		assert.Empty(t, store.saved)
	})

	t.Run("non numeric user", func(t *testing.T) {
		svc := NewService(&fakeStore{}, &fakeGenerator{doc: pushDoc}, logger.NewNop())

		_, err := svc.LoadOrGenerate(context.Background(), "abc", &models.UserProfile{})
		var idErr *InvalidUserIDError
		assert.ErrorAs(t, err, &idErr)
	})
}

func TestService_SetCompleted(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil, logger.NewNop())
	fixed := time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	p := mustParse(t, weekDoc)
	require.NoError(t, svc.SetCompleted(context.Background(), p, 2, "Push-ups", true))

	assert.True(t, p.WorkoutDays[2].Exercises[0].Completed)
	assert.False(t, p.WorkoutDays[0].Exercises[0].Completed)

	require.Len(t, store.events, 1)
	ev := store.events[0]
	assert.Equal(t, "42", ev.UserID)
	assert.Equal(t, "Monday", ev.Day)
	require.NotNil(t, ev.DayIndex)
	assert.Equal(t, 2, *ev.DayIndex)
	require.NotNil(t, ev.CompletedAt)
	assert.Equal(t, fixed, *ev.CompletedAt)

	require.NoError(t, svc.SetCompleted(context.Background(), p, 2, "Push-ups", false))
	assert.Nil(t, store.events[1].CompletedAt)

	// Reloading the written events reproduces the in-memory state.
	reloaded := mustParse(t, weekDoc)
	Merge(reloaded, store.events[:1])
	assert.True(t, reloaded.WorkoutDays[2].Exercises[0].Completed)
	assert.False(t, reloaded.WorkoutDays[0].Exercises[0].Completed)
}

func TestService_SetCompleted_Errors(t *testing.T) {
	p := mustParse(t, weekDoc)

	svc := NewService(&fakeStore{}, nil, logger.NewNop())
	assert.ErrorIs(t, svc.SetCompleted(context.Background(), p, 7, "Push-ups", true), ErrDayNotFound)
	assert.ErrorIs(t, svc.SetCompleted(context.Background(), p, 0, "Burpees", true), ErrExerciseNotFound)

	failing := NewService(&fakeStore{appendErr: errors.New("offline")}, nil, logger.NewNop())
	err := failing.SetCompleted(context.Background(), p, 0, "Dips", true)
	require.Error(t, err)
	assert.False(t, p.WorkoutDays[0].Exercises[1].Completed)
}
