package plan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitness-coach/internal/models"
	"fitness-coach/pkg/logger"
)

// Store is the remote data store as seen by the plan pipeline. FetchPlan
// returns an empty document, not an error, when the user has no plan.
type Store interface {
	FetchPlan(ctx context.Context, userID string) ([]byte, error)
	SavePlan(ctx context.Context, rec *Record) error
	FetchProgress(ctx context.Context, userID string) ([]byte, error)
	AppendProgressEvent(ctx context.Context, ev models.ProgressEvent) error
}

// Generator produces a raw plan document for a profile.
type Generator interface {
	GenerateWorkoutPlan(ctx context.Context, profile *models.UserProfile) (string, error)
}

type Service struct {
	store     Store
	generator Generator
	logger    *logger.Logger
	now       func() time.Time
}

func NewService(store Store, generator Generator, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		generator: generator,
		logger:    log,
		now:       time.Now,
	}
}

// Load fetches the user's latest plan and merges the progress log into it.
// A progress document that cannot be read leaves every exercise incomplete.
func (s *Service) Load(ctx context.Context, userID string) (*models.WorkoutPlan, error) {
	raw, err := s.store.FetchPlan(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch plan: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrNoPlan
	}

	p, err := ParseStored(userID, raw)
	if err != nil {
		return nil, err
	}

	progress, err := s.store.FetchProgress(ctx, userID)
	if err != nil {
		s.logger.Warnw("Failed to fetch progress, keeping defaults", "user_id", userID, "error", err)
		return p, nil
	}
	if len(progress) == 0 {
		return p, nil
	}

	events, skipped, err := DecodeProgress(progress)
	if err != nil {
		s.logger.Warnw("Malformed progress document, keeping defaults", "user_id", userID, "error", err)
		return p, nil
	}
	applied := Merge(p, events)
	s.logger.Infow("Plan loaded",
		"user_id", userID,
		"days", len(p.WorkoutDays),
		"progress_events", len(events),
		"progress_skipped", skipped,
		"progress_applied", applied,
	)
	return p, nil
}

// LoadOrGenerate returns the stored plan, generating and saving a new one when
// none exists or the stored one cannot be parsed.
func (s *Service) LoadOrGenerate(ctx context.Context, userID string, profile *models.UserProfile) (*models.WorkoutPlan, error) {
	p, err := s.Load(ctx, userID)
	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, ErrNoPlan):
	case errors.Is(err, ErrMalformedPlan):
		s.logger.Warnw("Stored plan unreadable, regenerating", "user_id", userID, "error", err)
	default:
		return nil, err
	}
	return s.Generate(ctx, userID, profile)
}

// Generate asks the completion backend for a new plan and stores it.
func (s *Service) Generate(ctx context.Context, userID string, profile *models.UserProfile) (*models.WorkoutPlan, error) {
	if s.generator == nil {
		return nil, errors.New("plan generator is not configured")
	}
	raw, err := s.generator.GenerateWorkoutPlan(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan: %w", err)
	}

	p, err := Parse(userID, raw)
	if err != nil {
		s.logger.Errorw("Generated plan rejected", "user_id", userID, "length", len(raw), "error", err)
		return nil, err
	}

	rec, err := NewRecord(p)
	if err != nil {
		return nil, err
	}
	if err := s.store.SavePlan(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}

	s.logger.Infow("Plan generated", "user_id", userID, "days", len(p.WorkoutDays), "name", p.PlanName)
	return p, nil
}

// SetCompleted marks one exercise and records the change in the progress log.
// The in-memory flag is restored when the event cannot be written.
func (s *Service) SetCompleted(ctx context.Context, p *models.WorkoutPlan, dayIndex int, exerciseName string, completed bool) error {
	day, ok := p.DayAt(dayIndex)
	if !ok {
		return fmt.Errorf("%w: index %d", ErrDayNotFound, dayIndex)
	}
	ex, ok := day.FindExercise(exerciseName)
	if !ok {
		return fmt.Errorf("%w: %q on %s", ErrExerciseNotFound, exerciseName, day.Day)
	}

	previous := ex.Completed
	ex.Completed = completed

	idx := day.Index
	ev := models.ProgressEvent{
		UserID:       p.UserID,
		Day:          day.Day,
		DayIndex:     &idx,
		ExerciseName: ex.Name,
		Completed:    completed,
	}
	if completed {
		at := s.now()
		ev.CompletedAt = &at
	}

	if err := s.store.AppendProgressEvent(ctx, ev); err != nil {
		ex.Completed = previous
		return fmt.Errorf("failed to record progress: %w", err)
	}
	return nil
}
