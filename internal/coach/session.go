package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"fitness-coach/internal/models"
	"fitness-coach/internal/plan"
	"fitness-coach/pkg/logger"
)

// DefaultTimeout bounds a single completion call.
const DefaultTimeout = 90 * time.Second

// Completer is the completion backend.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type ProfileSource interface {
	FetchProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

type PlanSource interface {
	Load(ctx context.Context, userID string) (*models.WorkoutPlan, error)
}

// Result is delivered on the channel returned by AskAsync.
type Result struct {
	Text string
	Err  error
}

// Session runs chat turns for one user. Turns are serialized: a question that
// arrives while another is awaiting its completion fails with
// ErrTurnInProgress.
type Session struct {
	userID       string
	store        *ConversationStore
	assembler    *ContextAssembler
	completer    Completer
	instructions string
	timeout      time.Duration
	logger       *logger.Logger

	turn sync.Mutex

	mu      sync.RWMutex
	profile *models.UserProfile
	plan    *models.WorkoutPlan
}

type SessionConfig struct {
	UserID       string
	Instructions string
	Timeout      time.Duration
}

func NewSession(cfg SessionConfig, store *ConversationStore, assembler *ContextAssembler, completer Completer, log *logger.Logger) *Session {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(cfg.Instructions) == "" {
		cfg.Instructions = FallbackInstructions
	}
	if assembler == nil {
		assembler = NewContextAssembler(DefaultHistoryWindow)
	}
	return &Session{
		userID:       cfg.UserID,
		store:        store,
		assembler:    assembler,
		completer:    completer,
		instructions: cfg.Instructions,
		timeout:      cfg.Timeout,
		logger:       log,
	}
}

// LoadContext refreshes the profile and plan snapshots. A source that fails
// leaves its snapshot as it was; a user without a plan gets an empty one.
func (s *Session) LoadContext(ctx context.Context, profiles ProfileSource, plans PlanSource) error {
	var errs []error

	if profiles != nil {
		profile, err := profiles.FetchProfile(ctx, s.userID)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to load profile: %w", err))
		} else {
			s.mu.Lock()
			s.profile = profile
			s.mu.Unlock()
		}
	}

	if plans != nil {
		p, err := plans.Load(ctx, s.userID)
		switch {
		case errors.Is(err, plan.ErrNoPlan):
			s.SetPlan(nil)
		case err != nil:
			errs = append(errs, fmt.Errorf("failed to load plan: %w", err))
		default:
			s.SetPlan(p)
		}
	}

	s.mu.RLock()
	s.logger.Infow("Coach context loaded",
		"user_id", s.userID,
		"has_profile", !s.profile.IsEmpty(),
		"has_plan", s.plan != nil,
	)
	s.mu.RUnlock()
	return errors.Join(errs...)
}

func (s *Session) SetProfile(p *models.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
}

func (s *Session) SetPlan(p *models.WorkoutPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = p
}

func (s *Session) snapshots() (*models.UserProfile, *models.WorkoutPlan) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile, s.plan
}

// Ask runs one turn. The question is durable before the backend is called.
// On failure the turn stays pending and no assistant turn is recorded; asking
// the same text again resumes it.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	if !s.turn.TryLock() {
		return "", ErrTurnInProgress
	}
	defer s.turn.Unlock()

	return s.ask(ctx, question)
}

// AskAsync runs Ask in the background and delivers its outcome once.
func (s *Session) AskAsync(ctx context.Context, question string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		text, err := s.Ask(ctx, question)
		out <- Result{Text: text, Err: err}
		close(out)
	}()
	return out
}

// Resume re-sends the oldest pending turn.
func (s *Session) Resume(ctx context.Context) (string, error) {
	if !s.turn.TryLock() {
		return "", ErrTurnInProgress
	}
	defer s.turn.Unlock()

	turns := s.store.PendingTurns()
	if len(turns) == 0 {
		return "", ErrNothingPending
	}
	return s.ask(ctx, turns[0].Text)
}

func (s *Session) ask(ctx context.Context, question string) (string, error) {
	turn, resumed := s.store.FindPending(question)
	last, hasLast := s.store.Last()
	if !resumed || !hasLast || last.Role != models.RoleUser || last.Content != question {
		if err := s.store.Append(models.RoleUser, question); err != nil {
			return "", err
		}
	}
	if !resumed {
		var err error
		if turn, err = s.store.MarkPending(question); err != nil {
			return "", err
		}
	}

	log := s.store.Messages()
	prior := log[:len(log)-1]
	profile, p := s.snapshots()
	prompt := s.assembler.Build(s.instructions, profile, p, prior, question)

	s.logger.Infow("Coach turn started",
		"user_id", s.userID,
		"turn_id", turn.ID,
		"resumed", resumed,
		"history", len(prior),
		"prompt_length", len(prompt),
	)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.completer.Complete(callCtx, prompt)
	if err != nil {
		s.logger.Warnw("Coach turn failed",
			"user_id", s.userID,
			"turn_id", turn.ID,
			"pending", s.store.PendingCount(),
			"error", err,
		)
		return "", err
	}

	if err := s.store.Append(models.RoleAssistant, reply); err != nil {
		return "", err
	}
	if err := s.store.ClearPending(turn.ID); err != nil {
		return "", err
	}

	s.logger.Infow("Coach turn completed",
		"user_id", s.userID,
		"turn_id", turn.ID,
		"reply_length", len(reply),
	)
	return reply, nil
}

// History returns the durable log.
func (s *Session) History() []models.ChatMessage {
	return s.store.Messages()
}

// Transcript projects the durable log for display.
func (s *Session) Transcript(now time.Time) []models.DisplayMessage {
	return models.ToDisplay(s.store.Messages(), now)
}

func (s *Session) HasPending() bool { return s.store.HasPending() }

func (s *Session) PendingCount() int { return s.store.PendingCount() }

// Clear wipes the conversation. It fails with ErrTurnInProgress while a turn
// is running.
func (s *Session) Clear() error {
	if !s.turn.TryLock() {
		return ErrTurnInProgress
	}
	defer s.turn.Unlock()
	return s.store.Clear()
}
