package bot

import (
	"context"
	"errors"
	"strconv"
	"time"

	"fitness-coach/internal/backend"
	"fitness-coach/internal/coach"
	"fitness-coach/internal/models"
	"fitness-coach/internal/plan"
)

const (
	generateTimeout = 3 * time.Minute
	historyLimit    = 10
)

func (t *TelegramBot) startSurvey(chatID, userID int64, name string) {
	s := newSurvey(userID, name)

	t.stateMutex.Lock()
	t.surveys[userID] = s
	t.stateMutex.Unlock()

	t.send(chatID, "👋 Hi! I'll build you a personal calisthenics plan and coach you through it. A few quick questions first.", nil)
	t.sendPrompt(chatID, s.current())
}

func (t *TelegramBot) handleSurveyAnswer(ctx context.Context, chatID, userID int64, s *survey, text string) {
	next, profile, finished := s.advance(text)
	if !finished {
		t.sendPrompt(chatID, next)
		return
	}

	t.stateMutex.Lock()
	if t.surveys[userID] == s {
		delete(t.surveys, userID)
	}
	t.stateMutex.Unlock()

	if err := t.profiles.SaveProfile(ctx, &profile); err != nil {
		t.logger.Errorw("Failed to save profile", "user_id", userID, "error", err)
		t.send(chatID, "Sorry, I couldn't save your answers. Please try /start again later.", nil)
		return
	}

	us := t.session(ctx, userID)
	us.coach.SetProfile(&profile)

	t.send(chatID, "Thanks! Building your plan, this can take a minute...", nil)
	t.typing(chatID)

	genCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	p, err := t.plans.Generate(genCtx, strconv.FormatInt(userID, 10), &profile)
	if err != nil {
		t.logger.Errorw("Failed to generate plan", "user_id", userID, "error", err)
		t.send(chatID, "Sorry, I couldn't build your plan right now. Send /start to try again.", nil)
		return
	}

	us.mu.Lock()
	us.plan = p
	us.mu.Unlock()
	us.coach.SetPlan(p)

	t.send(chatID, "🎉 Your plan is ready!\n\n"+formatPlan(p)+"\nSend /today to see today's workout.", nil)
}

// loadPlan returns the user's stored plan. A user who finished the survey but
// has no usable stored plan gets a new one generated from the profile.
func (t *TelegramBot) loadPlan(ctx context.Context, userID int64) (*models.WorkoutPlan, error) {
	id := strconv.FormatInt(userID, 10)

	profile, err := t.profiles.FetchProfile(ctx, id)
	if err != nil {
		t.logger.Warnw("Failed to fetch profile, loading stored plan only", "user_id", userID, "error", err)
		return t.plans.Load(ctx, id)
	}
	if profile.IsEmpty() {
		return t.plans.Load(ctx, id)
	}

	genCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()
	return t.plans.LoadOrGenerate(genCtx, id, profile)
}

// currentPlan returns the cached plan, loading it on first use.
func (t *TelegramBot) currentPlan(ctx context.Context, chatID, userID int64) (*userSession, *models.WorkoutPlan, bool) {
	us := t.session(ctx, userID)

	us.mu.Lock()
	p := us.plan
	us.mu.Unlock()
	if p != nil {
		return us, p, true
	}

	t.typing(chatID)
	p, err := t.loadPlan(ctx, userID)
	switch {
	case errors.Is(err, plan.ErrNoPlan):
		t.send(chatID, "You don't have a plan yet. Send /start to create one.", nil)
		return us, nil, false
	case errors.Is(err, plan.ErrMalformedPlan):
		t.logger.Warnw("Stored plan unreadable", "user_id", userID, "error", err)
		t.send(chatID, "Your saved plan could not be read. Send /start to build a new one.", nil)
		return us, nil, false
	case err != nil:
		t.logger.Errorw("Failed to load plan", "user_id", userID, "error", err)
		t.send(chatID, "Sorry, I couldn't load your plan. Please try again later.", nil)
		return us, nil, false
	}

	us.mu.Lock()
	us.plan = p
	us.mu.Unlock()
	us.coach.SetPlan(p)
	return us, p, true
}

func (t *TelegramBot) handlePlan(ctx context.Context, chatID, userID int64) {
	us, p, ok := t.currentPlan(ctx, chatID, userID)
	if !ok {
		return
	}
	us.mu.Lock()
	text := formatPlan(p)
	us.mu.Unlock()
	t.send(chatID, text, nil)
}

func (t *TelegramBot) handleToday(ctx context.Context, chatID, userID int64) {
	us, p, ok := t.currentPlan(ctx, chatID, userID)
	if !ok {
		return
	}
	us.mu.Lock()
	day, found := plan.Today(p, time.Now())
	var text string
	if found {
		text = formatDay(day) + "\nMark an exercise with /done N."
	}
	us.mu.Unlock()

	if !found {
		t.send(chatID, "😴 No workout scheduled for "+time.Now().Weekday().String()+". Enjoy your rest day!", nil)
		return
	}
	t.send(chatID, text, nil)
}

func (t *TelegramBot) handleMark(ctx context.Context, chatID, userID int64, args string, completed bool) {
	us, p, ok := t.currentPlan(ctx, chatID, userID)
	if !ok {
		return
	}

	us.mu.Lock()
	defer us.mu.Unlock()

	day, found := plan.Today(p, time.Now())
	if !found || len(day.Exercises) == 0 {
		t.send(chatID, "Nothing to mark today, it's a rest day.", nil)
		return
	}
	idx, err := parseExerciseNumber(args, len(day.Exercises))
	if err != nil {
		t.send(chatID, err.Error()+".", nil)
		return
	}

	name := day.Exercises[idx].Name
	if err := t.plans.SetCompleted(ctx, p, day.Index, name, completed); err != nil {
		t.logger.Errorw("Failed to record progress", "user_id", userID, "exercise", name, "error", err)
		t.send(chatID, "Sorry, I couldn't save that. Please try again.", nil)
		return
	}

	summary := plan.Summarize(p)
	reply := formatDay(day) + "\n" + plan.MotivationalMessage(summary.Percent)
	t.send(chatID, reply, nil)
}

func (t *TelegramBot) handleProgress(ctx context.Context, chatID, userID int64) {
	us, p, ok := t.currentPlan(ctx, chatID, userID)
	if !ok {
		return
	}
	us.mu.Lock()
	text := formatProgress(plan.Summarize(p))
	us.mu.Unlock()
	t.send(chatID, text, nil)
}

func (t *TelegramBot) handleHistory(ctx context.Context, chatID, userID int64) {
	us := t.session(ctx, userID)
	t.send(chatID, formatHistory(us.coach.Transcript(time.Now()), historyLimit), nil)
}

func (t *TelegramBot) handleClear(ctx context.Context, chatID, userID int64) {
	us := t.session(ctx, userID)
	if err := us.coach.Clear(); err != nil {
		if errors.Is(err, coach.ErrTurnInProgress) {
			t.send(chatID, "I'm still answering your last question. Try again in a moment.", nil)
			return
		}
		t.logger.Errorw("Failed to clear conversation", "user_id", userID, "error", err)
		t.send(chatID, "Sorry, I couldn't clear the conversation.", nil)
		return
	}
	us.mu.Lock()
	us.warned = false
	us.mu.Unlock()
	t.send(chatID, "🧹 Conversation cleared.", nil)
}

func (t *TelegramBot) handleRetry(ctx context.Context, chatID, userID int64) {
	us := t.session(ctx, userID)
	t.typing(chatID)

	reply, err := us.coach.Resume(ctx)
	if errors.Is(err, coach.ErrNothingPending) {
		t.send(chatID, "There is nothing waiting for an answer.", nil)
		return
	}
	t.deliver(chatID, userID, reply, err)
}

// handleQuestion sends free text to the coach. Failures are shown to the user
// only; the durable log keeps the question and nothing else.
func (t *TelegramBot) handleQuestion(ctx context.Context, chatID, userID int64, text string) {
	us := t.session(ctx, userID)

	us.mu.Lock()
	warn := !us.warned && us.coach.HasPending()
	us.warned = true
	us.mu.Unlock()
	if warn {
		t.send(chatID, pendingWarning(us.coach.PendingCount()), nil)
	}

	t.typing(chatID)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	results := us.coach.AskAsync(ctx, text)
	for {
		select {
		case res := <-results:
			t.deliver(chatID, userID, res.Text, res.Err)
			return
		case <-ticker.C:
			t.typing(chatID)
		}
	}
}

func (t *TelegramBot) deliver(chatID, userID int64, reply string, err error) {
	switch {
	case err == nil:
		t.send(chatID, reply, nil)
	case errors.Is(err, coach.ErrEmptyQuestion):
	case errors.Is(err, coach.ErrTurnInProgress):
		t.send(chatID, "I'm still answering your previous question, hang on.", nil)
	case backend.IsRetryable(err):
		t.logger.Warnw("Coach unreachable", "user_id", userID, "error", err)
		t.send(chatID, "⚠️ I couldn't reach the coach. Send the same message again or /retry in a moment.", nil)
	default:
		t.logger.Errorw("Coach failed", "user_id", userID, "status", backend.StatusCode(err), "error", err)
		t.send(chatID, "⚠️ The coach is unavailable right now. Please try again later.", nil)
	}
}
