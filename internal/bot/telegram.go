package bot

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"fitness-coach/internal/coach"
	"fitness-coach/internal/kv"
	"fitness-coach/internal/models"
	"fitness-coach/pkg/logger"
)

// ProfileStore keeps survey answers.
type ProfileStore interface {
	SaveProfile(ctx context.Context, p *models.UserProfile) error
	FetchProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

// PlanService loads, generates and updates workout plans.
type PlanService interface {
	Load(ctx context.Context, userID string) (*models.WorkoutPlan, error)
	LoadOrGenerate(ctx context.Context, userID string, profile *models.UserProfile) (*models.WorkoutPlan, error)
	Generate(ctx context.Context, userID string, profile *models.UserProfile) (*models.WorkoutPlan, error)
	SetCompleted(ctx context.Context, p *models.WorkoutPlan, dayIndex int, exerciseName string, completed bool) error
}

type Options struct {
	Token         string
	Debug         bool
	Namespace     string
	HistoryWindow int
	Instructions  string
	Timeout       time.Duration
}

// userSession is the per-user state kept between updates.
type userSession struct {
	coach  *coach.Session
	plan   *models.WorkoutPlan
	warned bool
	mu     sync.Mutex
	loaded sync.Once
}

type TelegramBot struct {
	bot        *tgbotapi.BotAPI
	profiles   ProfileStore
	plans      PlanService
	completer  coach.Completer
	kv         kv.Store
	assembler  *coach.ContextAssembler
	opts       Options
	logger     *logger.Logger
	surveys    map[int64]*survey
	sessions   map[int64]*userSession
	stateMutex sync.RWMutex
}

func NewTelegramBot(opts Options, profiles ProfileStore, plans PlanService, completer coach.Completer, store kv.Store, logger *logger.Logger) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(opts.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	bot.Debug = opts.Debug

	logger.Infow("Authorized on Telegram", "username", bot.Self.UserName)

	return &TelegramBot{
		bot:       bot,
		profiles:  profiles,
		plans:     plans,
		completer: completer,
		kv:        store,
		assembler: coach.NewContextAssembler(opts.HistoryWindow),
		opts:      opts,
		logger:    logger,
		surveys:   make(map[int64]*survey),
		sessions:  make(map[int64]*userSession),
	}, nil
}

// Start begins receiving updates from Telegram via polling
func (t *TelegramBot) Start(ctx context.Context) error {
	// First, remove any existing webhook to ensure we can use polling
	t.logger.Info("Removing any existing webhook")
	_, err := t.bot.Request(tgbotapi.DeleteWebhookConfig{
		DropPendingUpdates: false,
	})
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := t.bot.GetUpdatesChan(updateConfig)

	t.logger.Info("Started receiving Telegram updates")

	go t.handleUpdates(ctx, updates)

	return nil
}

// handleUpdates processes incoming updates from Telegram
func (t *TelegramBot) handleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		go func(update tgbotapi.Update) {
			// Add recovery for panics
			defer func() {
				if r := recover(); r != nil {
					t.logger.Errorw("Recovered from panic while processing update", "error", r)
				}
			}()

			if update.Message != nil && update.Message.From != nil {
				t.logger.Debugw("Received message",
					"update_id", update.UpdateID,
					"chat_id", update.Message.Chat.ID,
					"user_id", update.Message.From.ID)

				if update.Message.IsCommand() {
					t.handleCommand(ctx, update.Message)
				} else {
					t.handleMessage(ctx, update.Message)
				}
			} else if update.CallbackQuery != nil {
				callback := tgbotapi.NewCallback(update.CallbackQuery.ID, "")
				if _, err := t.bot.Request(callback); err != nil {
					t.logger.Warnw("Failed to answer callback query", "error", err)
				}
			}
		}(update)
	}
}

// handleCommand processes bot commands
func (t *TelegramBot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()
	chatID := message.Chat.ID
	userID := message.From.ID

	t.logger.Infow("Handling command", "command", command, "user_id", userID)

	switch command {
	case "start":
		t.startSurvey(chatID, userID, message.From.FirstName)
	case "plan":
		t.handlePlan(ctx, chatID, userID)
	case "today":
		t.handleToday(ctx, chatID, userID)
	case "done":
		t.handleMark(ctx, chatID, userID, message.CommandArguments(), true)
	case "undo":
		t.handleMark(ctx, chatID, userID, message.CommandArguments(), false)
	case "progress":
		t.handleProgress(ctx, chatID, userID)
	case "history":
		t.handleHistory(ctx, chatID, userID)
	case "retry":
		t.handleRetry(ctx, chatID, userID)
	case "clear":
		t.handleClear(ctx, chatID, userID)
	case "help":
		t.send(chatID, helpText, nil)
	default:
		t.send(chatID, "Unknown command. Send /help to see what I can do.", nil)
	}
}

// handleMessage routes plain text to the survey when one is running and to
// the coach otherwise.
func (t *TelegramBot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	userID := message.From.ID

	t.stateMutex.RLock()
	s, inSurvey := t.surveys[userID]
	t.stateMutex.RUnlock()

	if inSurvey {
		t.handleSurveyAnswer(ctx, chatID, userID, s, message.Text)
		return
	}
	t.handleQuestion(ctx, chatID, userID, message.Text)
}

// Stop gracefully shuts down the bot
func (t *TelegramBot) Stop(ctx context.Context) error {
	t.bot.StopReceivingUpdates()

	// Allow time for handlers to complete
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(500 * time.Millisecond):
		return nil
	}
}

// session returns the user's coach session, creating it on first use. Callers
// block until the session's profile and plan snapshots are loaded.
func (t *TelegramBot) session(ctx context.Context, userID int64) *userSession {
	id := strconv.FormatInt(userID, 10)

	t.stateMutex.Lock()
	us, ok := t.sessions[userID]
	if !ok {
		store := coach.NewConversationStore(t.kv, t.opts.Namespace+"/"+id, t.logger)
		us = &userSession{
			coach: coach.NewSession(coach.SessionConfig{
				UserID:       id,
				Instructions: t.opts.Instructions,
				Timeout:      t.opts.Timeout,
			}, store, t.assembler, t.completer, t.logger),
		}
		t.sessions[userID] = us
	}
	t.stateMutex.Unlock()

	us.loaded.Do(func() {
		if err := us.coach.LoadContext(ctx, t.profiles, planCache{us: us, plans: t.plans}); err != nil {
			t.logger.Warnw("Coach context incomplete", "user_id", userID, "error", err)
		}
	})
	return us
}

// planCache loads the plan through the service and keeps a copy on the
// user session for the plan commands.
type planCache struct {
	us    *userSession
	plans PlanService
}

func (c planCache) Load(ctx context.Context, userID string) (*models.WorkoutPlan, error) {
	p, err := c.plans.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.us.mu.Lock()
	c.us.plan = p
	c.us.mu.Unlock()
	return p, nil
}

func (t *TelegramBot) send(chatID int64, text string, markup interface{}) {
	chunks := splitMessage(text, maxMessageLength)
	for i, chunk := range chunks {
		msg := tgbotapi.NewMessage(chatID, chunk)
		if i == len(chunks)-1 && markup != nil {
			msg.ReplyMarkup = markup
		}
		if _, err := t.bot.Send(msg); err != nil {
			t.logger.Errorw("Failed to send message", "chat_id", chatID, "error", err)
			return
		}
	}
}

func (t *TelegramBot) sendPrompt(chatID int64, p prompt) {
	if len(p.Options) == 0 {
		t.send(chatID, p.Text, tgbotapi.NewRemoveKeyboard(true))
		return
	}
	rows := make([][]tgbotapi.KeyboardButton, 0, len(p.Options))
	for _, opts := range p.Options {
		row := make([]tgbotapi.KeyboardButton, 0, len(opts))
		for _, o := range opts {
			row = append(row, tgbotapi.NewKeyboardButton(o))
		}
		rows = append(rows, row)
	}
	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.OneTimeKeyboard = true
	t.send(chatID, p.Text, keyboard)
}

func (t *TelegramBot) typing(chatID int64) {
	if _, err := t.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		t.logger.Debugw("Failed to send typing action", "chat_id", chatID, "error", err)
	}
}
