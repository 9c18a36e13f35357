package coach

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fitness-coach/internal/kv"
	"fitness-coach/internal/models"
	"fitness-coach/pkg/logger"
)

const (
	historyKey = "chat_history"
	pendingKey = "pending_messages"
)

// ConversationStore keeps the durable chat log and the set of turns still
// waiting for a completion. Every mutation rewrites the whole persisted value
// before returning; if that write fails the in-memory state is rolled back so
// it never runs ahead of storage.
type ConversationStore struct {
	mu       sync.RWMutex
	kv       kv.Store
	prefix   string
	logger   *logger.Logger
	now      func() time.Time
	messages []models.ChatMessage
	pending  []models.PendingTurn
}

// NewConversationStore loads any state persisted under namespace.
func NewConversationStore(store kv.Store, namespace string, log *logger.Logger) *ConversationStore {
	s := &ConversationStore{
		kv:     store,
		prefix: strings.TrimSuffix(namespace, "/"),
		logger: log,
		now:    time.Now,
	}
	s.Load()
	return s
}

func (s *ConversationStore) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

// Load re-reads both persisted values. Missing or unreadable values load as
// empty.
func (s *ConversationStore) Load() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = s.loadMessages()
	s.pending = s.loadPending()
	s.logger.Infow("Conversation loaded",
		"namespace", s.prefix,
		"messages", len(s.messages),
		"pending", len(s.pending),
	)
	return cloneMessages(s.messages)
}

func (s *ConversationStore) loadMessages() []models.ChatMessage {
	raw, ok := s.read(historyKey)
	if !ok {
		return nil
	}
	var msgs []models.ChatMessage
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		s.logger.Warnw("Discarding unreadable chat history", "namespace", s.prefix, "error", err)
		return nil
	}
	return msgs
}

// loadPending also accepts the older format, a plain array of message texts.
func (s *ConversationStore) loadPending() []models.PendingTurn {
	raw, ok := s.read(pendingKey)
	if !ok {
		return nil
	}
	var turns []models.PendingTurn
	if err := json.Unmarshal([]byte(raw), &turns); err == nil {
		return turns
	}
	var texts []string
	if err := json.Unmarshal([]byte(raw), &texts); err != nil {
		s.logger.Warnw("Discarding unreadable pending turns", "namespace", s.prefix, "error", err)
		return nil
	}
	turns = make([]models.PendingTurn, 0, len(texts))
	for _, t := range texts {
		turns = append(turns, models.PendingTurn{ID: uuid.NewString(), Text: t, CreatedAt: s.now()})
	}
	return turns
}

func (s *ConversationStore) read(name string) (string, bool) {
	raw, ok, err := s.kv.Get(s.key(name))
	if err != nil {
		s.logger.Warnw("Failed to read conversation state", "key", s.key(name), "error", err)
		return "", false
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return "", false
	}
	return raw, true
}

func (s *ConversationStore) write(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if err := s.kv.Set(s.key(name), string(data)); err != nil {
		return fmt.Errorf("failed to persist %s: %w", name, err)
	}
	return nil
}

// Append adds a turn to the log and persists the whole log.
func (s *ConversationStore) Append(role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(cloneMessages(s.messages), models.ChatMessage{Role: role, Content: content})
	if err := s.write(historyKey, next); err != nil {
		return err
	}
	s.messages = next
	return nil
}

// Messages returns a copy of the log in arrival order.
func (s *ConversationStore) Messages() []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMessages(s.messages)
}

// Last returns the most recent turn.
func (s *ConversationStore) Last() (models.ChatMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.messages) == 0 {
		return models.ChatMessage{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// MarkPending records a new in-flight turn under a fresh id.
func (s *ConversationStore) MarkPending(text string) (models.PendingTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn := models.PendingTurn{ID: uuid.NewString(), Text: text, CreatedAt: s.now()}
	next := append(clonePending(s.pending), turn)
	if err := s.write(pendingKey, next); err != nil {
		return models.PendingTurn{}, err
	}
	s.pending = next
	return turn, nil
}

// ClearPending drops the turn with the given id. Unknown ids are a no-op.
func (s *ConversationStore) ClearPending(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.PendingTurn, 0, len(s.pending))
	for _, t := range s.pending {
		if t.ID != id {
			next = append(next, t)
		}
	}
	if len(next) == len(s.pending) {
		return nil
	}
	if err := s.write(pendingKey, next); err != nil {
		return err
	}
	s.pending = next
	return nil
}

// FindPending returns the oldest pending turn whose text matches exactly.
func (s *ConversationStore) FindPending(text string) (models.PendingTurn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.pending {
		if t.Text == text {
			return t, true
		}
	}
	return models.PendingTurn{}, false
}

// PendingTurns returns the in-flight turns, oldest first.
func (s *ConversationStore) PendingTurns() []models.PendingTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePending(s.pending)
}

func (s *ConversationStore) HasPending() bool {
	return s.PendingCount() > 0
}

func (s *ConversationStore) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

// Clear empties the log and the pending set and removes both keys.
func (s *ConversationStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Remove(s.key(historyKey)); err != nil {
		return fmt.Errorf("failed to remove %s: %w", historyKey, err)
	}
	s.messages = nil
	if err := s.kv.Remove(s.key(pendingKey)); err != nil {
		return fmt.Errorf("failed to remove %s: %w", pendingKey, err)
	}
	s.pending = nil
	return nil
}

func cloneMessages(in []models.ChatMessage) []models.ChatMessage {
	if in == nil {
		return nil
	}
	out := make([]models.ChatMessage, len(in))
	copy(out, in)
	return out
}

func clonePending(in []models.PendingTurn) []models.PendingTurn {
	if in == nil {
		return nil
	}
	out := make([]models.PendingTurn, len(in))
	copy(out, in)
	return out
}
