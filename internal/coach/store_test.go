package coach

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitness-coach/internal/kv"
	"fitness-coach/internal/models"
	"fitness-coach/pkg/logger"
)

// flakyKV fails writes while failSet is true.
type flakyKV struct {
	*kv.MemoryStore
	failSet bool
}

func (f *flakyKV) Set(key, value string) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.MemoryStore.Set(key, value)
}

func TestConversationStore_AppendPersists(t *testing.T) {
	mem := kv.NewMemoryStore()
	s := NewConversationStore(mem, "coach", logger.NewNop())

	require.NoError(t, s.Append(models.RoleUser, "hi"))
	require.NoError(t, s.Append(models.RoleAssistant, "hello"))

	raw, ok, err := mem.Get("coach/chat_history")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]`, raw)

	reopened := NewConversationStore(mem, "coach", logger.NewNop())
	assert.Equal(t, s.Messages(), reopened.Messages())
}

func TestConversationStore_MissingOrCorruptLoadsEmpty(t *testing.T) {
	mem := kv.NewMemoryStore()
	s := NewConversationStore(mem, "coach", logger.NewNop())
	assert.Empty(t, s.Messages())
	assert.False(t, s.HasPending())

	require.NoError(t, mem.Set("coach/chat_history", `[{"role":"user","content":`))
	require.NoError(t, mem.Set("coach/pending_messages", `{"not":"a list"}`))
	s = NewConversationStore(mem, "coach", logger.NewNop())
	assert.Empty(t, s.Messages())
	assert.Equal(t, 0, s.PendingCount())
}

func TestConversationStore_LegacyPending(t *testing.T) {
	mem := kv.NewMemoryStore()
	require.NoError(t, mem.Set("coach/pending_messages", `["hi","hi","how many sets?"]`))

	s := NewConversationStore(mem, "coach", logger.NewNop())
	turns := s.PendingTurns()
	require.Len(t, turns, 3)
	assert.Equal(t, "hi", turns[0].Text)
	assert.NotEmpty(t, turns[0].ID)
	assert.NotEqual(t, turns[0].ID, turns[1].ID)
}

func TestConversationStore_PendingByID(t *testing.T) {
	mem := kv.NewMemoryStore()
	s := NewConversationStore(mem, "coach", logger.NewNop())

	first, err := s.MarkPending("same text")
	require.NoError(t, err)
	second, err := s.MarkPending("same text")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, s.PendingCount())

	require.NoError(t, s.ClearPending(first.ID))
	assert.Equal(t, 1, s.PendingCount())
	found, ok := s.FindPending("same text")
	require.True(t, ok)
	assert.Equal(t, second.ID, found.ID)

	require.NoError(t, s.ClearPending("unknown"))
	assert.True(t, s.HasPending())

	reopened := NewConversationStore(mem, "coach", logger.NewNop())
	assert.Equal(t, s.PendingTurns()[0].ID, reopened.PendingTurns()[0].ID)
}

func TestConversationStore_Clear(t *testing.T) {
	mem := kv.NewMemoryStore()
	s := NewConversationStore(mem, "coach", logger.NewNop())
	require.NoError(t, s.Append(models.RoleUser, "hi"))
	_, err := s.MarkPending("hi")
	require.NoError(t, err)

	require.NoError(t, s.Clear())
	assert.Empty(t, s.Messages())
	assert.False(t, s.HasPending())

	_, ok, _ := mem.Get("coach/chat_history")
	assert.False(t, ok)
	_, ok, _ = mem.Get("coach/pending_messages")
	assert.False(t, ok)
}

func TestConversationStore_WriteFailureKeepsState(t *testing.T) {
	store := &flakyKV{MemoryStore: kv.NewMemoryStore()}
	s := NewConversationStore(store, "coach", logger.NewNop())
	require.NoError(t, s.Append(models.RoleUser, "first"))
	turn, err := s.MarkPending("first")
	require.NoError(t, err)

	store.failSet = true
	assert.Error(t, s.Append(models.RoleAssistant, "lost"))
	_, err = s.MarkPending("second")
	assert.Error(t, err)
	assert.Error(t, s.ClearPending(turn.ID))

	assert.Equal(t, []models.ChatMessage{{Role: models.RoleUser, Content: "first"}}, s.Messages())
	assert.Equal(t, 1, s.PendingCount())

	reopened := NewConversationStore(store, "coach", logger.NewNop())
	assert.Equal(t, s.Messages(), reopened.Messages())
}

func TestConversationStore_NamespacesAreIsolated(t *testing.T) {
	mem := kv.NewMemoryStore()
	a := NewConversationStore(mem, "coach/1", logger.NewNop())
	b := NewConversationStore(mem, "coach/2", logger.NewNop())

	require.NoError(t, a.Append(models.RoleUser, "only a"))
	assert.Len(t, a.Messages(), 1)
	assert.Empty(t, b.Messages())
}
