package models

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a persisted conversation turn.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PendingTurn is a user message still waiting for a completion.
type PendingTurn struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayMessage is the front-end projection of a turn. Timestamp is the
// capture time of the projection, not the send time.
type DisplayMessage struct {
	Text      string
	IsAI      bool
	Timestamp time.Time
}

// ToDisplay projects persisted turns for rendering. Content is copied as-is.
func ToDisplay(msgs []ChatMessage, now time.Time) []DisplayMessage {
	out := make([]DisplayMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, DisplayMessage{
			Text:      m.Content,
			IsAI:      m.Role == RoleAssistant,
			Timestamp: now,
		})
	}
	return out
}
