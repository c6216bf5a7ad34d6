package core

import (
	"strings"

	"gwi.com/botgpt/internal/store"
)

type Mode string

const (
	ModeOpenChat Mode = "open_chat"
	ModeRAG      Mode = "rag"
)

// ParseMode accepts the two conversation modes; an empty value means open_chat.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.TrimSpace(s)) {
	case "", ModeOpenChat:
		return ModeOpenChat, nil
	case ModeRAG:
		return ModeRAG, nil
	}
	return "", NewValidationError("unsupported mode %q: must be %q or %q", s, ModeOpenChat, ModeRAG)
}

// Turn is one entry of the history handed to a ReplyProvider.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Reply struct {
	Content string
	Tokens  int
}

// ConversationView is a conversation together with its messages, oldest first.
type ConversationView struct {
	store.Conversation
	Messages []store.Message `json:"messages"`
}

func toHistory(messages []store.Message) []Turn {
	history := make([]Turn, 0, len(messages)+1)
	for _, m := range messages {
		history = append(history, Turn{Role: m.Role, Content: m.Content})
	}
	return history
}
