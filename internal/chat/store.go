package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pagelens/pagelens/internal/model"
)

// Store is the append-only conversation log. Messages are never edited or
// removed; tool results arrive as new entries.
type Store struct {
	mu       sync.RWMutex
	messages []model.ChatMessage
}

func NewStore() *Store {
	return &Store{}
}

// Append adds a message to the end of the log.
func (s *Store) Append(msg model.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// History returns a copy of the full log in append order.
func (s *Store) History() []model.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len reports the number of stored messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Load replaces the log with a previously exported history.
func (s *Store) Load(history []model.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = make([]model.ChatMessage, len(history))
	copy(s.messages, history)
}

// NewUserMessage builds a user-authored entry with a fresh id and timestamp.
func NewUserMessage(content string) model.ChatMessage {
	return model.ChatMessage{
		ID:        uuid.NewString(),
		Role:      model.RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewAssistantMessage builds an assistant entry, optionally carrying the tool
// call or result it reports on.
func NewAssistantMessage(content string, call *model.ToolCall, result *model.ToolResult) model.ChatMessage {
	return model.ChatMessage{
		ID:         uuid.NewString(),
		Role:       model.RoleAssistant,
		Content:    content,
		Timestamp:  time.Now(),
		ToolCall:   call,
		ToolResult: result,
	}
}
