// Package chat keeps the question/answer transcript of a page session.
package chat

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

type Role string

const (
	RoleQuestion Role = "question"
	RoleAnswer   Role = "answer"
)

// ErrInvalidMessage is returned by Append for a message with an unknown role or empty text.
var ErrInvalidMessage = errors.New("invalid chat message")

// Message is one transcript entry. Messages carry no ids; order is arrival order.
type Message struct {
	Role Role   `json:"role" validate:"required,oneof=question answer"`
	Text string `json:"text" validate:"required"`
}

var validate = validator.New()

// Validate reports whether m may be appended to a history.
func (m Message) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return nil
}

// History is an append-only transcript. Only Clear removes entries.
type History struct {
	mu       sync.RWMutex
	messages []Message
}

func NewHistory() *History {
	return &History{}
}

func (h *History) Append(m Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, m)
	return nil
}

// Messages returns a copy of the transcript, never nil.
func (h *History) Messages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}
