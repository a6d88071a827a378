package session

import (
	"errors"

	"github.com/dgallion1/pagelens/internal/chat"
	"github.com/dgallion1/pagelens/internal/highlight"
)

// Kind names a session command.
type Kind string

const (
	KindRequestPageSummary Kind = "REQUEST_PAGE_SUMMARY"
	KindForceReload        Kind = "FORCE_RELOAD_SUMMARY"
	KindGetChatHistory     Kind = "GET_CHAT_HISTORY"
	KindAddChatMessage     Kind = "ADD_CHAT_MESSAGE"
	KindClearChatHistory   Kind = "CLEAR_CHAT_HISTORY"
	KindHighlightSource    Kind = "HIGHLIGHT_SOURCE"
	KindAskQuestion        Kind = "ASK_QUESTION"
	KindGetEvents          Kind = "GET_EVENTS"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidCommand = errors.New("invalid command")
	ErrNotReady       = errors.New("page summary not ready")
	ErrNotFound       = errors.New("session not found")
	ErrClosed         = errors.New("session closed")
)

// Command is a request crossing the session boundary. Only the fields
// relevant to Kind are read.
type Command struct {
	Kind     Kind          `json:"type" validate:"required"`
	Message  *chat.Message `json:"message,omitempty" validate:"-"`
	Text     string        `json:"text,omitempty"`
	Question string        `json:"question,omitempty"`
	// Highlight feeds a successful answer to the matcher.
	Highlight bool `json:"highlight,omitempty"`
}

// SummaryResponse answers the readiness query. Summary is null until a run
// has produced a result, and again while a reload is in flight.
type SummaryResponse struct {
	Summary        *string `json:"summary"`
	Ready          bool    `json:"ready"`
	URL            string  `json:"url"`
	ExtractSuccess bool    `json:"extractSuccess"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type HistoryResponse struct {
	History []chat.Message `json:"history"`
}

type HighlightResponse struct {
	Success bool              `json:"success"`
	Matches []highlight.Match `json:"matches,omitempty"`
}

type AskResponse struct {
	Success bool   `json:"success"`
	Answer  string `json:"answer"`
}

type EventsResponse struct {
	Events []highlight.Event `json:"events"`
}
