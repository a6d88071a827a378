// Package highlight marks the document elements that lexically support an answer.
package highlight

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dgallion1/pagelens/internal/docview"
	"github.com/dgallion1/pagelens/internal/textmatch"
)

const (
	CandidateSelector = "p,li,blockquote,span"
	MinScore          = 3
	MaxMatches        = 5
	MarkerClass       = "semantic-highlight"
	DefaultDwell      = 9 * time.Second

	StyleID   = "semantic-highlight-style"
	MarkerCSS = `.semantic-highlight {
  background: linear-gradient(90deg, rgba(255, 235, 59, 0.55), rgba(255, 193, 7, 0.35));
  border-radius: 4px;
  box-shadow: 0 0 0 2px rgba(255, 193, 7, 0.6);
  transition: background 0.4s ease;
  animation: semanticGlow 1.5s ease-in-out 2;
}
@keyframes semanticGlow {
  0% { box-shadow: 0 0 0 0 rgba(255, 193, 7, 0.7); }
  50% { box-shadow: 0 0 12px 4px rgba(255, 193, 7, 0.9); }
  100% { box-shadow: 0 0 0 2px rgba(255, 193, 7, 0.6); }
}`
)

// EventNoMatch is the type of the notification sent when nothing qualifies.
const EventNoMatch = "SEMANTIC_HIGHLIGHT_ERROR"

const NoMatchMessage = "⚠️ No semantic highlight matches found"

// Event is a fire-and-forget notification toward the popup.
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Notifier receives matcher events.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

// StyleInjector is implemented by documents that accept stylesheet injection.
type StyleInjector interface {
	InjectStyle(id, css string)
}

// Match is one selected element.
type Match struct {
	Element docview.Element `json:"-" yaml:"-"`
	Locator string          `json:"locator" yaml:"locator"`
	Text    string          `json:"text" yaml:"text"`
	Score   int             `json:"score" yaml:"score"`
}

// Matcher applies and expires highlight markers on one document.
type Matcher struct {
	doc    docview.Document
	docMu  sync.Locker
	notify Notifier
	dwell  time.Duration
	log    *slog.Logger

	mu     sync.Mutex
	timer  *time.Timer
	gen    uint64
	marked []docview.Element
	closed bool
}

// NewMatcher creates a matcher. docMu serializes document access with other
// users of doc; a nil docMu gives the matcher its own lock.
func NewMatcher(doc docview.Document, docMu sync.Locker, notify Notifier, dwell time.Duration, log *slog.Logger) *Matcher {
	if docMu == nil {
		docMu = &sync.Mutex{}
	}
	if notify == nil {
		notify = NotifierFunc(func(Event) {})
	}
	if dwell <= 0 {
		dwell = DefaultDwell
	}
	if log == nil {
		log = slog.Default()
	}
	return &Matcher{doc: doc, docMu: docMu, notify: notify, dwell: dwell, log: log}
}

// Highlight marks up to MaxMatches elements that share at least MinScore
// distinct tokens with answer and returns them, best first. Markers are
// removed after the dwell or by the next call, whichever comes first.
func (m *Matcher) Highlight(answer string) []Match {
	if answer == "" {
		return nil
	}
	answerTokens := textmatch.Tokenize(answer)

	m.docMu.Lock()
	defer m.docMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}

	m.cancelTimerLocked()
	m.clearLocked()

	matches := Rank(m.doc, answerTokens)
	if len(matches) == 0 {
		m.log.Warn("no semantic highlight matches", "answer_tokens", len(answerTokens))
		m.notify.Notify(Event{Type: EventNoMatch, Message: NoMatchMessage})
		return nil
	}

	if inj, ok := m.doc.(StyleInjector); ok {
		inj.InjectStyle(StyleID, MarkerCSS)
	}
	for _, match := range matches {
		match.Element.AddClass(MarkerClass)
		m.marked = append(m.marked, match.Element)
	}
	m.doc.ScrollIntoView(matches[0].Element, docview.ScrollOptions{Behavior: "smooth", Block: "center"})

	gen := m.gen
	m.timer = time.AfterFunc(m.dwell, func() { m.expire(gen) })

	m.log.Info("highlighted source", "matches", len(matches), "top_score", matches[0].Score)
	return matches
}

// Rank scores the visible candidate elements of doc against answer tokens
// and returns the qualifying ones, best first with ties in document order.
func Rank(doc docview.Document, answerTokens []string) []Match {
	var matches []Match
	for _, el := range doc.Query(CandidateSelector) {
		if !el.Visible() {
			continue
		}
		text := el.Text()
		score := textmatch.OverlapScore(answerTokens, textmatch.Tokenize(text))
		if score < MinScore {
			continue
		}
		matches = append(matches, Match{Element: el, Locator: el.Locator(), Text: text, Score: score})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > MaxMatches {
		matches = matches[:MaxMatches]
	}
	return matches
}

// Clear removes all markers now and cancels the pending expiry.
func (m *Matcher) Clear() {
	m.docMu.Lock()
	defer m.docMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelTimerLocked()
	m.clearLocked()
}

// Close cancels the pending expiry. Later calls to Highlight do nothing.
func (m *Matcher) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelTimerLocked()
	m.closed = true
}

// Marked returns the number of elements currently carrying markers.
func (m *Matcher) Marked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.marked)
}

func (m *Matcher) expire(gen uint64) {
	m.docMu.Lock()
	defer m.docMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	// A newer highlight owns the markers.
	if gen != m.gen {
		return
	}
	m.timer = nil
	m.clearLocked()
}

func (m *Matcher) cancelTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.gen++
}

func (m *Matcher) clearLocked() {
	for _, el := range m.marked {
		el.RemoveClass(MarkerClass)
	}
	m.marked = nil
	for _, el := range m.doc.Query("." + MarkerClass) {
		el.RemoveClass(MarkerClass)
	}
}
