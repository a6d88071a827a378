package session

import (
	"sync"

	"github.com/dgallion1/pagelens/internal/highlight"
)

const defaultOutboxSize = 64

// Outbox buffers notifications until the popup drains them. When full the
// oldest event is dropped.
type Outbox struct {
	mu     sync.Mutex
	events []highlight.Event
	max    int
}

func NewOutbox(max int) *Outbox {
	if max <= 0 {
		max = defaultOutboxSize
	}
	return &Outbox{max: max}
}

func (o *Outbox) Notify(e highlight.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.events) == o.max {
		o.events = o.events[1:]
	}
	o.events = append(o.events, e)
}

// Drain returns and removes all pending events, never nil.
func (o *Outbox) Drain() []highlight.Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.events
	o.events = nil
	if out == nil {
		out = []highlight.Event{}
	}
	return out
}
