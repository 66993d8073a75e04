package activity

import (
	"context"
	"sync"
)

// CaptureHook keeps every event it receives. It is the fake used by tests of
// code that emits state events.
type CaptureHook struct {
	// Err is returned from every Notify call after the event is recorded.
	Err    error
	Events []Event

	mu sync.Mutex
}

// Notify records event.
func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = append(h.Events, event)
	return h.Err
}

// Verbs returns the verbs received so far, in order.
func (h *CaptureHook) Verbs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	verbs := make([]string, len(h.Events))
	for i, event := range h.Events {
		verbs[i] = event.Verb
	}
	return verbs
}

// Last returns the most recent event.
func (h *CaptureHook) Last() (Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.Events) == 0 {
		return Event{}, false
	}
	return h.Events[len(h.Events)-1], true
}
