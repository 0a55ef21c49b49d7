package runtime

import (
	"sync"

	"pairchat/contract"
)

// Registry tracks the event sinks of currently connected subscribers.
// There is a single conversation, so membership is flat: one sink per
// subscriber session. Events are never replayed; a subscriber that connects
// after a publish recovers state through the recent-messages query.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.EventSink
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]contract.EventSink)}
}

// Sinks snapshots the currently registered sinks.
func (r *Registry) Sinks() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks := make([]contract.EventSink, 0, len(r.sessions))
	for _, sink := range r.sessions {
		sinks = append(sinks, sink)
	}
	return sinks
}

// Subscribe registers a subscriber's active connection. Re-subscribing the
// same id replaces the previous sink.
func (r *Registry) Subscribe(subscriberID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[subscriberID] = sink
}

// Unsubscribe drops a subscriber. Unknown ids are a no-op so disconnect
// paths can call it unconditionally.
func (r *Registry) Unsubscribe(subscriberID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, subscriberID)
}
