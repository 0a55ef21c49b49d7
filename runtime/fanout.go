// Package runtime handles event propagation and background sweeps.
// It orchestrates the system without containing business logic or domain rules.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pairchat/contract"
	"pairchat/domain/event"
)

// Fanout broadcasts domain events to every currently connected subscriber
// plus a fixed set of permanent sinks (storage-adjacent consumers such as
// the search index and the stats counters).
//
// Delivery is best-effort: no replay, no retries, no durability. A given
// subscriber sees events in publish order because a single goroutine drains
// the queue. Fanout is not a message broker.
//
// Fanout is safe for concurrent use by multiple goroutines.
type Fanout struct {
	log            *slog.Logger
	registry       contract.IRegistry
	permanentSinks []contract.EventSink
	events         chan event.DomainEvent
	sinkTimeout    time.Duration
}

func NewFanout(log *slog.Logger, registry contract.IRegistry, bufferSize int, sinkTimeout time.Duration) *Fanout {
	return &Fanout{
		log:         log,
		registry:    registry,
		events:      make(chan event.DomainEvent, bufferSize),
		sinkTimeout: sinkTimeout,
	}
}

// Add registers permanent sinks that receive every event for the lifetime of
// the process, independent of subscriber sessions.
func (f *Fanout) Add(sinks ...contract.EventSink) *Fanout {
	f.permanentSinks = append(f.permanentSinks, sinks...)
	return f
}

// Publish enqueues an event for broadcast. It never blocks the caller: when
// the queue is saturated the event is dropped with a warning, since the
// originating write is already durable and subscribers can resynchronize
// through the recent-messages query.
func (f *Fanout) Publish(e event.DomainEvent) {
	select {
	case f.events <- e:
	default:
		f.log.Warn(fmt.Sprintf("Event queue full, dropping %s event", e.Kind()))
	}
}

// Run drains the queue until the context is cancelled.
func (f *Fanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-f.events:
			f.deliver(ctx, evt)
		case <-ctx.Done():
			f.log.Debug("Context done, stopping fanout")
			return nil
		}
	}
}

// deliver pushes one event to every sink. A failing sink is logged and
// skipped; it never fails the broadcast for the others.
func (f *Fanout) deliver(ctx context.Context, evt event.DomainEvent) {
	sinks := make([]contract.EventSink, 0, len(f.permanentSinks))
	sinks = append(sinks, f.permanentSinks...)
	sinks = append(sinks, f.registry.Sinks()...)
	for _, sink := range sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, f.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			f.log.Error("Failed to deliver event to sink",
				"kind", evt.Kind(),
				"error", err)
		}
		cancel()
	}
}
