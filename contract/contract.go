//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"pairchat/domain/event"
)

type WorkerName string

// Worker doesn't protect itself.
// Supervision (panic recovery, restart) lives in the supervisor.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in the Worker
// interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink consumes fanned-out domain events for one subscriber.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry tracks the sinks of currently connected subscribers.
// Subscribers joining after an event was published never see it.
type IRegistry interface {
	Sinks() []EventSink
	Subscribe(subscriberID string, sink EventSink)
	Unsubscribe(subscriberID string)
}

// Publisher is the write side of the broadcast fanout.
type Publisher interface {
	Publish(e event.DomainEvent)
}
