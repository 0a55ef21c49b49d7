package sink

import (
	"context"

	"pairchat/domain/event"
	"pairchat/observability"
)

// StatsSink feeds the health-probe counters from the event stream.
type StatsSink struct {
	stats *observability.Stats
}

func NewStatsSink(stats *observability.Stats) StatsSink {
	return StatsSink{stats: stats}
}

func (s StatsSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.stats.EventDelivered()
	switch e.(type) {
	case event.MessageCreated:
		s.stats.MessageCreated()
	case event.MessageDeleted:
		s.stats.MessageDeleted()
	}
	return nil
}
