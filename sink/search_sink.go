package sink

import (
	"context"
	"log/slog"

	"pairchat/domain/event"
	"pairchat/search"
)

// SearchSink keeps the full-text index in step with the message lifecycle.
// It is registered as a permanent fanout sink, so explicit deletes and
// reaper-driven expiry both evict index entries through the same path.
type SearchSink struct {
	index *search.Index
	log   *slog.Logger
}

func NewSearchSink(index *search.Index, log *slog.Logger) SearchSink {
	return SearchSink{index: index, log: log}
}

func (s SearchSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageCreated:
		return s.index.IndexText(evt.Message.ID, evt.Message.Text)
	case event.MessageDeleted:
		return s.index.Remove(evt.ID)
	default:
		return nil
	}
}
