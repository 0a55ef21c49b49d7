// Package search maintains a full-text index over live message text.
// The index mirrors the store: entries are added when a message is created
// and dropped on deletion or expiry. It is a convenience view, never the
// source of truth; hits are always re-read from the store.
package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

const textField = "text"

type Index struct {
	log    *slog.Logger
	writer *bluge.Writer
}

// Open creates or reopens an index. Use bluge.DefaultConfig for an on-disk
// index and bluge.InMemoryOnlyConfig in tests.
func Open(log *slog.Logger, config bluge.Config) (*Index, error) {
	writer, err := bluge.OpenWriter(config)
	if err != nil {
		return nil, fmt.Errorf("failed to open search index: %w", err)
	}
	return &Index{log: log, writer: writer}, nil
}

func (i *Index) Close() error {
	return i.writer.Close()
}

// IndexText registers a message's text under its id.
func (i *Index) IndexText(id uuid.UUID, text string) error {
	doc := bluge.NewDocument(id.String()).
		AddField(bluge.NewTextField(textField, text))
	return i.writer.Update(doc.ID(), doc)
}

// Remove drops a message from the index. Removing an unknown id is a no-op.
func (i *Index) Remove(id uuid.UUID) error {
	return i.writer.Delete(bluge.Identifier(id.String()))
}

// Query returns the ids of up to limit messages matching the terms, best
// match first.
func (i *Index) Query(ctx context.Context, terms string, limit int) ([]uuid.UUID, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open index reader: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("Failed to close index reader", "error", err)
		}
	}()

	query := bluge.NewMatchQuery(terms).SetField(textField)
	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	var ids []uuid.UUID
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field != "_id" {
				return true
			}
			if id, err := uuid.Parse(string(value)); err == nil {
				ids = append(ids, id)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}
