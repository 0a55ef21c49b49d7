//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	goerrors "errors"
	"fmt"
	"log/slog"
	"time"

	"pairchat/domain"
	"pairchat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IMessageRepository interface {
	Insert(candidate domain.Candidate) (domain.Message, error)
	GetByID(id uuid.UUID) (domain.Message, error)
	DeleteByID(id uuid.UUID) (bool, error)
	DeleteExpired(before time.Time) ([]uuid.UUID, error)
	ListRecent(limit int) ([]domain.Message, error)
	Ping() error
}

// MessageRepository persists messages in BadgerDB.
//
// Two keys exist per message:
//  1. "msg:{timestamp_padded}:{uuid}" holds the record. The 19-digit zero
//     padding gives chronological lexicographical order for range scans, with
//     the UUID as a collision disconnector if two messages land on the same
//     nanosecond.
//  2. "id:{uuid}" points at the record key for point lookups.
//
// Both entries carry a native badger TTL of retention+grace, so the store
// purges records on its own even if no sweep ever runs. The grace keeps a
// logically expired record readable long enough to answer "expired" instead
// of "not found" until the reaper's next pass.
type MessageRepository struct {
	db        *badger.DB
	log       *slog.Logger
	retention time.Duration
	grace     time.Duration
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, retention, grace time.Duration) MessageRepository {
	return MessageRepository{db: db, log: log, retention: retention, grace: grace}
}

const (
	msgPrefix = "msg:"
	idPrefix  = "id:"
)

// Insert assigns the identity and both timestamps, then persists the record
// atomically. The message is visible to reads as soon as Insert returns.
func (r MessageRepository) Insert(candidate domain.Candidate) (domain.Message, error) {
	now := time.Now().UTC()
	message := domain.Message{
		ID:          uuid.New(),
		Text:        candidate.Text,
		Sender:      candidate.Sender,
		CreatedAt:   now,
		ExpiresAt:   now.Add(r.retention),
		Attachments: candidate.Attachments,
	}

	value, err := json.Marshal(fromMessage(message))
	if err != nil {
		return domain.Message{}, err
	}

	key := timelineKey(message.CreatedAt, message.ID)
	ttl := r.retention + r.grace
	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.SetEntry(badger.NewEntry(key, value).WithTTL(ttl)); err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry(indexKey(message.ID), key).WithTTL(ttl))
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	return message, nil
}

// GetByID resolves the id index and loads the record. A record that vanished
// between the two lookups (native expiry) reports not-found; a record past
// its logical expiry but still physically present reports expired.
func (r MessageRepository) GetByID(id uuid.UUID) (domain.Message, error) {
	var message domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		key, err := resolveKey(txn, id)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if goerrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrMessageNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			message, err = DecodeMessage(value)
			return err
		})
	})
	switch {
	case err != nil:
		return domain.Message{}, err
	case message.Expired(time.Now().UTC()):
		return domain.Message{}, errors.ErrMessageExpired
	}
	return message, nil
}

// DeleteByID removes a message and reports whether a record was actually
// there. Deleting an absent id is a no-op success, never an error.
func (r MessageRepository) DeleteByID(id uuid.UUID) (bool, error) {
	removed := false
	err := r.db.Update(func(txn *badger.Txn) error {
		key, err := resolveKey(txn, id)
		if goerrors.Is(err, errors.ErrMessageNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := txn.Get(key); err == nil {
			removed = true
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(indexKey(id))
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	return removed, nil
}

// DeleteExpired bulk-removes every record whose logical expiry lies before
// the given instant and returns the removed ids so deletions can be
// broadcast. Records badger already purged natively are simply not seen.
func (r MessageRepository) DeleteExpired(before time.Time) ([]uuid.UUID, error) {
	var removed []uuid.UUID
	err := r.db.Update(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(msgPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var message domain.Message
			err := item.Value(func(value []byte) error {
				var err error
				message, err = DecodeMessage(value)
				return err
			})
			if err != nil {
				return err
			}
			if !message.ExpiresAt.Before(before) {
				continue
			}
			if err := txn.Delete(item.KeyCopy(nil)); err != nil {
				return err
			}
			if err := txn.Delete(indexKey(message.ID)); err != nil {
				return err
			}
			removed = append(removed, message.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	return removed, nil
}

// ListRecent returns the most recent live messages, oldest first. Thanks to
// the padded timestamp in the key a reverse prefix scan visits newest first;
// the collected window is flipped before returning.
func (r MessageRepository) ListRecent(limit int) ([]domain.Message, error) {
	now := time.Now().UTC()
	var newestFirst []domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(msgPrefix)
		// Seek past the newest possible key, then walk backwards.
		seekKey := append([]byte(msgPrefix), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if len(newestFirst) == limit {
				break
			}
			var message domain.Message
			err := it.Item().Value(func(value []byte) error {
				var err error
				message, err = DecodeMessage(value)
				return err
			})
			if err != nil {
				return err
			}
			if message.Expired(now) {
				continue
			}
			newestFirst = append(newestFirst, message)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	return lo.Reverse(newestFirst), nil
}

// Ping verifies the store is reachable. Used by the health probe.
func (r MessageRepository) Ping() error {
	if r.db.IsClosed() {
		return errors.ErrStorage
	}
	return r.db.View(func(*badger.Txn) error { return nil })
}

func timelineKey(createdAt time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", msgPrefix, createdAt.UnixNano(), id))
}

func indexKey(id uuid.UUID) []byte {
	return []byte(idPrefix + id.String())
}

// resolveKey maps an id onto its timeline key via the index entry.
func resolveKey(txn *badger.Txn, id uuid.UUID) ([]byte, error) {
	item, err := txn.Get(indexKey(id))
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

type diskMessage struct {
	ID          string           `json:"id"`
	Text        string           `json:"text"`
	Sender      string           `json:"sender"`
	CreatedAt   time.Time        `json:"createdAt"`
	ExpiresAt   time.Time        `json:"expiresAt"`
	Attachments []diskAttachment `json:"attachments,omitempty"`
}

type diskAttachment struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mimeType"`
	Payload   string `json:"payload,omitempty"`
	Reference string `json:"reference,omitempty"`
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:        message.ID.String(),
		Text:      message.Text,
		Sender:    message.Sender.String(),
		CreatedAt: message.CreatedAt,
		ExpiresAt: message.ExpiresAt,
		Attachments: lo.Map(message.Attachments, func(a domain.Attachment, _ int) diskAttachment {
			return diskAttachment{
				Name:      a.Name,
				Size:      a.Size,
				MimeType:  a.MimeType,
				Payload:   a.Payload,
				Reference: a.Reference,
			}
		}),
	}
}

// DecodeMessage rebuilds a message from its stored JSON record. Exported for
// read-only tooling (cmd/viewer).
func DecodeMessage(value []byte) (domain.Message, error) {
	var record diskMessage
	if err := json.Unmarshal(value, &record); err != nil {
		return domain.Message{}, err
	}
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        id,
		Text:      record.Text,
		Sender:    domain.Sender(record.Sender),
		CreatedAt: record.CreatedAt,
		ExpiresAt: record.ExpiresAt,
		Attachments: lo.Map(record.Attachments, func(a diskAttachment, _ int) domain.Attachment {
			return domain.Attachment{
				Name:      a.Name,
				Size:      a.Size,
				MimeType:  a.MimeType,
				Payload:   a.Payload,
				Reference: a.Reference,
			}
		}),
	}, nil
}
