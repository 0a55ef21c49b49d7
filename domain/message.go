// Package domain contains core concepts of the conversation.
// This file defines Message entities and their invariants.
// Messages are immutable once created and are deleted as a whole unit.
package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	// RetentionWindow is the fixed lifetime of every message.
	RetentionWindow = 2 * time.Hour

	// MaxTextLength bounds the message text, in runes.
	MaxTextLength = 5000

	// MaxAttachmentSize bounds a single attachment, in bytes (10 MiB).
	MaxAttachmentSize = 10 * 1024 * 1024

	// RecentWindow is the fixed size of the recent-messages query.
	RecentWindow = 50
)

// Message represents an immutable chat event shared by the two participants.
// ExpiresAt is always CreatedAt + RetentionWindow and is never recomputed.
type Message struct {
	ID          uuid.UUID
	Text        string
	Sender      Sender
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Attachments []Attachment
}

// IsAttachmentMessage reports whether the message carries at least one attachment.
func (m Message) IsAttachmentMessage() bool {
	return len(m.Attachments) > 0
}

// Expired reports whether the message has outlived its retention window at
// the given instant. A record can still be physically present after this
// turns true; readers must treat it as gone.
func (m Message) Expired(now time.Time) bool {
	return !now.Before(m.ExpiresAt)
}

// Attachment is the canonical stored form of an attachment. Exactly one of
// Payload (raw base64 content, MIME prefix stripped) or Reference (external
// locator) is set.
type Attachment struct {
	Name      string
	Size      int64
	MimeType  string
	Payload   string
	Reference string
}

// Inline reports whether the attachment content is stored in the record
// rather than behind an external reference.
func (a Attachment) Inline() bool {
	return a.Payload != ""
}

// Candidate is a validated, fully normalized message awaiting insertion.
// The store assigns ID, CreatedAt and ExpiresAt at insert time.
type Candidate struct {
	Text        string
	Sender      Sender
	Attachments []Attachment
}
