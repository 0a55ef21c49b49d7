package event

import (
	"time"

	"pairchat/domain"

	"github.com/google/uuid"
)

// DomainEvent is anything the fanout can deliver to connected subscribers.
type DomainEvent interface {
	Kind() string
}

// MessageCreated is published exactly once after a message becomes durable.
// It carries the full stored message; transports decode attachments into
// their deliverable form at the edge.
type MessageCreated struct {
	Message domain.Message
}

func (MessageCreated) Kind() string { return "message" }

// MessageDeleted is published when a message is removed, whether by an
// explicit delete or by the expiry reaper.
type MessageDeleted struct {
	ID        uuid.UUID
	DeletedAt time.Time
}

func (MessageDeleted) Kind() string { return "message_deleted" }

// TypingNotice is a pass-through presence signal. It is never validated
// against message rules, never persisted and never indexed.
type TypingNotice struct {
	Sender   domain.Sender
	IsTyping bool
}

func (TypingNotice) Kind() string { return "typing" }
