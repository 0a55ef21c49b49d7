//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	goerrors "errors"
	"log/slog"
	"time"

	"pairchat/contract"
	"pairchat/domain"
	"pairchat/domain/chat"
	"pairchat/domain/event"
	"pairchat/errors"
	"pairchat/moderation"
	"pairchat/repositories"
	"pairchat/search"
	"pairchat/validation"

	"github.com/google/uuid"
)

type IChatService interface {
	CreateMessage(ctx context.Context, cmd chat.CreateMessageCommand) (domain.Message, error)
	GetMessage(id uuid.UUID) (domain.Message, error)
	ListRecent() ([]domain.Message, error)
	DeleteMessage(id uuid.UUID) error
	SearchMessages(ctx context.Context, terms string) ([]domain.Message, error)
	NotifyTyping(cmd chat.TypingCommand) error
	Subscribe(subscriberID string, sink contract.EventSink)
	Unsubscribe(subscriberID string)
}

// ChatService is the single ingestion pipeline shared by both entry paths:
// validate, censor, insert, broadcast. Any failure before the insert aborts
// with no side effects; once the insert succeeded the message is durable and
// the broadcast is best-effort.
type ChatService struct {
	log        *slog.Logger
	repository repositories.IMessageRepository
	publisher  contract.Publisher
	registry   contract.IRegistry
	moderator  *moderation.Moderator
	index      *search.Index
}

func NewChatService(log *slog.Logger, repository repositories.IMessageRepository,
	publisher contract.Publisher, registry contract.IRegistry,
	moderator *moderation.Moderator, index *search.Index) *ChatService {
	return &ChatService{
		log:        log,
		repository: repository,
		publisher:  publisher,
		registry:   registry,
		moderator:  moderator,
		index:      index,
	}
}

// CreateMessage runs the full pipeline and publishes the created event
// exactly once, strictly after the insert.
func (s *ChatService) CreateMessage(_ context.Context, cmd chat.CreateMessageCommand) (domain.Message, error) {
	candidate, err := validation.Normalize(cmd)
	if err != nil {
		return domain.Message{}, err
	}
	if s.moderator != nil {
		candidate.Text = s.moderator.Censor(candidate.Text)
	}

	message, err := s.repository.Insert(candidate)
	if err != nil {
		return domain.Message{}, err
	}

	s.publisher.Publish(event.MessageCreated{Message: message})
	return message, nil
}

func (s *ChatService) GetMessage(id uuid.UUID) (domain.Message, error) {
	return s.repository.GetByID(id)
}

func (s *ChatService) ListRecent() ([]domain.Message, error) {
	return s.repository.ListRecent(domain.RecentWindow)
}

// DeleteMessage removes a message and broadcasts the deletion when a record
// was actually there. Deleting an absent id succeeds silently.
func (s *ChatService) DeleteMessage(id uuid.UUID) error {
	removed, err := s.repository.DeleteByID(id)
	if err != nil {
		return err
	}
	if removed {
		s.publisher.Publish(event.MessageDeleted{ID: id, DeletedAt: time.Now().UTC()})
	}
	return nil
}

// SearchMessages resolves index hits back through the store, dropping any
// message that vanished or expired since it was indexed.
func (s *ChatService) SearchMessages(ctx context.Context, terms string) ([]domain.Message, error) {
	ids, err := s.index.Query(ctx, terms, domain.RecentWindow)
	if err != nil {
		return nil, err
	}
	var messages []domain.Message
	for _, id := range ids {
		message, err := s.repository.GetByID(id)
		if goerrors.Is(err, errors.ErrMessageNotFound) || goerrors.Is(err, errors.ErrMessageExpired) {
			continue
		}
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// NotifyTyping fans out a typing indicator without persisting anything.
func (s *ChatService) NotifyTyping(cmd chat.TypingCommand) error {
	sender, err := validation.ParseTyping(cmd)
	if err != nil {
		return err
	}
	s.publisher.Publish(event.TypingNotice{Sender: sender, IsTyping: cmd.IsTyping})
	return nil
}

func (s *ChatService) Subscribe(subscriberID string, sink contract.EventSink) {
	s.registry.Subscribe(subscriberID, sink)
}

func (s *ChatService) Unsubscribe(subscriberID string) {
	s.registry.Unsubscribe(subscriberID)
}
