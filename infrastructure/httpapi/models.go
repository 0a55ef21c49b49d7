package httpapi

import (
	"time"

	"pairchat/codec"
	"pairchat/domain"

	"github.com/samber/lo"
)

// MessageResponse is the deliverable form of a message. The websocket path
// reuses it so both surfaces broadcast identical shapes.
type MessageResponse struct {
	ID                  string               `json:"id"`
	Text                string               `json:"text"`
	Sender              string               `json:"sender"`
	CreatedAt           time.Time            `json:"createdAt"`
	ExpiresAt           time.Time            `json:"expiresAt"`
	IsAttachmentMessage bool                 `json:"isAttachmentMessage"`
	Attachments         []AttachmentResponse `json:"attachments,omitempty"`
}

// AttachmentResponse carries the client-usable content: a data URI for
// inline payloads, the reference URL otherwise.
type AttachmentResponse struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	Content  string `json:"content"`
}

func ToMessageResponse(message domain.Message) MessageResponse {
	return MessageResponse{
		ID:                  message.ID.String(),
		Text:                message.Text,
		Sender:              message.Sender.String(),
		CreatedAt:           message.CreatedAt,
		ExpiresAt:           message.ExpiresAt,
		IsAttachmentMessage: message.IsAttachmentMessage(),
		Attachments: lo.Map(message.Attachments, func(a domain.Attachment, _ int) AttachmentResponse {
			return AttachmentResponse{
				Name:     a.Name,
				Size:     a.Size,
				MimeType: a.MimeType,
				Content:  codec.Deliverable(a),
			}
		}),
	}
}

func ToMessageResponses(messages []domain.Message) []MessageResponse {
	return lo.Map(messages, func(m domain.Message, _ int) MessageResponse {
		return ToMessageResponse(m)
	})
}
