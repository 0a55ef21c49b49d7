// Package chat defines the wire-shaped commands shared by the two ingestion
// paths. Both the HTTP handler and the websocket session unmarshal into these
// shapes and hand them to the same pipeline.
package chat

// CreateMessageCommand is the raw inbound create-message request.
type CreateMessageCommand struct {
	Text                string            `json:"text"`
	Sender              string            `json:"sender" validate:"required"`
	IsAttachmentMessage bool              `json:"isAttachmentMessage"`
	Attachments         []AttachmentInput `json:"attachments"`
}

// AttachmentInput carries one attachment of a create request. Data holds a
// self-describing data URI; URL holds an external locator. A valid input sets
// exactly one of the two.
type AttachmentInput struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	Data     string `json:"data,omitempty"`
	URL      string `json:"url,omitempty"`
}

// TypingCommand is the pass-through typing indicator of the push path.
type TypingCommand struct {
	Sender   string `json:"sender" validate:"required"`
	IsTyping bool   `json:"isTyping"`
}
