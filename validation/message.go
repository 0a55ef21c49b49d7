// Package validation enforces the structural and business rules on inbound
// message requests and turns them into normalized candidates.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"pairchat/codec"
	"pairchat/domain"
	"pairchat/domain/chat"
	"pairchat/errors"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Normalize checks a raw create-message command and produces a candidate
// ready for insertion. It is pure apart from defaulting: placeholder text is
// derived when text is absent, a missing attachment MIME type is sniffed
// from the inline payload, and inline sizes are measured from the decoded
// bytes rather than taken from the request.
func Normalize(cmd chat.CreateMessageCommand) (domain.Candidate, error) {
	if err := validate.Struct(cmd); err != nil {
		return domain.Candidate{}, err
	}

	sender, err := domain.ParseSender(cmd.Sender)
	if err != nil {
		return domain.Candidate{}, err
	}

	text := strings.TrimSpace(cmd.Text)
	if utf8.RuneCountInString(text) > domain.MaxTextLength {
		return domain.Candidate{}, errors.ErrTextTooLong
	}
	if text == "" && len(cmd.Attachments) == 0 {
		return domain.Candidate{}, errors.ErrEmptyMessage
	}

	var attachments []domain.Attachment
	for i, in := range cmd.Attachments {
		a, err := normalizeAttachment(in)
		if err != nil {
			return domain.Candidate{}, fmt.Errorf("attachment %d: %w", i, err)
		}
		attachments = append(attachments, a)
	}

	if text == "" {
		text = placeholderText(attachments[0])
	}

	return domain.Candidate{
		Text:        text,
		Sender:      sender,
		Attachments: attachments,
	}, nil
}

// ParseTyping checks the sender of a pass-through typing indicator.
func ParseTyping(cmd chat.TypingCommand) (domain.Sender, error) {
	if err := validate.Struct(cmd); err != nil {
		return "", err
	}
	return domain.ParseSender(cmd.Sender)
}

func normalizeAttachment(in chat.AttachmentInput) (domain.Attachment, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Attachment{}, errors.ErrAttachmentNoName
	}

	hasData := in.Data != ""
	hasURL := in.URL != ""
	switch {
	case hasData && hasURL:
		return domain.Attachment{}, errors.ErrAttachmentAmbiguous
	case !hasData && !hasURL:
		return domain.Attachment{}, errors.ErrAttachmentNoContent
	}

	a := domain.Attachment{
		Name:     name,
		Size:     in.Size,
		MimeType: strings.TrimSpace(in.MimeType),
	}

	if hasData {
		embedded, payload, err := codec.ParseDataURI(in.Data)
		if err != nil {
			return domain.Attachment{}, err
		}
		raw, err := codec.PayloadBytes(payload)
		if err != nil {
			return domain.Attachment{}, err
		}
		a.Payload = payload
		if embedded != "" {
			a.MimeType = embedded
		}
		if a.MimeType == "" {
			a.MimeType = mimetype.Detect(raw).String()
		}
		// The decoded length is authoritative for inline payloads: a declared
		// size is never trusted, so it cannot smuggle content past the bound.
		a.Size = int64(len(raw))
	} else {
		a.Reference = in.URL
	}

	if a.MimeType == "" {
		return domain.Attachment{}, errors.ErrAttachmentNoType
	}
	if a.Size < 0 || a.Size > domain.MaxAttachmentSize {
		return domain.Attachment{}, errors.ErrAttachmentTooLarge
	}
	return a, nil
}

// placeholderText stands in for absent text on attachment-only messages.
// Fallback for a blank first attachment name is implementation-defined.
func placeholderText(first domain.Attachment) string {
	if first.Name == "" {
		return "File"
	}
	return "File: " + first.Name
}
