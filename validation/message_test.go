package validation

import (
	"encoding/base64"
	"strings"
	"testing"

	"pairchat/domain"
	"pairchat/domain/chat"
	"pairchat/errors"

	"github.com/stretchr/testify/require"
)

// 8-byte PNG magic, enough for content sniffing.
var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func inlinePNG() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngMagic)
}

func validCommand(modify func(cmd *chat.CreateMessageCommand)) chat.CreateMessageCommand {
	cmd := chat.CreateMessageCommand{
		Text:   "see you at eight",
		Sender: "mila",
	}
	if modify != nil {
		modify(&cmd)
	}
	return cmd
}

func Test_Normalize_Text_Message(t *testing.T) {
	req := require.New(t)

	candidate, err := Normalize(validCommand(func(cmd *chat.CreateMessageCommand) {
		cmd.Text = "  see you at eight  "
	}))
	req.NoError(err)
	req.Equal("see you at eight", candidate.Text)
	req.Equal(domain.SenderMila, candidate.Sender)
	req.Empty(candidate.Attachments)
}

func Test_Normalize_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(cmd *chat.CreateMessageCommand)
		wantErr error
	}{
		{
			name:    "unknown sender",
			modify:  func(cmd *chat.CreateMessageCommand) { cmd.Sender = "eve" },
			wantErr: errors.ErrUnknownSender,
		},
		{
			name:    "empty message",
			modify:  func(cmd *chat.CreateMessageCommand) { cmd.Text = "   " },
			wantErr: errors.ErrEmptyMessage,
		},
		{
			name: "text too long",
			modify: func(cmd *chat.CreateMessageCommand) {
				cmd.Text = strings.Repeat("é", domain.MaxTextLength+1)
			},
			wantErr: errors.ErrTextTooLong,
		},
		{
			name: "attachment without name",
			modify: func(cmd *chat.CreateMessageCommand) {
				cmd.Attachments = []chat.AttachmentInput{{Data: inlinePNG()}}
			},
			wantErr: errors.ErrAttachmentNoName,
		},
		{
			name: "attachment with both payload and reference",
			modify: func(cmd *chat.CreateMessageCommand) {
				cmd.Attachments = []chat.AttachmentInput{{
					Name: "pic.png",
					Data: inlinePNG(),
					URL:  "https://files.example.com/pic.png",
				}}
			},
			wantErr: errors.ErrAttachmentAmbiguous,
		},
		{
			name: "attachment with neither payload nor reference",
			modify: func(cmd *chat.CreateMessageCommand) {
				cmd.Attachments = []chat.AttachmentInput{{Name: "pic.png"}}
			},
			wantErr: errors.ErrAttachmentNoContent,
		},
		{
			name: "reference attachment without declared type",
			modify: func(cmd *chat.CreateMessageCommand) {
				cmd.Attachments = []chat.AttachmentInput{{
					Name: "pic.png",
					URL:  "https://files.example.com/pic.png",
				}}
			},
			wantErr: errors.ErrAttachmentNoType,
		},
		{
			name: "inline payload missing base64 separator",
			modify: func(cmd *chat.CreateMessageCommand) {
				cmd.Attachments = []chat.AttachmentInput{{
					Name: "pic.png",
					Data: "data:image/png,iVBORw0KGgo=",
				}}
			},
			wantErr: errors.ErrMalformedInlineData,
		},
		{
			name: "declared size over the cap",
			modify: func(cmd *chat.CreateMessageCommand) {
				cmd.Attachments = []chat.AttachmentInput{{
					Name:     "video.mp4",
					Size:     domain.MaxAttachmentSize + 1,
					MimeType: "video/mp4",
					URL:      "https://files.example.com/video.mp4",
				}}
			},
			wantErr: errors.ErrAttachmentTooLarge,
		},
		{
			name: "negative declared size",
			modify: func(cmd *chat.CreateMessageCommand) {
				cmd.Attachments = []chat.AttachmentInput{{
					Name:     "video.mp4",
					Size:     -1,
					MimeType: "video/mp4",
					URL:      "https://files.example.com/video.mp4",
				}}
			},
			wantErr: errors.ErrAttachmentTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(validCommand(tt.modify))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func Test_Normalize_Missing_Sender(t *testing.T) {
	req := require.New(t)

	_, err := Normalize(chat.CreateMessageCommand{Text: "hello"})
	req.Error(err)
}

func Test_Normalize_Size_At_The_Cap_Passes(t *testing.T) {
	req := require.New(t)

	candidate, err := Normalize(validCommand(func(cmd *chat.CreateMessageCommand) {
		cmd.Attachments = []chat.AttachmentInput{{
			Name:     "archive.zip",
			Size:     domain.MaxAttachmentSize,
			MimeType: "application/zip",
			URL:      "https://files.example.com/archive.zip",
		}}
	}))
	req.NoError(err)
	req.Equal(int64(domain.MaxAttachmentSize), candidate.Attachments[0].Size)
}

func Test_Normalize_Inline_Attachment_Defaults(t *testing.T) {
	req := require.New(t)

	// No declared type or size: type is sniffed from the decoded payload,
	// size defaults to the decoded length.
	candidate, err := Normalize(validCommand(func(cmd *chat.CreateMessageCommand) {
		cmd.Attachments = []chat.AttachmentInput{{
			Name: "pic.png",
			Data: "data:;base64," + base64.StdEncoding.EncodeToString(pngMagic),
		}}
	}))
	req.NoError(err)
	req.Len(candidate.Attachments, 1)

	a := candidate.Attachments[0]
	req.Equal("image/png", a.MimeType)
	req.Equal(int64(len(pngMagic)), a.Size)
	req.True(a.Inline())
}

func Test_Normalize_Inline_Size_Is_Measured_Not_Declared(t *testing.T) {
	req := require.New(t)

	candidate, err := Normalize(validCommand(func(cmd *chat.CreateMessageCommand) {
		cmd.Attachments = []chat.AttachmentInput{{
			Name: "pic.png",
			Size: 4096,
			Data: inlinePNG(),
		}}
	}))
	req.NoError(err)
	req.Equal(int64(len(pngMagic)), candidate.Attachments[0].Size)
}

func Test_Normalize_Oversized_Inline_Payload_Rejected(t *testing.T) {
	req := require.New(t)

	// An understated declared size must not smuggle the payload past the
	// bound; the decoded length is what counts.
	raw := make([]byte, domain.MaxAttachmentSize+1)
	_, err := Normalize(validCommand(func(cmd *chat.CreateMessageCommand) {
		cmd.Attachments = []chat.AttachmentInput{{
			Name:     "blob.bin",
			Size:     1000,
			MimeType: "application/octet-stream",
			Data:     "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(raw),
		}}
	}))
	req.ErrorIs(err, errors.ErrAttachmentTooLarge)
}

func Test_Normalize_Inline_Payload_At_The_Cap_Passes(t *testing.T) {
	req := require.New(t)

	raw := make([]byte, domain.MaxAttachmentSize)
	candidate, err := Normalize(validCommand(func(cmd *chat.CreateMessageCommand) {
		cmd.Attachments = []chat.AttachmentInput{{
			Name:     "blob.bin",
			MimeType: "application/octet-stream",
			Data:     "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(raw),
		}}
	}))
	req.NoError(err)
	req.Equal(int64(domain.MaxAttachmentSize), candidate.Attachments[0].Size)
}

func Test_Normalize_Embedded_Type_Wins(t *testing.T) {
	req := require.New(t)

	candidate, err := Normalize(validCommand(func(cmd *chat.CreateMessageCommand) {
		cmd.Attachments = []chat.AttachmentInput{{
			Name:     "pic.png",
			MimeType: "application/octet-stream",
			Data:     inlinePNG(),
		}}
	}))
	req.NoError(err)
	req.Equal("image/png", candidate.Attachments[0].MimeType)
}

func Test_Normalize_Placeholder_Text(t *testing.T) {
	req := require.New(t)

	candidate, err := Normalize(validCommand(func(cmd *chat.CreateMessageCommand) {
		cmd.Text = ""
		cmd.IsAttachmentMessage = true
		cmd.Attachments = []chat.AttachmentInput{{
			Name: "report.pdf",
			Data: "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")),
		}}
	}))
	req.NoError(err)
	req.Equal("File: report.pdf", candidate.Text)
}

func Test_Parse_Typing(t *testing.T) {
	req := require.New(t)

	sender, err := ParseTyping(chat.TypingCommand{Sender: "noah", IsTyping: true})
	req.NoError(err)
	req.Equal(domain.SenderNoah, sender)

	_, err = ParseTyping(chat.TypingCommand{Sender: "eve"})
	req.ErrorIs(err, errors.ErrUnknownSender)

	_, err = ParseTyping(chat.TypingCommand{})
	req.Error(err)
}
