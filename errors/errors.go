package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")

	// Validation failures. Never persisted, never broadcast.
	ErrUnknownSender       = fmt.Errorf("sender is not one of the two allowed participants")
	ErrEmptyMessage        = fmt.Errorf("message needs text or at least one attachment")
	ErrTextTooLong         = fmt.Errorf("message text exceeds the maximum length")
	ErrAttachmentNoName    = fmt.Errorf("attachment has no name")
	ErrAttachmentNoType    = fmt.Errorf("attachment MIME type is missing and could not be detected")
	ErrAttachmentTooLarge  = fmt.Errorf("attachment exceeds the maximum size")
	ErrAttachmentNoContent = fmt.Errorf("attachment needs either inline data or a reference URL")
	ErrAttachmentAmbiguous = fmt.Errorf("attachment carries both inline data and a reference URL")
	ErrMalformedInlineData = fmt.Errorf("inline attachment data is not a well-formed data URI")

	// Read failures.
	ErrMessageNotFound = fmt.Errorf("message not found")
	ErrMessageExpired  = fmt.Errorf("message has expired")

	// Infrastructure failures.
	ErrStorage = fmt.Errorf("storage failure")
)
