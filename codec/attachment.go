// Package codec converts attachment payloads between their wire form
// (self-describing data URI or external URL) and the canonical stored form
// (raw base64 content plus MIME type, or a bare reference).
package codec

import (
	"encoding/base64"
	"fmt"
	"strings"

	"pairchat/domain"
	"pairchat/errors"
)

const (
	dataPrefix   = "data:"
	base64Marker = ";base64,"
)

// IsInline reports whether raw attachment content is an inline data URI as
// opposed to an external reference.
func IsInline(content string) bool {
	return strings.HasPrefix(content, dataPrefix)
}

// ParseDataURI splits a data URI into its embedded MIME type and raw base64
// payload. A missing base64 marker is a validation failure, not a crash.
func ParseDataURI(uri string) (mimeType, payload string, err error) {
	if !strings.HasPrefix(uri, dataPrefix) {
		return "", "", fmt.Errorf("%w: missing %q prefix", errors.ErrMalformedInlineData, dataPrefix)
	}
	head, payload, found := strings.Cut(uri[len(dataPrefix):], base64Marker)
	if !found {
		return "", "", fmt.Errorf("%w: missing %q separator", errors.ErrMalformedInlineData, base64Marker)
	}
	return head, payload, nil
}

// PayloadBytes decodes the raw base64 content of an inline attachment.
func PayloadBytes(payload string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMalformedInlineData, err)
	}
	return raw, nil
}

// Deliverable reconstructs the client-usable content of a stored attachment:
// the data URI for inline payloads, the reference untouched otherwise.
func Deliverable(a domain.Attachment) string {
	if a.Inline() {
		return dataPrefix + a.MimeType + base64Marker + a.Payload
	}
	return a.Reference
}
