package domain

import (
	"pairchat/errors"
)

// Sender identifies one of the exactly two participants of the conversation.
// The set is closed: anything outside the two constants is rejected at the
// boundary and can never reach the store.
type Sender string

const (
	SenderMila Sender = "mila"
	SenderNoah Sender = "noah"
)

// Senders lists the closed allow-list in a fixed order.
var Senders = [2]Sender{SenderMila, SenderNoah}

// ParseSender maps a raw wire value onto the closed sender set.
func ParseSender(raw string) (Sender, error) {
	switch Sender(raw) {
	case SenderMila:
		return SenderMila, nil
	case SenderNoah:
		return SenderNoah, nil
	default:
		return "", errors.ErrUnknownSender
	}
}

func (s Sender) String() string {
	return string(s)
}
