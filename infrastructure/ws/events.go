// Package ws exposes the duplex push surface. A session receives a
// "connected" acknowledgment, then a stream of message / message_deleted /
// typing events; it submits "send" and "typing" envelopes that feed the same
// ingestion pipeline as the request/response path.
package ws

import (
	"encoding/json"
	"time"
)

// Envelope frames every websocket exchange in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	// Server to client.
	TypeConnected      = "connected"
	TypeMessage        = "message"
	TypeMessageDeleted = "message_deleted"
	TypeTyping         = "typing"
	TypeError          = "error"

	// Client to server. TypeTyping flows both ways.
	TypeSend = "send"
)

type ConnectedPayload struct {
	SessionID string `json:"sessionId"`
}

type DeletedPayload struct {
	ID        string    `json:"id"`
	DeletedAt time.Time `json:"deletedAt"`
}

type TypingPayload struct {
	Sender   string `json:"sender"`
	IsTyping bool   `json:"isTyping"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func newEnvelope(kind string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: kind, Payload: raw})
}
