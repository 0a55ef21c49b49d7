package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pairchat/domain/chat"
	"pairchat/domain/event"
	"pairchat/infrastructure/httpapi"
	"pairchat/services"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Inbound frames must fit an inline attachment near the size bound,
	// base64-inflated and JSON-framed.
	maxMessageSize = 16 << 20
)

// Client is one websocket session. It doubles as the session's event sink:
// the fanout worker calls Consume, which frames the event and hands it to
// the write pump. A saturated session drops events rather than blocking the
// broadcast; the client can resynchronize through the recent-messages query.
type Client struct {
	log       *slog.Logger
	conn      *websocket.Conn
	service   services.IChatService
	sessionID string
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(log *slog.Logger, conn *websocket.Conn, service services.IChatService,
	sessionID string, bufferSize int) *Client {
	return &Client{
		log:       log,
		conn:      conn,
		service:   service,
		sessionID: sessionID,
		send:      make(chan []byte, bufferSize),
		done:      make(chan struct{}),
	}
}

// Consume is called by the fanout. It redirects the event into this
// session's write pump.
func (c *Client) Consume(ctx context.Context, e event.DomainEvent) error {
	data, err := encodeEvent(e)
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		c.log.Debug("Session buffer full, dropping event",
			"session_id", c.sessionID,
			"kind", e.Kind())
		return nil
	}
}

func encodeEvent(e event.DomainEvent) ([]byte, error) {
	switch evt := e.(type) {
	case event.MessageCreated:
		return newEnvelope(TypeMessage, httpapi.ToMessageResponse(evt.Message))
	case event.MessageDeleted:
		return newEnvelope(TypeMessageDeleted, DeletedPayload{
			ID:        evt.ID.String(),
			DeletedAt: evt.DeletedAt,
		})
	case event.TypingNotice:
		return newEnvelope(TypeTyping, TypingPayload{
			Sender:   evt.Sender.String(),
			IsTyping: evt.IsTyping,
		})
	default:
		return nil, nil
	}
}

// readPump processes inbound envelopes until the connection drops. It runs
// on the handler goroutine and owns the session teardown.
func (c *Client) readPump(ctx context.Context) {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.handle(ctx, raw)
	}
}

// handle dispatches one inbound envelope. Failures are reported back on this
// session only, as an error envelope; they never tear the session down.
func (c *Client) handle(ctx context.Context, raw []byte) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		c.sendError("invalid envelope")
		return
	}

	switch envelope.Type {
	case TypeSend:
		var cmd chat.CreateMessageCommand
		if err := json.Unmarshal(envelope.Payload, &cmd); err != nil {
			c.sendError("invalid send payload")
			return
		}
		if _, err := c.service.CreateMessage(ctx, cmd); err != nil {
			c.sendError(err.Error())
		}
	case TypeTyping:
		var cmd chat.TypingCommand
		if err := json.Unmarshal(envelope.Payload, &cmd); err != nil {
			c.sendError("invalid typing payload")
			return
		}
		if err := c.service.NotifyTyping(cmd); err != nil {
			c.sendError(err.Error())
		}
	default:
		c.sendError(fmt.Sprintf("unknown envelope type %q", envelope.Type))
	}
}

func (c *Client) sendError(message string) {
	data, err := newEnvelope(TypeError, ErrorPayload{Error: message})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	default:
	}
}

// writePump flushes queued frames and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close tears the session down exactly once: unsubscribe first so the fanout
// stops seeing this sink, then release the pumps and the connection.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.service.Unsubscribe(c.sessionID)
		close(c.done)
		_ = c.conn.Close()
	})
}
