package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pairchat/domain"
	"pairchat/domain/event"
	"pairchat/infrastructure/httpapi"
	"pairchat/moderation"
	"pairchat/repositories"
	"pairchat/runtime"
	"pairchat/search"
	"pairchat/services"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func newTestStack(t *testing.T) (*httptest.Server, *services.ChatService) {
	t.Helper()
	req := require.New(t)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	index, err := search.Open(slog.Default(), bluge.InMemoryOnlyConfig())
	req.NoError(err)
	t.Cleanup(func() { _ = index.Close() })

	moderator, err := moderation.NewModerator(moderation.DefaultWords(), '*')
	req.NoError(err)

	registry := runtime.NewRegistry()
	fanout := runtime.NewFanout(slog.Default(), registry, 64, time.Second)
	repository := repositories.NewMessageRepository(db, slog.Default(), domain.RetentionWindow, time.Hour)
	service := services.NewChatService(slog.Default(), repository, fanout, registry, &moderator, index)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = fanout.Run(ctx) }()

	handler := NewHandler(slog.Default(), service, 16)
	server := httptest.NewServer(http.HandlerFunc(handler.Serve))
	t.Cleanup(server.Close)

	return server, service
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var envelope Envelope
	require.NoError(t, json.Unmarshal(raw, &envelope))
	return envelope
}

func writeEnvelope(t *testing.T, conn *websocket.Conn, kind string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	data, err := json.Marshal(Envelope{Type: kind, Payload: raw})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func Test_Session_Receives_Connected_Ack(t *testing.T) {
	req := require.New(t)
	server, _ := newTestStack(t)

	conn := dial(t, server)
	envelope := readEnvelope(t, conn)
	req.Equal(TypeConnected, envelope.Type)

	var payload ConnectedPayload
	req.NoError(json.Unmarshal(envelope.Payload, &payload))
	_, err := uuid.Parse(payload.SessionID)
	req.NoError(err)
}

func Test_Send_Broadcasts_To_All_Sessions(t *testing.T) {
	req := require.New(t)
	server, _ := newTestStack(t)

	mila := dial(t, server)
	noah := dial(t, server)
	req.Equal(TypeConnected, readEnvelope(t, mila).Type)
	req.Equal(TypeConnected, readEnvelope(t, noah).Type)

	writeEnvelope(t, mila, TypeSend, map[string]any{
		"text":   "pizza tonight?",
		"sender": "mila",
	})

	for _, conn := range []*websocket.Conn{mila, noah} {
		envelope := readEnvelope(t, conn)
		req.Equal(TypeMessage, envelope.Type)

		var message httpapi.MessageResponse
		req.NoError(json.Unmarshal(envelope.Payload, &message))
		req.Equal("pizza tonight?", message.Text)
		req.Equal("mila", message.Sender)
	}
}

func Test_Invalid_Send_Errors_Only_That_Session(t *testing.T) {
	req := require.New(t)
	server, _ := newTestStack(t)

	sender := dial(t, server)
	other := dial(t, server)
	req.Equal(TypeConnected, readEnvelope(t, sender).Type)
	req.Equal(TypeConnected, readEnvelope(t, other).Type)

	writeEnvelope(t, sender, TypeSend, map[string]any{
		"text":   "hello",
		"sender": "eve",
	})

	envelope := readEnvelope(t, sender)
	req.Equal(TypeError, envelope.Type)

	// The rejected write reaches nothing: the next frame the other session
	// sees is a fresh, valid message.
	writeEnvelope(t, sender, TypeSend, map[string]any{
		"text":   "hello again",
		"sender": "noah",
	})
	envelope = readEnvelope(t, other)
	req.Equal(TypeMessage, envelope.Type)
}

func Test_Unknown_Envelope_Type(t *testing.T) {
	req := require.New(t)
	server, _ := newTestStack(t)

	conn := dial(t, server)
	req.Equal(TypeConnected, readEnvelope(t, conn).Type)

	writeEnvelope(t, conn, "subscribe", map[string]any{})
	req.Equal(TypeError, readEnvelope(t, conn).Type)
}

func Test_Typing_Passes_Through(t *testing.T) {
	req := require.New(t)
	server, _ := newTestStack(t)

	mila := dial(t, server)
	noah := dial(t, server)
	req.Equal(TypeConnected, readEnvelope(t, mila).Type)
	req.Equal(TypeConnected, readEnvelope(t, noah).Type)

	writeEnvelope(t, mila, TypeTyping, map[string]any{
		"sender":   "mila",
		"isTyping": true,
	})

	envelope := readEnvelope(t, noah)
	req.Equal(TypeTyping, envelope.Type)

	var payload TypingPayload
	req.NoError(json.Unmarshal(envelope.Payload, &payload))
	req.Equal("mila", payload.Sender)
	req.True(payload.IsTyping)
}

func Test_Deletion_Is_Pushed(t *testing.T) {
	req := require.New(t)
	server, service := newTestStack(t)

	conn := dial(t, server)
	req.Equal(TypeConnected, readEnvelope(t, conn).Type)

	writeEnvelope(t, conn, TypeSend, map[string]any{
		"text":   "delete me",
		"sender": "noah",
	})
	envelope := readEnvelope(t, conn)
	req.Equal(TypeMessage, envelope.Type)

	var message httpapi.MessageResponse
	req.NoError(json.Unmarshal(envelope.Payload, &message))
	id, err := uuid.Parse(message.ID)
	req.NoError(err)

	req.NoError(service.DeleteMessage(id))

	envelope = readEnvelope(t, conn)
	req.Equal(TypeMessageDeleted, envelope.Type)

	var deleted DeletedPayload
	req.NoError(json.Unmarshal(envelope.Payload, &deleted))
	req.Equal(message.ID, deleted.ID)
}

func Test_Encode_Event_Shapes(t *testing.T) {
	req := require.New(t)

	message := domain.Message{
		ID:        uuid.New(),
		Text:      "hello",
		Sender:    domain.SenderMila,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(domain.RetentionWindow),
	}

	data, err := encodeEvent(event.MessageCreated{Message: message})
	req.NoError(err)
	var envelope Envelope
	req.NoError(json.Unmarshal(data, &envelope))
	req.Equal(TypeMessage, envelope.Type)

	data, err = encodeEvent(event.TypingNotice{Sender: domain.SenderNoah, IsTyping: true})
	req.NoError(err)
	req.NoError(json.Unmarshal(data, &envelope))
	req.Equal(TypeTyping, envelope.Type)

	// Unknown events are silently skipped.
	data, err = encodeEvent(nil)
	req.NoError(err)
	req.Nil(data)
}
