package ws

import (
	"log/slog"
	"net/http"

	"pairchat/services"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, restrict to configured origins.
		return true
	},
}

type Handler struct {
	log        *slog.Logger
	service    services.IChatService
	bufferSize int
}

func NewHandler(log *slog.Logger, service services.IChatService, bufferSize int) *Handler {
	return &Handler{log: log, service: service, bufferSize: bufferSize}
}

// Serve upgrades the connection, registers the session as a live subscriber
// and acknowledges it, then blocks in the read loop until the client
// disconnects. Disconnecting mid-request discards nothing durable: writes
// that already reached the store stay.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "error", err)
		return
	}

	sessionID := uuid.NewString()
	client := newClient(h.log, conn, h.service, sessionID, h.bufferSize)

	ack, err := newEnvelope(TypeConnected, ConnectedPayload{SessionID: sessionID})
	if err != nil {
		h.log.Error("Failed to build connected ack", "error", err)
		_ = conn.Close()
		return
	}
	client.send <- ack

	h.service.Subscribe(sessionID, client)
	h.log.Info("Session connected", "session_id", sessionID)

	go client.writePump()
	client.readPump(r.Context())

	h.log.Info("Session disconnected", "session_id", sessionID)
}
