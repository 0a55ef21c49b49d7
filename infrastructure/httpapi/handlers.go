// Package httpapi exposes the request/response surface: recent messages,
// create, point read, delete, search and the health probe.
package httpapi

import (
	"encoding/json"
	goerrors "errors"
	"log/slog"
	"net/http"

	"pairchat/domain/chat"
	"pairchat/errors"
	"pairchat/observability"
	"pairchat/repositories"
	"pairchat/services"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Create bodies must fit an inline attachment near the size bound,
// base64-inflated and JSON-framed. Matches the websocket frame cap so both
// entry paths enforce the same boundary.
const maxRequestBody = 16 << 20

type MessageHandler struct {
	log     *slog.Logger
	service services.IChatService
}

func NewMessageHandler(log *slog.Logger, service services.IChatService) *MessageHandler {
	return &MessageHandler{log: log, service: service}
}

// List returns the live recent window, oldest first.
func (h *MessageHandler) List(w http.ResponseWriter, _ *http.Request) {
	messages, err := h.service.ListRecent()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ToMessageResponses(messages))
}

// Create is the request/response entry into the ingestion pipeline.
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	var cmd chat.CreateMessageCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		var tooLarge *http.MaxBytesError
		if goerrors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("request body too large"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	message, err := h.service.CreateMessage(r.Context(), cmd)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ToMessageResponse(message))
}

func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid message id"))
		return
	}
	message, err := h.service.GetMessage(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ToMessageResponse(message))
}

// Delete acknowledges idempotently: deleting an id that is already gone is
// still a success.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid message id"))
		return
	}
	if err := h.service.DeleteMessage(id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search returns live messages matching the q parameter.
func (h *MessageHandler) Search(w http.ResponseWriter, r *http.Request) {
	terms := r.URL.Query().Get("q")
	if terms == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("missing q parameter"))
		return
	}
	messages, err := h.service.SearchMessages(r.Context(), terms)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ToMessageResponses(messages))
}

func (h *MessageHandler) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("Request failed", "error", err)
	}
	writeJSON(w, status, errorBody(err.Error()))
}

// StatusFor maps the error taxonomy onto HTTP statuses: validation failures
// are client errors, an expired-but-unpurged record is 410 as opposed to the
// plain 404 for a record that is gone, everything else is a server failure.
func StatusFor(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	case goerrors.Is(err, errors.ErrMessageNotFound):
		return http.StatusNotFound
	case goerrors.Is(err, errors.ErrMessageExpired):
		return http.StatusGone
	case goerrors.As(err, &validationErrs),
		goerrors.Is(err, errors.ErrUnknownSender),
		goerrors.Is(err, errors.ErrEmptyMessage),
		goerrors.Is(err, errors.ErrTextTooLong),
		goerrors.Is(err, errors.ErrAttachmentNoName),
		goerrors.Is(err, errors.ErrAttachmentNoType),
		goerrors.Is(err, errors.ErrAttachmentTooLarge),
		goerrors.Is(err, errors.ErrAttachmentNoContent),
		goerrors.Is(err, errors.ErrAttachmentAmbiguous),
		goerrors.Is(err, errors.ErrMalformedInlineData):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// HealthHandler reports liveness and storage connectivity.
type HealthHandler struct {
	log        *slog.Logger
	repository repositories.IMessageRepository
	stats      *observability.Stats
}

func NewHealthHandler(log *slog.Logger, repository repositories.IMessageRepository,
	stats *observability.Stats) *HealthHandler {
	return &HealthHandler{log: log, repository: repository, stats: stats}
}

func (h *HealthHandler) Probe(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{
		"status":  "ok",
		"storage": "ok",
		"stats":   h.stats.Snapshot(),
	}
	if err := h.repository.Ping(); err != nil {
		h.log.Error("Storage unreachable", "error", err)
		body["status"] = "degraded"
		body["storage"] = "unreachable"
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}
