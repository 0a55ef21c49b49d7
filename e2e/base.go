package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pairchat/domain"
	"pairchat/infrastructure/httpapi"
	"pairchat/infrastructure/ws"
	"pairchat/moderation"
	"pairchat/observability"
	"pairchat/repositories"
	"pairchat/runtime"
	"pairchat/search"
	"pairchat/services"
	"pairchat/sink"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

// BaseSuite assembles the complete in-process stack the way the server main
// does: store, index, fanout with permanent sinks, reaper, REST router and
// websocket endpoint, all behind one httptest server. A fresh stack is built
// per test so scenarios cannot leak state into each other.
type BaseSuite struct {
	suite.Suite
	Config Config

	Server *httptest.Server
	Reaper *runtime.Reaper
	Stats  *observability.Stats

	// testT is the test-method *testing.T captured in SetupTest. Inside
	// s.Run subtests s.T() is the subtest's T, whose cleanups fire when the
	// subtest ends; resources that must outlive a step register here.
	testT *testing.T
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
}

func (s *BaseSuite) SetupTest() {
	s.testT = s.T()
	log := slog.Default()

	db, err := badger.Open(badger.DefaultOptions(s.T().TempDir()).WithLoggingLevel(badger.ERROR))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = db.Close() })

	index, err := search.Open(log, bluge.InMemoryOnlyConfig())
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = index.Close() })

	moderator, err := moderation.NewModerator(moderation.DefaultWords(), '*')
	s.Require().NoError(err)

	s.Stats = observability.NewStats()
	registry := runtime.NewRegistry()
	fanout := runtime.NewFanout(log, registry, s.Config.BufferSize, time.Second).
		Add(sink.NewSearchSink(index, log), sink.NewStatsSink(s.Stats))

	repository := repositories.NewMessageRepository(db, log, domain.RetentionWindow, 30*time.Minute)
	s.Reaper = runtime.NewReaper(log, repository, fanout, s.Stats, 30*time.Minute)
	service := services.NewChatService(log, repository, fanout, registry, &moderator, index)

	ctx, cancel := context.WithCancel(context.Background())
	s.T().Cleanup(cancel)
	go func() { _ = fanout.Run(ctx) }()

	router := httpapi.NewRouter(
		httpapi.NewMessageHandler(log, service),
		httpapi.NewHealthHandler(log, repository, s.Stats),
	)
	router.HandleFunc("/ws", ws.NewHandler(log, service, s.Config.BufferSize).Serve)

	s.Server = httptest.NewServer(router)
	s.T().Cleanup(s.Server.Close)
}

// Step prints a colorized scenario header in the test log.
func (s *BaseSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Dial opens a websocket session and consumes the connected acknowledgment.
func (s *BaseSuite) Dial() *websocket.Conn {
	url := "ws" + strings.TrimPrefix(s.Server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	s.testT.Cleanup(func() { _ = conn.Close() })

	envelope := s.ReadEnvelope(conn)
	s.Require().Equal(ws.TypeConnected, envelope.Type)
	return conn
}

func (s *BaseSuite) ReadEnvelope(conn *websocket.Conn) ws.Envelope {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(s.Config.ReadTimeout)))
	_, raw, err := conn.ReadMessage()
	s.Require().NoError(err)

	var envelope ws.Envelope
	s.Require().NoError(json.Unmarshal(raw, &envelope))
	return envelope
}

func (s *BaseSuite) WriteEnvelope(conn *websocket.Conn, kind string, payload any) {
	raw, err := json.Marshal(payload)
	s.Require().NoError(err)
	data, err := json.Marshal(ws.Envelope{Type: kind, Payload: raw})
	s.Require().NoError(err)
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, data))
}

// PostMessage creates a message through the request/response path.
func (s *BaseSuite) PostMessage(body map[string]any) httpapi.MessageResponse {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	resp, err := http.Post(s.Server.URL+"/api/messages", "application/json", bytes.NewReader(payload))
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var created httpapi.MessageResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&created))
	return created
}

func (s *BaseSuite) Get(path string) *http.Response {
	resp, err := http.Get(s.Server.URL + path)
	s.Require().NoError(err)
	return resp
}

func (s *BaseSuite) Delete(path string) *http.Response {
	request, err := http.NewRequest(http.MethodDelete, s.Server.URL+path, nil)
	s.Require().NoError(err)
	resp, err := http.DefaultClient.Do(request)
	s.Require().NoError(err)
	return resp
}
