package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pairchat/domain"
	"pairchat/infrastructure/httpapi"
	"pairchat/infrastructure/ws"
	"pairchat/moderation"
	"pairchat/observability"
	"pairchat/repositories"
	"pairchat/runtime"
	"pairchat/runtime/workers"
	"pairchat/search"
	"pairchat/services"
	"pairchat/sink"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting. This pattern is preferred over calling
// os.Exit or panic directly: 'defer' statements (like database cleanup) run
// before the program exits, and a failing store at startup aborts before any
// traffic is accepted.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB + search index). Unreachable storage is fatal.
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	index, err := search.Open(log, bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = index.Close()
	}()

	// 3. Moderation
	replacement, err := CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}
	words := moderation.DefaultWords()
	if len(config.CensoredWords) > 0 {
		words = config.CensoredWords
	}
	moderator, err := moderation.NewModerator(words, replacement)
	if err != nil {
		return fmt.Errorf("moderator setup failed: %w", err)
	}

	// 4. Pipeline wiring. The native TTL grace is one reaper interval, so a
	// logically expired record stays readable until the next sweep.
	stats := observability.NewStats()
	registry := runtime.NewRegistry()
	fanout := runtime.NewFanout(log, registry, config.BufferSize, config.SinkTimeout).
		Add(sink.NewSearchSink(index, log), sink.NewStatsSink(stats))
	repository := repositories.NewMessageRepository(db, log, domain.RetentionWindow, config.ReaperInterval)
	reaper := runtime.NewReaper(log, repository, fanout, stats, config.ReaperInterval)
	service := services.NewChatService(log, repository, fanout, registry, &moderator, index)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Background workers under supervision
	supervisor := workers.NewSupervisor(log, config.RestartInterval)
	supervisor.Add(fanout, reaper)
	supervisorDone := make(chan struct{})
	go func() {
		supervisor.Run(ctx)
		close(supervisorDone)
	}()

	// 7. Transport surfaces
	router := httpapi.NewRouter(
		httpapi.NewMessageHandler(log, service),
		httpapi.NewHealthHandler(log, repository, stats),
	)
	router.HandleFunc("/ws", ws.NewHandler(log, service, config.ConnectionBufferSize).Serve)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: router}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 9. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	stop()
	<-supervisorDone
	log.Info("Program stopped cleanly")

	return nil
}
