// main package for the scripttts-service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mrijcreo/scripttts/internal/app"
	"github.com/mrijcreo/scripttts/internal/config"
	"github.com/mrijcreo/scripttts/internal/objectstore"
	"github.com/mrijcreo/scripttts/internal/worker"
)

const (
	bootstrapLogFile = "scripttts-service-bootstrap.log"
	serviceLogFile   = "scripttts-service.log"
	clientName       = "scripttts-service"
	setupTimeout     = 30 * time.Second
)

func setupLogger(logPath, fileName string) (*logger.Logger, error) {
	log, err := logger.New(logPath, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir(), bootstrapLogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	defer func() {
		_ = bootstrapLog.Close()
	}()

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration
	log, err := setupLogger(cfg.Paths.BaseLogsDir, serviceLogFile)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := log.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Connect to NATS and bind the buckets
	natsURL := cfg.NATS.URL
	if natsURL == "" {
		natsURL = nats.DefaultURL
	}

	natsConnection, err := nats.Connect(natsURL, nats.Name(clientName))
	if err != nil {
		log.Error("Failed to connect to NATS at %s: %v", natsURL, err)

		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer natsConnection.Close()

	workerInstance, err := buildWorker(ctx, cfg, natsConnection, log)
	if err != nil {
		return err
	}

	// 5. Serve until interrupted
	log.System("Scripttts-Service successfully initialized. Listening for jobs on subject: %s", cfg.NATS.NarrationSubject)

	err = workerInstance.Run(ctx)
	if err != nil {
		log.Error("Worker stopped with error: %v", err)

		return fmt.Errorf("worker stopped: %w", err)
	}

	log.System("Scripttts-Service stopped.")

	return nil
}

func buildWorker(
	ctx context.Context,
	cfg *config.Config,
	natsConnection *nats.Conn,
	log *logger.Logger,
) (*worker.NatsWorker, error) {
	setupCtx, cancel := context.WithTimeout(ctx, setupTimeout)
	defer cancel()

	js, err := jetstream.New(natsConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	decks, err := objectstore.New(setupCtx, js, cfg.NATS.DeckBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to open deck bucket: %w", err)
	}

	audioStore, err := objectstore.New(setupCtx, js, cfg.NATS.AudioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio bucket: %w", err)
	}

	narrator, err := app.Narrator(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create narrator: %w", err)
	}

	writers, err := app.ScriptWriters(cfg, log)
	if err != nil {
		log.Warn("Script generation and slide analysis disabled: %v", err)
	}

	opts := []worker.Option{
		worker.WithNarrator(narrator),
		worker.WithScriptDefaults(cfg.LLM.Style, cfg.LLM.Length),
	}

	generator := writers.ScriptGenerator()
	if generator != nil {
		opts = append(opts, worker.WithGenerator(generator))
	}

	pipeline := app.Pipeline(cfg, log, writers.SlideAnalyzer())

	workerInstance, err := worker.NewNatsWorker(natsConnection, cfg.NATS.NarrationSubject, decks, audioStore, pipeline, log, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker: %w", err)
	}

	return workerInstance, nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
