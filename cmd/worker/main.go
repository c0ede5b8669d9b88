/**
 * OCR worker entry point.
 *
 * Wires configuration, storage (PostgreSQL + Qdrant), the document processor
 * and a queue consumer, then runs until a shutdown signal arrives. The queue
 * driver is selected by QUEUE_DRIVER: "asynq" for the task-based consumer or
 * "redis" for the plain LIST consumer.
 */

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/docpipe/ocr-worker/internal/config"
	"github.com/docpipe/ocr-worker/internal/processor"
	"github.com/docpipe/ocr-worker/internal/queue"
	"github.com/docpipe/ocr-worker/internal/storage"
)

const queueName = "ocr:jobs"

func main() {
	if err := godotenv.Load(".env.ocr"); err != nil {
		log.Printf("Warning: .env.ocr not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("OCR worker starting...")
	log.Printf("Configuration loaded: redis=%s, qdrant=%s, driver=%s, workers=%d",
		cfg.RedisURL, cfg.QdrantURL, cfg.QueueDriver, cfg.WorkerConcurrency)

	storageManager, err := storage.NewStorageManager(
		cfg.DatabaseURL,
		cfg.QdrantURL,
		cfg.QdrantCollection,
	)
	if err != nil {
		log.Fatalf("Failed to initialize storage manager: %v", err)
	}
	defer storageManager.Close()
	log.Printf("Storage manager initialized (PostgreSQL + Qdrant)")

	proc, err := processor.NewDocumentProcessor(&processor.ProcessorConfig{
		TesseractPath:     cfg.TesseractPath,
		Language:          cfg.OCRLanguage,
		DPI:               cfg.OCRDPI,
		TempDir:           cfg.TempDir,
		MaxFileSize:       cfg.MaxFileSize,
		ProcessingTimeout: cfg.ProcessingTimeout,
		StorageManager:    storageManager,
		EmbeddingAPIURL:   cfg.EmbeddingAPIURL,
		EmbeddingAPIKey:   cfg.EmbeddingAPIKey,
		ArtifactAPIURL:    cfg.ArtifactAPIURL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize document processor: %v", err)
	}
	log.Printf("Document processor initialized")

	stop, err := startConsumer(cfg, proc)
	if err != nil {
		log.Fatalf("Failed to start queue consumer: %v", err)
	}
	log.Printf("Queue consumer started: driver=%s, queue=%s, concurrency=%d",
		cfg.QueueDriver, queueName, cfg.WorkerConcurrency)
	log.Printf("Waiting for jobs...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Printf("Received signal %v, initiating graceful shutdown...", sig)

	if err := stop(); err != nil {
		log.Printf("Error stopping queue consumer: %v", err)
	}

	if err := storageManager.Close(); err != nil {
		log.Printf("Error closing storage manager: %v", err)
	}

	log.Printf("Shutdown complete")
}

// startConsumer starts the configured queue driver and returns its stop
// function.
func startConsumer(cfg *config.Config, proc *processor.DocumentProcessor) (func() error, error) {
	switch cfg.QueueDriver {
	case "redis":
		consumer, err := queue.NewRedisConsumer(&queue.RedisConsumerConfig{
			RedisURL:          cfg.RedisURL,
			QueueName:         queueName,
			Concurrency:       cfg.WorkerConcurrency,
			Processor:         proc,
			ProcessingTimeout: cfg.ProcessingTimeout,
		})
		if err != nil {
			return nil, err
		}
		if err := consumer.Start(); err != nil {
			return nil, err
		}
		return consumer.Stop, nil

	default:
		consumer, err := queue.NewConsumer(&queue.ConsumerConfig{
			RedisURL:          cfg.RedisURL,
			QueueName:         queueName,
			Concurrency:       cfg.WorkerConcurrency,
			Processor:         proc,
			ProcessingTimeout: cfg.ProcessingTimeout,
		})
		if err != nil {
			return nil, err
		}
		if err := consumer.Start(context.Background()); err != nil {
			return nil, err
		}
		return func() error { return consumer.Stop(context.Background()) }, nil
	}
}
