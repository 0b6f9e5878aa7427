package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/crm-pipeline/internal/api"
	"github.com/ignite/crm-pipeline/internal/config"
	"github.com/ignite/crm-pipeline/internal/content"
	"github.com/ignite/crm-pipeline/internal/delivery"
	"github.com/ignite/crm-pipeline/internal/ingest"
	"github.com/ignite/crm-pipeline/internal/repository/postgres"
	"github.com/ignite/crm-pipeline/internal/segmentation"
	"github.com/ignite/crm-pipeline/internal/stream"

	_ "github.com/lib/pq"
)

func main() {
	log.Println("Starting CRM Pipeline API...")

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	ctx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(ctx); err != nil {
		cancelPing()
		log.Fatalf("Failed to ping database: %v", err)
	}
	cancelPing()
	log.Println("Connected to database")

	slog := openStreamLog(cfg.Redis.URL)

	// Repositories
	comms := postgres.NewCommunicationRepo(db)
	campaigns := postgres.NewCampaignRepo(db)
	segments := postgres.NewSegmentRepo(db)

	evaluator := segmentation.NewEvaluator(db, segments)
	producer := ingest.NewProducer(slog)
	recorder := delivery.NewRecorder(comms, cfg.Delivery.SuccessRate)
	orchestrator := delivery.NewOrchestrator(slog, comms, campaigns, segments, evaluator, recorder)

	var generator api.ContentGenerator
	if cfg.Bedrock.Enabled {
		gen, err := content.NewGenerator(context.Background(), cfg.Bedrock.Region, cfg.Bedrock.TextModelID, cfg.Bedrock.ImageModelID)
		if err != nil {
			log.Printf("Content generation disabled: %v", err)
		} else {
			generator = gen
		}
	}

	handlers := api.NewHandlers(producer, orchestrator, comms, segments, evaluator, generator, db, slog)
	server := api.NewServer(handlers, cfg.Server.AllowedOrigins)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		log.Printf("API listening on %s", addr)
		errCh <- server.ListenAndServe(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received %v, shutting down...", sig)
	case err := <-errCh:
		log.Fatalf("Server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("API stopped")
}

// openStreamLog connects to Redis. The API starts even when Redis is
// unreachable; campaign dispatch degrades to the synchronous path and
// ingestion appends fail until the store comes back.
func openStreamLog(url string) *stream.RedisLog {
	if url == "" {
		url = "redis://localhost:6379"
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("Invalid REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis unreachable at startup (continuing degraded): %v", err)
	} else {
		log.Println("Connected to Redis")
	}
	return stream.NewRedisLog(client)
}
