package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/crm-pipeline/internal/config"
	"github.com/ignite/crm-pipeline/internal/delivery"
	"github.com/ignite/crm-pipeline/internal/ingest"
	"github.com/ignite/crm-pipeline/internal/repository/postgres"
	"github.com/ignite/crm-pipeline/internal/stream"

	_ "github.com/lib/pq"
)

func main() {
	log.Println("Starting CRM Pipeline Consumer...")

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

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancelPing()
		log.Fatalf("Failed to ping database: %v", err)
	}
	cancelPing()
	log.Println("Connected to database")

	redisURL := cfg.Redis.URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("Invalid REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	pingCtx, cancelPing = context.WithTimeout(context.Background(), 5*time.Second)
	if err := client.Ping(pingCtx).Err(); err != nil {
		cancelPing()
		log.Fatalf("Failed to ping Redis: %v", err)
	}
	cancelPing()
	log.Println("Connected to Redis")

	slog := stream.NewRedisLog(client)

	// Groups must exist before the first read; start at the beginning
	// so records appended before the consumer came up are not lost.
	lifecycle := stream.NewLifecycleManager(slog)
	if err := lifecycle.EnsureIngestGroups(context.Background()); err != nil {
		log.Fatalf("Failed to create consumer groups: %v", err)
	}

	store := postgres.NewCustomerRepo(db)
	comms := postgres.NewCommunicationRepo(db)
	recorder := delivery.NewRecorder(comms, cfg.Delivery.SuccessRate)

	ingestConsumer := ingest.NewConsumer(slog, store, cfg.Consumer.Name)
	ingestConsumer.SetTimings(cfg.Consumer.ReadBlock, cfg.Consumer.Backoff)

	deliveryConsumer := delivery.NewConsumer(slog, recorder, cfg.Consumer.Name)
	deliveryConsumer.SetTimings(cfg.Consumer.ReadBlock, cfg.Consumer.Backoff, cfg.Delivery.DiscoverInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		ingestConsumer.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		deliveryConsumer.Run(ctx)
	}()
	log.Println("Consumer loops started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("Received %v, stopping consumers...", sig)

	cancel()
	wg.Wait()
	log.Println("Consumer stopped")
}
