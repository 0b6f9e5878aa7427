// Command reset wipes all application data: every Postgres table is
// truncated, every stream key is deleted and the consumer groups are
// recreated at "$". Demo/dev tool; it asks for no confirmation.
package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/crm-pipeline/internal/config"
	"github.com/ignite/crm-pipeline/internal/repository/postgres"
	"github.com/ignite/crm-pipeline/internal/stream"

	_ "github.com/lib/pq"
)

func main() {
	log.Println("Resetting CRM pipeline data...")

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	admin := postgres.NewAdminStore(db)
	if err := admin.TruncateAll(ctx); err != nil {
		log.Fatalf("Failed to truncate tables: %v", err)
	}
	log.Println("Postgres tables truncated")

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

	slog := stream.NewRedisLog(client)
	lifecycle := stream.NewLifecycleManager(slog)

	// Delete campaign streams outright; their consumer groups go with
	// the keys. Ingest streams survive with their groups reset to "$".
	campaignStreams, err := slog.ListStreams(ctx, stream.CampaignStreamPrefix)
	if err != nil {
		log.Fatalf("Failed to list campaign streams: %v", err)
	}
	for _, key := range campaignStreams {
		if err := client.Del(ctx, key).Err(); err != nil {
			log.Fatalf("Failed to delete stream %s: %v", key, err)
		}
	}
	log.Printf("Deleted %d campaign streams", len(campaignStreams))

	if err := client.Del(ctx, stream.StreamCustomerIngest, stream.StreamOrderIngest).Err(); err != nil {
		log.Fatalf("Failed to delete ingest streams: %v", err)
	}
	if err := lifecycle.ResetAll(ctx); err != nil {
		log.Fatalf("Failed to reset consumer groups: %v", err)
	}
	log.Println("Streams flushed and consumer groups reset")

	log.Println("Reset complete")
}
