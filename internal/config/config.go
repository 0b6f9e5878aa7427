package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the CRM pipeline processes.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Consumer ConsumerConfig `yaml:"consumer"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Bedrock  BedrockConfig  `yaml:"bedrock"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig holds the log store address. An empty URL disables the
// stream path entirely (campaigns deliver synchronously).
type RedisConfig struct {
	URL string `yaml:"url"`
}

// ConsumerConfig tunes the ingestion consumer loops.
type ConsumerConfig struct {
	Name      string        `yaml:"name"`
	ReadBlock time.Duration `yaml:"read_block"`
	Backoff   time.Duration `yaml:"backoff"`
}

// DeliveryConfig tunes the campaign delivery simulator.
type DeliveryConfig struct {
	SuccessRate      float64       `yaml:"success_rate"`
	DiscoverInterval time.Duration `yaml:"discover_interval"`
}

// BedrockConfig holds the AI content generation settings.
type BedrockConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Region       string `yaml:"region"`
	TextModelID  string `yaml:"text_model_id"`
	ImageModelID string `yaml:"image_model_id"`
}

// Load reads configuration from the optional YAML file at path, then
// applies environment overrides. A missing file is not an error; env
// vars alone are enough to run.
func Load(path string) (*Config, error) {
	// .env is a dev convenience; ignore if absent.
	_ = godotenv.Load()

	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Consumer: ConsumerConfig{
			Name:      "crm-consumer-1",
			ReadBlock: 5 * time.Second,
			Backoff:   time.Second,
		},
		Delivery: DeliveryConfig{
			SuccessRate:      0.9,
			DiscoverInterval: 2 * time.Second,
		},
		Bedrock: BedrockConfig{
			Region:       "us-east-1",
			TextModelID:  "anthropic.claude-3-haiku-20240307-v1:0",
			ImageModelID: "amazon.titan-image-generator-v1",
		},
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("CONSUMER_NAME"); v != "" {
		cfg.Consumer.Name = v
	}
	if v := os.Getenv("DELIVERY_SUCCESS_RATE"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil && r >= 0 && r <= 1 {
			cfg.Delivery.SuccessRate = r
		}
	}
	if v := os.Getenv("BEDROCK_ENABLED"); v != "" {
		cfg.Bedrock.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Bedrock.Region = v
	}
	if v := os.Getenv("BEDROCK_TEXT_MODEL_ID"); v != "" {
		cfg.Bedrock.TextModelID = v
	}
}
