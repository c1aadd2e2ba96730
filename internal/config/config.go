package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL   string // GATE_DATABASE_URL (required)
	HTTPAddr      string // GATE_HTTP_ADDR (default ":8080")
	NATSURL       string // GATE_NATS_URL (optional, empty = no bus)
	AuthToken     string // GATE_AUTH_TOKEN (optional, empty = auth disabled)
	DirectoryFile string // GATE_DIRECTORY_FILE (optional TOML seed for the participant directory)

	// BroadcastParallelism bounds concurrent deliveries during fan-out.
	BroadcastParallelism int // GATE_BROADCAST_PARALLELISM (default 4)

	// Audit export settings
	AuditInterval   time.Duration // GATE_AUDIT_INTERVAL (default 5m; 0 = disabled)
	AuditS3Bucket   string        // GATE_AUDIT_S3_BUCKET (enables S3 when set)
	AuditS3Endpoint string        // GATE_AUDIT_S3_ENDPOINT (custom endpoint for MinIO)
	AuditS3Region   string        // GATE_AUDIT_S3_REGION (default "us-east-1")
	AuditS3Key      string        // GATE_AUDIT_S3_KEY (default "gate/decisions.jsonl")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:     os.Getenv("GATE_DATABASE_URL"),
		HTTPAddr:        envOrDefault("GATE_HTTP_ADDR", ":8080"),
		NATSURL:         os.Getenv("GATE_NATS_URL"),
		AuthToken:       os.Getenv("GATE_AUTH_TOKEN"),
		DirectoryFile:   os.Getenv("GATE_DIRECTORY_FILE"),
		AuditS3Bucket:   os.Getenv("GATE_AUDIT_S3_BUCKET"),
		AuditS3Endpoint: os.Getenv("GATE_AUDIT_S3_ENDPOINT"),
		AuditS3Region:   envOrDefault("GATE_AUDIT_S3_REGION", "us-east-1"),
		AuditS3Key:      envOrDefault("GATE_AUDIT_S3_KEY", "gate/decisions.jsonl"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("GATE_DATABASE_URL is required")
	}

	parallelStr := envOrDefault("GATE_BROADCAST_PARALLELISM", "4")
	n, err := strconv.Atoi(parallelStr)
	if err != nil || n < 1 {
		return nil, fmt.Errorf("GATE_BROADCAST_PARALLELISM: must be a positive integer, got %q", parallelStr)
	}
	c.BroadcastParallelism = n

	intervalStr := envOrDefault("GATE_AUDIT_INTERVAL", "5m")
	if intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("GATE_AUDIT_INTERVAL: %w", err)
		}
		c.AuditInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
