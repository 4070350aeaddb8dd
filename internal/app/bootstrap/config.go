package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the moderation service.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	RedisURL    string

	JWTPublicKeyPEM string

	SegmentationURL string
	ImageScorerURL  string
	PIIScannerURL   string
	ObjectStoreURL  string
	ClientTimeout   time.Duration

	EventChannelPrefix     string
	ReviewAdminChannel     string
	ReviewBroadcastChannel string

	PublishedPrefix string
	ProcessedPrefix string

	ReviewExpiry    time.Duration
	MaxTaskAttempts int
	RetryBaseDelay  time.Duration
	ClaimTTL        time.Duration

	MaxDBConns int32

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxClaimTTL     time.Duration

	ExecutorPollInterval time.Duration
	ExecutorBatchSize    int
	SweeperInterval      time.Duration
	SweeperBatchSize     int
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL     string `yaml:"postgres_url"`
		RedisURL        string `yaml:"redis_url"`
		SegmentationURL string `yaml:"segmentation_url"`
		ImageScorerURL  string `yaml:"image_scorer_url"`
		PIIScannerURL   string `yaml:"pii_scanner_url"`
		ObjectStoreURL  string `yaml:"object_store_url"`
	} `yaml:"dependencies"`
	Storage struct {
		PublishedPrefix string `yaml:"published_prefix"`
		ProcessedPrefix string `yaml:"processed_prefix"`
	} `yaml:"storage"`
	Events struct {
		ChannelPrefix          string `yaml:"channel_prefix"`
		ReviewAdminChannel     string `yaml:"review_admin_channel"`
		ReviewBroadcastChannel string `yaml:"review_broadcast_channel"`
	} `yaml:"events"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:              "M11-Moderation-Service",
		HTTPPort:               8080,
		GRPCPort:               9090,
		ClientTimeout:          30 * time.Second,
		EventChannelPrefix:     "moderation.events",
		ReviewAdminChannel:     "moderation.reviews.admin",
		ReviewBroadcastChannel: "moderation.reviews.broadcast",
		PublishedPrefix:        "published/",
		ProcessedPrefix:        "processed/",
		ReviewExpiry:           7 * 24 * time.Hour,
		MaxTaskAttempts:        5,
		RetryBaseDelay:         5 * time.Second,
		ClaimTTL:               60 * time.Second,
		MaxDBConns:             20,
		OutboxPollInterval:     2 * time.Second,
		OutboxBatchSize:        100,
		OutboxClaimTTL:         30 * time.Second,
		ExecutorPollInterval:   time.Second,
		ExecutorBatchSize:      10,
		SweeperInterval:        time.Minute,
		SweeperBatchSize:       50,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Dependencies.SegmentationURL != "" {
			cfg.SegmentationURL = f.Dependencies.SegmentationURL
		}
		if f.Dependencies.ImageScorerURL != "" {
			cfg.ImageScorerURL = f.Dependencies.ImageScorerURL
		}
		if f.Dependencies.PIIScannerURL != "" {
			cfg.PIIScannerURL = f.Dependencies.PIIScannerURL
		}
		if f.Dependencies.ObjectStoreURL != "" {
			cfg.ObjectStoreURL = f.Dependencies.ObjectStoreURL
		}
		if f.Storage.PublishedPrefix != "" {
			cfg.PublishedPrefix = f.Storage.PublishedPrefix
		}
		if f.Storage.ProcessedPrefix != "" {
			cfg.ProcessedPrefix = f.Storage.ProcessedPrefix
		}
		if f.Events.ChannelPrefix != "" {
			cfg.EventChannelPrefix = f.Events.ChannelPrefix
		}
		if f.Events.ReviewAdminChannel != "" {
			cfg.ReviewAdminChannel = f.Events.ReviewAdminChannel
		}
		if f.Events.ReviewBroadcastChannel != "" {
			cfg.ReviewBroadcastChannel = f.Events.ReviewBroadcastChannel
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.JWTPublicKeyPEM = envOrDefault("JWT_PUBLIC_KEY_PEM", cfg.JWTPublicKeyPEM)
	cfg.SegmentationURL = envOrDefault("SEGMENTATION_URL", cfg.SegmentationURL)
	cfg.ImageScorerURL = envOrDefault("IMAGE_SCORER_URL", cfg.ImageScorerURL)
	cfg.PIIScannerURL = envOrDefault("PII_SCANNER_URL", cfg.PIIScannerURL)
	cfg.ObjectStoreURL = envOrDefault("OBJECT_STORE_URL", cfg.ObjectStoreURL)
	cfg.EventChannelPrefix = envOrDefault("EVENT_CHANNEL_PREFIX", cfg.EventChannelPrefix)
	cfg.ReviewAdminChannel = envOrDefault("REVIEW_ADMIN_CHANNEL", cfg.ReviewAdminChannel)
	cfg.ReviewBroadcastChannel = envOrDefault("REVIEW_BROADCAST_CHANNEL", cfg.ReviewBroadcastChannel)
	cfg.PublishedPrefix = envOrDefault("PUBLISHED_PREFIX", cfg.PublishedPrefix)
	cfg.ProcessedPrefix = envOrDefault("PROCESSED_PREFIX", cfg.ProcessedPrefix)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.MaxTaskAttempts = envInt("MAX_TASK_ATTEMPTS", cfg.MaxTaskAttempts)
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.ExecutorBatchSize = envInt("EXECUTOR_BATCH_SIZE", cfg.ExecutorBatchSize)
	cfg.SweeperBatchSize = envInt("SWEEPER_BATCH_SIZE", cfg.SweeperBatchSize)

	cfg.ClientTimeout = time.Duration(envInt("CLIENT_TIMEOUT_SECONDS", int(cfg.ClientTimeout.Seconds()))) * time.Second
	cfg.ReviewExpiry = time.Duration(envInt("REVIEW_EXPIRY_HOURS", int(cfg.ReviewExpiry.Hours()))) * time.Hour
	cfg.RetryBaseDelay = time.Duration(envInt("RETRY_BASE_DELAY_SECONDS", int(cfg.RetryBaseDelay.Seconds()))) * time.Second
	cfg.ClaimTTL = time.Duration(envInt("CLAIM_TTL_SECONDS", int(cfg.ClaimTTL.Seconds()))) * time.Second
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxClaimTTL = time.Duration(envInt("OUTBOX_CLAIM_TTL_SECONDS", int(cfg.OutboxClaimTTL.Seconds()))) * time.Second
	cfg.ExecutorPollInterval = time.Duration(envInt("EXECUTOR_POLL_SECONDS", int(cfg.ExecutorPollInterval.Seconds()))) * time.Second
	cfg.SweeperInterval = time.Duration(envInt("SWEEPER_INTERVAL_SECONDS", int(cfg.SweeperInterval.Seconds()))) * time.Second

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.JWTPublicKeyPEM == "" {
		return Config{}, fmt.Errorf("missing JWT_PUBLIC_KEY_PEM")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
