package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	// Replicate
	ReplicateAPIToken     string        `env:"REPLICATE_API_TOKEN"`
	ReplicateBaseURL      string        `env:"REPLICATE_API_BASE_URL" envDefault:"https://api.replicate.com/v1/"`
	ReplicateOwner        string        `env:"REPLICATE_OWNER" envDefault:"taskmasterrishi"`
	ReplicateWebhookKey   string        `env:"REPLICATE_WEBHOOK_SECRET"`
	TrainerOwner          string        `env:"TRAINER_OWNER" envDefault:"ostris"`
	TrainerModel          string        `env:"TRAINER_MODEL" envDefault:"flux-dev-lora-trainer"`
	TrainerVersion        string        `env:"TRAINER_VERSION" envDefault:"c6e78d2501e8088876e99ef21e4460d0dc121af7a4b786b9a4c2d75c620e300d"`
	TrainingHardware      string        `env:"TRAINING_HARDWARE" envDefault:"gpu-a100-large"`
	ProviderTimeout       time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"120s"`
	ProviderMaxRetries    int           `env:"PROVIDER_MAX_RETRIES" envDefault:"3"`
	WebhookTolerance      time.Duration `env:"WEBHOOK_TIMESTAMP_TOLERANCE" envDefault:"5m"`
	TrainingSyncInterval  time.Duration `env:"TRAINING_SYNC_INTERVAL" envDefault:"10m"`
	PersistConcurrency    int           `env:"PERSIST_CONCURRENCY" envDefault:"4"`
	DeliveryHosts         []string      `env:"REPLICATE_DELIVERY_HOSTS" envSeparator:"," envDefault:"replicate.delivery"`
	GenerationSessionIdle time.Duration `env:"GENERATION_SESSION_IDLE" envDefault:"30m"`

	// Supabase
	SupabaseURL            string `env:"SUPABASE_URL"`
	SupabaseServiceRoleKey string `env:"SUPABASE_SERVICE_ROLE_KEY"`
	SupabaseJWTSecret      string `env:"SUPABASE_JWT_SECRET"`
	TrainingBucket         string `env:"SUPABASE_TRAINING_BUCKET" envDefault:"training-data"`
	ImagesBucket           string `env:"SUPABASE_IMAGES_BUCKET" envDefault:"generated-images"`

	// Email
	ResendAPIKey string `env:"RESEND_API_KEY"`
	EmailFrom    string `env:"EMAIL_FROM" envDefault:"ImaginX AI <onboarding@resend.dev>"`

	// Webhook callbacks are sent to {SiteURL}/api/webhooks/training
	SiteURL string `env:"SITE_URL"`

	// Database
	DatabaseURL string `env:"DATABASE_URL"`

	// Server
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

func Load() (*Config, error) {
	// Missing files are fine; the process environment wins over both.
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.SiteURL = strings.TrimSuffix(cfg.SiteURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ReplicateAPIToken == "" {
		return fmt.Errorf("REPLICATE_API_TOKEN is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceRoleKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.SiteURL == "" {
		return fmt.Errorf("SITE_URL is required")
	}
	if c.PersistConcurrency < 1 {
		return fmt.Errorf("PERSIST_CONCURRENCY must be at least 1")
	}
	if len(c.DeliveryHosts) == 0 {
		return fmt.Errorf("REPLICATE_DELIVERY_HOSTS must name at least one host")
	}
	if c.ProviderMaxRetries < 1 {
		return fmt.Errorf("PROVIDER_MAX_RETRIES must be at least 1")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
