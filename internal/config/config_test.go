package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imaginx-backend/internal/config"
)

func setRequired(t *testing.T) {
	t.Setenv("REPLICATE_API_TOKEN", "r8_test")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-role")
	t.Setenv("SUPABASE_JWT_SECRET", "jwt-secret")
	t.Setenv("SITE_URL", "https://imaginx.example.com/")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "training-data", cfg.TrainingBucket)
	assert.Equal(t, "generated-images", cfg.ImagesBucket)
	assert.Equal(t, "ostris", cfg.TrainerOwner)
	assert.Equal(t, "flux-dev-lora-trainer", cfg.TrainerModel)
	assert.Equal(t, 120*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 5*time.Minute, cfg.WebhookTolerance)
	assert.Equal(t, 4, cfg.PersistConcurrency)
	assert.Equal(t, []string{"replicate.delivery"}, cfg.DeliveryHosts)
	assert.Equal(t, "https://imaginx.example.com", cfg.SiteURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_MissingToken(t *testing.T) {
	setRequired(t)
	t.Setenv("REPLICATE_API_TOKEN", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPLICATE_API_TOKEN")
}

func TestValidate_Concurrency(t *testing.T) {
	cfg := &config.Config{
		ReplicateAPIToken:      "r8",
		SupabaseURL:            "https://x.supabase.co",
		SupabaseServiceRoleKey: "k",
		SupabaseJWTSecret:      "s",
		SiteURL:                "https://x",
		PersistConcurrency:     0,
		ProviderMaxRetries:     3,
		DeliveryHosts:          []string{"replicate.delivery"},
	}
	assert.Error(t, cfg.Validate())

	cfg.PersistConcurrency = 2
	assert.NoError(t, cfg.Validate())
}

func TestLoad_DeliveryHosts(t *testing.T) {
	setRequired(t)
	t.Setenv("REPLICATE_DELIVERY_HOSTS", "replicate.delivery,cdn.example.com")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"replicate.delivery", "cdn.example.com"}, cfg.DeliveryHosts)
}
