package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.Availability.TTL)
	assert.Equal(t, 2*time.Second, cfg.Availability.MinInterval)
	assert.Equal(t, 800*time.Millisecond, cfg.Lookup.Debounce)
	assert.Equal(t, 6, cfg.Lookup.MinLength)
	assert.Equal(t, int64(5*1024*1024), cfg.Uploads.MaxFileSizeBytes)
	assert.ElementsMatch(t, []string{"application/pdf", "image/jpeg", "image/png", "image/webp"}, cfg.Uploads.AllowedMIMEs)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "https://academy.example/api/")
	t.Setenv("AVAILABILITY_TTL", "30s")
	t.Setenv("LOOKUP_DEBOUNCE", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://academy.example/api", cfg.Backend.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Availability.TTL)
	assert.Equal(t, 800*time.Millisecond, cfg.Lookup.Debounce)
}

func TestLoadNotifySinks(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("DISCORD_CHANNEL_ID", "1234")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Notify.KafkaBrokers)
	assert.Equal(t, "enrollment.offerings", cfg.Notify.KafkaTopic)
	assert.Equal(t, "1234", cfg.Notify.DiscordChannelID)
	assert.Empty(t, cfg.Notify.DiscordToken)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b "))
}
