package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, "wisefido-presence", cfg.MQTT.ClientID)

	assert.Equal(t, 300*time.Second, cfg.Presence.LivenessWindow)
	assert.Equal(t, 45*time.Second, cfg.Presence.SweepInterval)
	assert.Equal(t, "rfid/+/scan", cfg.Presence.Topics.Scan)
	assert.Equal(t, "presence:events", cfg.Presence.Streams.Events)

	assert.Equal(t, 24*time.Hour, cfg.Command.PendingTimeout)
	assert.Equal(t, time.Hour, cfg.Command.InProgressTimeout)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("PRESENCE_LIVENESS_WINDOW", "2m")
	t.Setenv("PRESENCE_TOPIC_SCAN", "rfid/building-a/+/scan")
	t.Setenv("COMMAND_PENDING_TIMEOUT", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, 2*time.Minute, cfg.Presence.LivenessWindow)
	assert.Equal(t, "rfid/building-a/+/scan", cfg.Presence.Topics.Scan)
	assert.Equal(t, time.Hour, cfg.Command.PendingTimeout)
}

func TestLoad_MalformedDurationFallsBack(t *testing.T) {
	t.Setenv("PRESENCE_LIVENESS_WINDOW", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 300*time.Second, cfg.Presence.LivenessWindow)
}
