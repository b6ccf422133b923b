package consumer

import (
	"context"
	"testing"

	"wisefido-presence/internal/config"
	"wisefido-presence/internal/ingest"
	"wisefido-presence/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMQTTConsumer(t *testing.T) (*MQTTConsumer, *repository.TagRepository, *repository.InRangeRepository) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := zap.NewNop()

	tags := repository.NewTagRepository(client, logger)
	people := repository.NewPeopleRepository(client, logger)
	readings := repository.NewReadingRepository(client, logger)
	inRange := repository.NewInRangeRepository(client, logger)
	ingestor := ingest.NewIngestor(readings, tags, people, inRange, nil, client, "presence:events", logger)

	cfg := &config.Config{}
	cfg.Presence.Topics.Scan = "rfid/+/scan"

	return NewMQTTConsumer(cfg, nil, ingestor, logger), tags, inRange
}

func TestHandleMessage(t *testing.T) {
	consumer, tags, inRange := setupMQTTConsumer(t)

	payload := []byte(`{"tag_id":"tag-1","location":"Living Room","rssi":42}`)
	require.NoError(t, consumer.handleMessage("rfid/reader-7/scan", payload))

	tag, err := tags.Get(context.Background(), "tag-1")
	require.NoError(t, err)
	assert.Equal(t, "living-room", tag.CurrentRoom)

	// 读卡器标识来自主题而不是消息体
	entries, err := inRange.Entries(context.Background(), "reader-7")
	require.NoError(t, err)
	assert.Contains(t, entries, "tag-1")
}

func TestHandleMessage_BadTopic(t *testing.T) {
	consumer, _, _ := setupMQTTConsumer(t)

	err := consumer.handleMessage("garbage", []byte(`{}`))
	assert.Error(t, err)
}

func TestHandleMessage_BadPayload(t *testing.T) {
	consumer, _, _ := setupMQTTConsumer(t)

	err := consumer.handleMessage("rfid/reader-7/scan", []byte(`{not json`))
	assert.Error(t, err)
}

func TestHandleMessage_MissingFields(t *testing.T) {
	consumer, _, _ := setupMQTTConsumer(t)

	err := consumer.handleMessage("rfid/reader-7/scan", []byte(`{"rssi":42}`))
	assert.Error(t, err)
}
