package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wisefido-presence/internal/config"
	"wisefido-presence/internal/models"
	"wisefido-presence/internal/repository"
	rediscommon "wisefido-presence/pkg/redis"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// StreamConsumer 在场事件流消费者
//
// 消费 presence:events，把事件折算到 locations/{id} 的 occupants
// 派生缓存上。缓存落后或丢失事件只影响展示，权威状态始终可以从
// 人员文档重建
type StreamConsumer struct {
	config      *config.Config
	redisClient *redis.Client
	locations   *repository.LocationRepository
	logger      *zap.Logger
}

// NewStreamConsumer 创建流消费者
func NewStreamConsumer(
	cfg *config.Config,
	redisClient *redis.Client,
	locations *repository.LocationRepository,
	logger *zap.Logger,
) *StreamConsumer {
	return &StreamConsumer{
		config:      cfg,
		redisClient: redisClient,
		locations:   locations,
		logger:      logger,
	}
}

// Start 启动消费循环（阻塞直到上下文取消）
func (c *StreamConsumer) Start(ctx context.Context) error {
	stream := c.config.Presence.Streams.Events
	group := c.config.Presence.Streams.ConsumerGroup

	if err := rediscommon.CreateConsumerGroup(ctx, c.redisClient, stream, group); err != nil {
		return fmt.Errorf("failed to create consumer group for %s: %w", stream, err)
	}

	c.logger.Info("Stream consumer started",
		zap.String("stream", stream),
		zap.String("consumer_group", group),
	)

	backoffDuration := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if err := c.consumeOnce(ctx); err != nil {
				c.logger.Error("Failed to consume presence events",
					zap.Error(err),
					zap.Duration("backoff", backoffDuration),
				)

				// 指数退避后重试
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(backoffDuration):
					backoffDuration *= 2
					if backoffDuration > maxBackoff {
						backoffDuration = maxBackoff
					}
				}
			} else {
				backoffDuration = time.Second
			}
		}
	}
}

// consumeOnce 读取并处理一批消息
func (c *StreamConsumer) consumeOnce(ctx context.Context) error {
	stream := c.config.Presence.Streams.Events
	group := c.config.Presence.Streams.ConsumerGroup

	messages, err := rediscommon.ReadFromStream(
		ctx,
		c.redisClient,
		stream,
		group,
		c.config.Presence.Streams.ConsumerName,
		c.config.Presence.Streams.BatchSize,
	)
	if err != nil {
		return fmt.Errorf("failed to read from stream %s: %w", stream, err)
	}

	for _, msg := range messages {
		if err := c.processMessage(ctx, msg); err != nil {
			c.logger.Error("Failed to process presence event",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			// 继续处理下一条，不中断
		}
		if err := rediscommon.AckMessage(ctx, c.redisClient, stream, group, msg.ID); err != nil {
			c.logger.Warn("Failed to ack message",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// processMessage 把一条在场事件折算到占用缓存
func (c *StreamConsumer) processMessage(ctx context.Context, msg rediscommon.StreamMessage) error {
	raw, ok := msg.Values["data"].(string)
	if !ok {
		return fmt.Errorf("message %s has no data field", msg.ID)
	}

	var event models.PresenceEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return fmt.Errorf("failed to unmarshal presence event: %w", err)
	}
	if event.PersonID == "" || event.Location == "" {
		// 消费者组初始化产生的占位消息等，直接跳过
		return nil
	}

	present := event.Type == models.PresenceEventEntered
	err := c.locations.SetOccupant(ctx, event.Location, event.PersonID, present, time.Unix(event.Timestamp, 0))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// 人员可能指向已删除的位置，缓存无处可写，不是错误
			c.logger.Debug("Presence event for unknown location",
				zap.String("location_id", event.Location),
				zap.String("person_id", event.PersonID),
			)
			return nil
		}
		return err
	}

	return nil
}
