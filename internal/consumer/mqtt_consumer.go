package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"wisefido-presence/internal/config"
	"wisefido-presence/internal/ingest"
	"wisefido-presence/internal/models"
	mqttcommon "wisefido-presence/pkg/mqtt"

	"go.uber.org/zap"
)

// MQTTConsumer 读卡器扫描事件消费者
// 读卡器按主题 rfid/{reader_id}/scan 上报，每条消息是一次物理扫描
type MQTTConsumer struct {
	config     *config.Config
	mqttClient *mqttcommon.Client
	ingestor   *ingest.Ingestor
	logger     *zap.Logger
}

// NewMQTTConsumer 创建MQTT消费者
func NewMQTTConsumer(
	cfg *config.Config,
	mqttClient *mqttcommon.Client,
	ingestor *ingest.Ingestor,
	logger *zap.Logger,
) *MQTTConsumer {
	return &MQTTConsumer{
		config:     cfg,
		mqttClient: mqttClient,
		ingestor:   ingestor,
		logger:     logger,
	}
}

// Start 启动消费者
func (c *MQTTConsumer) Start(ctx context.Context) error {
	if err := c.mqttClient.Subscribe(c.config.Presence.Topics.Scan, 1, c.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to scan topic: %w", err)
	}

	c.logger.Info("MQTT consumer started",
		zap.String("topic", c.config.Presence.Topics.Scan),
	)
	return nil
}

// Stop 停止消费者
func (c *MQTTConsumer) Stop(ctx context.Context) error {
	if err := c.mqttClient.Unsubscribe(c.config.Presence.Topics.Scan); err != nil {
		c.logger.Error("Failed to unsubscribe", zap.Error(err))
	}

	c.logger.Info("MQTT consumer stopped")
	return nil
}

// handleMessage 处理一条扫描消息
func (c *MQTTConsumer) handleMessage(topic string, payload []byte) error {
	// 主题格式: rfid/{reader_id}/scan
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return fmt.Errorf("invalid topic format: %s", topic)
	}
	readerID := parts[1]

	var event models.ScanEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		c.logger.Error("Failed to unmarshal scan event",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return fmt.Errorf("failed to unmarshal scan event: %w", err)
	}

	reading, err := c.ingestor.RecordReading(context.Background(), readerID, event.TagID, event.Location, event.RSSI)
	if err != nil {
		c.logger.Error("Failed to record reading",
			zap.String("reader_id", readerID),
			zap.String("tag_id", event.TagID),
			zap.Error(err),
		)
		return err
	}

	c.logger.Debug("Scan event ingested",
		zap.String("reader_id", readerID),
		zap.String("reading_id", reading.ID),
	)
	return nil
}
