package repository

import (
	"context"
	"fmt"
	"sort"

	"wisefido-presence/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReadingRepository 读取日志仓库
// 追加式日志（tag_readings/{location_id}/{date}/{reading_id}），
// 核心从不修改或删除已写入的读取记录
type ReadingRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewReadingRepository 创建读取日志仓库
func NewReadingRepository(client *redis.Client, logger *zap.Logger) *ReadingRepository {
	return &ReadingRepository{
		client: client,
		logger: logger,
	}
}

// Append 追加一条读取记录到对应位置和日期的分区
func (r *ReadingRepository) Append(ctx context.Context, locationID string, tagID string, rssi int, ts int64) (*models.Reading, error) {
	if locationID == "" || tagID == "" {
		return nil, fmt.Errorf("%w: empty location or tag id", ErrInvalidInput)
	}

	reading := &models.Reading{
		ID:        uuid.New().String(),
		TagID:     tagID,
		Timestamp: ts,
		RSSI:      rssi,
	}

	key := readingKey(locationID, DateKey(ts), reading.ID)
	if err := setDoc(ctx, r.client, key, reading); err != nil {
		return nil, err
	}

	return reading, nil
}

// ListByLocationDate 列出某位置某日的全部读取记录（按时间升序）
func (r *ReadingRepository) ListByLocationDate(ctx context.Context, locationID, date string) ([]*models.Reading, error) {
	pattern := fmt.Sprintf("tag_readings/%s/%s/*", locationID, date)
	keys, err := scanKeys(ctx, r.client, pattern)
	if err != nil {
		return nil, err
	}

	readings := make([]*models.Reading, 0, len(keys))
	for _, key := range keys {
		var reading models.Reading
		if err := getDoc(ctx, r.client, key, &reading); err != nil {
			r.logger.Warn("Skipping unreadable reading document",
				zap.String("key", key),
				zap.Error(err),
			)
			continue
		}
		readings = append(readings, &reading)
	}

	sort.Slice(readings, func(i, j int) bool {
		return readings[i].Timestamp < readings[j].Timestamp
	})

	return readings, nil
}
