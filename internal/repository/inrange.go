package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// InRangeRepository 读卡器在场集合仓库
// 每个读卡器一个 hash（readers/{reader_id}/in_range），
// field 为标签ID，value 为最近一次被该读卡器看到的 unix 秒
type InRangeRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewInRangeRepository 创建在场集合仓库
func NewInRangeRepository(client *redis.Client, logger *zap.Logger) *InRangeRepository {
	return &InRangeRepository{
		client: client,
		logger: logger,
	}
}

// Refresh 刷新某读卡器对某标签的在场记录
func (r *InRangeRepository) Refresh(ctx context.Context, readerID, tagID string, ts int64) error {
	if readerID == "" || tagID == "" {
		return fmt.Errorf("%w: empty reader or tag id", ErrInvalidInput)
	}
	if err := r.client.HSet(ctx, inRangeKey(readerID), tagID, strconv.FormatInt(ts, 10)).Err(); err != nil {
		return mapStoreErr("refresh in-range "+readerID, err)
	}
	return nil
}

// Entries 获取某读卡器的在场集合（tag_id → last_seen）
func (r *InRangeRepository) Entries(ctx context.Context, readerID string) (map[string]int64, error) {
	values, err := r.client.HGetAll(ctx, inRangeKey(readerID)).Result()
	if err != nil {
		return nil, mapStoreErr("entries in-range "+readerID, err)
	}

	entries := make(map[string]int64, len(values))
	for tagID, raw := range values {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			r.logger.Warn("Dropping malformed in-range entry",
				zap.String("reader_id", readerID),
				zap.String("tag_id", tagID),
				zap.String("value", raw),
			)
			continue
		}
		entries[tagID] = ts
	}
	return entries, nil
}

// Remove 从某读卡器在场集合中移除标签
func (r *InRangeRepository) Remove(ctx context.Context, readerID string, tagIDs ...string) error {
	if len(tagIDs) == 0 {
		return nil
	}
	if err := r.client.HDel(ctx, inRangeKey(readerID), tagIDs...).Err(); err != nil {
		return mapStoreErr("remove in-range "+readerID, err)
	}
	return nil
}

// Readers 列出所有有在场集合的读卡器ID
func (r *InRangeRepository) Readers(ctx context.Context) ([]string, error) {
	keys, err := scanKeys(ctx, r.client, "readers/*/in_range")
	if err != nil {
		return nil, err
	}

	readers := make([]string, 0, len(keys))
	for _, key := range keys {
		// readers/{reader_id}/in_range
		parts := strings.Split(key, "/")
		if len(parts) != 3 {
			continue
		}
		readers = append(readers, parts[1])
	}
	return readers, nil
}
