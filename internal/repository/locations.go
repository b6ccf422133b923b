package repository

import (
	"context"
	"fmt"
	"time"

	"wisefido-presence/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// LocationRepository 位置文档仓库（locations/{id}）
type LocationRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewLocationRepository 创建位置仓库
func NewLocationRepository(client *redis.Client, logger *zap.Logger) *LocationRepository {
	return &LocationRepository{
		client: client,
		logger: logger,
	}
}

// Get 获取位置
func (r *LocationRepository) Get(ctx context.Context, id string) (*models.Location, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty location id", ErrInvalidInput)
	}
	var location models.Location
	if err := getDoc(ctx, r.client, locationKey(id), &location); err != nil {
		return nil, err
	}
	return &location, nil
}

// Put 整体写回位置文档
func (r *LocationRepository) Put(ctx context.Context, location *models.Location) error {
	if location == nil || location.ID == "" {
		return fmt.Errorf("%w: location without id", ErrInvalidInput)
	}
	return setDoc(ctx, r.client, locationKey(location.ID), location)
}

// List 列出所有位置
func (r *LocationRepository) List(ctx context.Context) ([]*models.Location, error) {
	keys, err := scanKeys(ctx, r.client, "locations/*")
	if err != nil {
		return nil, err
	}

	locations := make([]*models.Location, 0, len(keys))
	for _, key := range keys {
		var location models.Location
		if err := getDoc(ctx, r.client, key, &location); err != nil {
			r.logger.Warn("Skipping unreadable location document",
				zap.String("key", key),
				zap.Error(err),
			)
			continue
		}
		locations = append(locations, &location)
	}

	return locations, nil
}

// SetOccupant 维护位置的占用缓存（派生数据，权威状态在人员文档）
// present=true 加入占用集合，false 移除。位置文档不存在时返回
// ErrNotFound，由调用方决定是否容忍（人员可能指向已删除的位置）
func (r *LocationRepository) SetOccupant(ctx context.Context, locationID, personID string, present bool, now time.Time) error {
	location, err := r.Get(ctx, locationID)
	if err != nil {
		return err
	}

	if location.Occupants == nil {
		location.Occupants = map[string]bool{}
	}
	if present {
		location.Occupants[personID] = true
	} else {
		delete(location.Occupants, personID)
	}
	location.LastUpdate = now.Unix()

	return r.Put(ctx, location)
}
