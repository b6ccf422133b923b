package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"wisefido-presence/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// TagRepository 标签文档仓库（tags/{id}）
type TagRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewTagRepository 创建标签仓库
func NewTagRepository(client *redis.Client, logger *zap.Logger) *TagRepository {
	return &TagRepository{
		client: client,
		logger: logger,
	}
}

// Get 获取标签
func (r *TagRepository) Get(ctx context.Context, id string) (*models.Tag, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty tag id", ErrInvalidInput)
	}
	var tag models.Tag
	if err := getDoc(ctx, r.client, tagKey(id), &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

// Put 整体写回标签文档
func (r *TagRepository) Put(ctx context.Context, tag *models.Tag) error {
	if tag == nil || tag.ID == "" {
		return fmt.Errorf("%w: tag without id", ErrInvalidInput)
	}
	return setDoc(ctx, r.client, tagKey(tag.ID), tag)
}

// UpdateLastRead 更新标签的最近读取信息
// 标签首次被观测到时自动创建文档
func (r *TagRepository) UpdateLastRead(ctx context.Context, tagID, locationID string, rssi int, ts int64) (*models.Tag, error) {
	tag, err := r.Get(ctx, tagID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		tag = &models.Tag{ID: tagID}
	}

	tag.LastRead = &models.LastRead{
		Timestamp: ts,
		Location:  locationID,
		RSSI:      rssi,
	}
	tag.CurrentRoom = locationID
	tag.LastSeen = ts

	if err := r.Put(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// ClearPresence 清除标签在场指针（离场判定）
func (r *TagRepository) ClearPresence(ctx context.Context, tagID string, now int64) error {
	tag, err := r.Get(ctx, tagID)
	if err != nil {
		return err
	}
	tag.CurrentRoom = ""
	tag.LastSeen = now
	return r.Put(ctx, tag)
}

// AssignOwner 在一个 WATCH 事务中把标签分配给新主人
//
// 一个标签任一时刻至多一个 owner_id。换绑时必须同时清除旧主人的
// 过期标签引用，否则会留下悬挂的反向引用。冲突时由 go-redis 返回
// TxFailedErr，调用方可重试。
func (r *TagRepository) AssignOwner(ctx context.Context, tagID, newOwnerID string) error {
	if tagID == "" || newOwnerID == "" {
		return fmt.Errorf("%w: empty tag or owner id", ErrInvalidInput)
	}

	tKey := tagKey(tagID)
	newOwnerKey := personKey(newOwnerID)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		tag := &models.Tag{ID: tagID}
		if val, err := tx.Get(ctx, tKey).Result(); err == nil {
			if err := json.Unmarshal([]byte(val), tag); err != nil {
				return fmt.Errorf("unmarshal tag %s: %v", tagID, err)
			}
		} else if err != redis.Nil {
			return err
		}

		previousOwner := tag.OwnerID

		var newOwner models.Person
		val, err := tx.Get(ctx, newOwnerKey).Result()
		if err != nil {
			return err // redis.Nil 在外层映射为 ErrNotFound
		}
		if err := json.Unmarshal([]byte(val), &newOwner); err != nil {
			return fmt.Errorf("unmarshal person %s: %v", newOwnerID, err)
		}

		var oldOwner *models.Person
		if previousOwner != "" && previousOwner != newOwnerID {
			var p models.Person
			val, err := tx.Get(ctx, personKey(previousOwner)).Result()
			if err == nil {
				if err := json.Unmarshal([]byte(val), &p); err == nil {
					oldOwner = &p
				}
			} else if err != redis.Nil {
				return err
			}
		}

		tag.OwnerID = newOwnerID
		if newOwner.RFIDTags == nil {
			newOwner.RFIDTags = map[string]bool{}
		}
		newOwner.RFIDTags[tagID] = true
		if oldOwner != nil {
			delete(oldOwner.RFIDTags, tagID)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			tagJSON, err := json.Marshal(tag)
			if err != nil {
				return err
			}
			ownerJSON, err := json.Marshal(&newOwner)
			if err != nil {
				return err
			}
			pipe.Set(ctx, tKey, tagJSON, 0)
			pipe.Set(ctx, newOwnerKey, ownerJSON, 0)
			if oldOwner != nil {
				oldJSON, err := json.Marshal(oldOwner)
				if err != nil {
					return err
				}
				pipe.Set(ctx, personKey(oldOwner.ID), oldJSON, 0)
			}
			return nil
		})
		return err
	}, tKey, newOwnerKey)

	if err != nil {
		return mapStoreErr("assign owner "+tagID, err)
	}

	r.logger.Info("Assigned tag owner",
		zap.String("tag_id", tagID),
		zap.String("owner_id", newOwnerID),
	)
	return nil
}

// ResolveAttribution 解析标签归属
// 标签不存在或无主时返回无主归属，不视为错误
func (r *TagRepository) ResolveAttribution(ctx context.Context, tagID string) (models.Attribution, error) {
	tag, err := r.Get(ctx, tagID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.Unattributed(), nil
		}
		return models.Unattributed(), err
	}
	if tag.OwnerID == "" {
		return models.Unattributed(), nil
	}
	return models.AttributedTo(tag.OwnerID), nil
}
