// Package ingest 实现标签读取摄入管线
//
// 每次物理扫描产生一次 RecordReading 调用：
//  1. 追加不可变读取记录（按位置+日期分区）
//  2. 更新标签的 last_read / current_room / last_seen
//  3. 刷新读卡器在场集合
//  4. 解析归属：有主标签更新主人当前位置与历史，无主读取不视为错误
//  5. 发布在场变化事件到 presence:events 流
//  6. 尽力归档到 PostgreSQL（失败只记日志，不阻塞）
//
// 各步是对共享存储的独立写入，刻意不做事务：中间状态可被后续读取
// 和清扫自愈
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wisefido-presence/internal/models"
	"wisefido-presence/internal/repository"
	rediscommon "wisefido-presence/pkg/redis"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Ingestor 标签读取摄入器
type Ingestor struct {
	readings    *repository.ReadingRepository
	tags        *repository.TagRepository
	people      *repository.PeopleRepository
	inRange     *repository.InRangeRepository
	archive     *repository.ArchiveRepository // 可为 nil（无归档库部署）
	redisClient *redis.Client
	eventStream string
	logger      *zap.Logger

	// 测试中可替换的时钟
	now func() time.Time
}

// NewIngestor 创建摄入器
func NewIngestor(
	readings *repository.ReadingRepository,
	tags *repository.TagRepository,
	people *repository.PeopleRepository,
	inRange *repository.InRangeRepository,
	archive *repository.ArchiveRepository,
	redisClient *redis.Client,
	eventStream string,
	logger *zap.Logger,
) *Ingestor {
	return &Ingestor{
		readings:    readings,
		tags:        tags,
		people:      people,
		inRange:     inRange,
		archive:     archive,
		redisClient: redisClient,
		eventStream: eventStream,
		logger:      logger,
		now:         time.Now,
	}
}

// RecordReading 记录一次扫描事件
//
// readerID 为上报的读卡器标识，为空时以规范化位置ID代替
// （固定读卡器与位置一一对应的部署）。时间戳由服务端指定
func (i *Ingestor) RecordReading(ctx context.Context, readerID, tagID, locationName string, rssi int) (*models.Reading, error) {
	if strings.TrimSpace(tagID) == "" {
		return nil, fmt.Errorf("%w: empty tag id", repository.ErrInvalidInput)
	}
	if strings.TrimSpace(locationName) == "" {
		return nil, fmt.Errorf("%w: empty location name", repository.ErrInvalidInput)
	}

	locationID := repository.NormalizeLocationID(locationName)
	if readerID == "" {
		readerID = locationID
	}
	ts := i.now().Unix()

	// 1. 追加读取记录
	reading, err := i.readings.Append(ctx, locationID, tagID, rssi, ts)
	if err != nil {
		return nil, err
	}

	// 2. 更新标签在场指针（首见标签自动创建）
	tag, err := i.tags.UpdateLastRead(ctx, tagID, locationID, rssi, ts)
	if err != nil {
		return nil, err
	}

	// 3. 刷新读卡器在场集合
	if err := i.inRange.Refresh(ctx, readerID, tagID, ts); err != nil {
		return nil, err
	}

	// 4. 归属解析与人员位置更新
	attribution := models.Unattributed()
	if tag.OwnerID != "" {
		attribution = models.AttributedTo(tag.OwnerID)
	}

	if attribution.Attributed() {
		changed, err := i.people.SetCurrentLocation(ctx, attribution.OwnerID, locationID, ts)
		if err != nil {
			// 归属更新失败不回滚已写入的读取记录：
			// 下一次读取或清扫会纠正
			i.logger.Warn("Failed to update person location",
				zap.String("person_id", attribution.OwnerID),
				zap.String("tag_id", tagID),
				zap.Error(err),
			)
		} else if changed {
			// 5. 发布在场变化事件（仅位置实际变化时）
			i.publishEvent(ctx, models.PresenceEvent{
				Type:      models.PresenceEventEntered,
				PersonID:  attribution.OwnerID,
				Location:  locationID,
				Timestamp: ts,
			})
		}
	}

	// 6. 尽力归档
	if i.archive != nil {
		if _, err := i.archive.Insert(reading, locationID); err != nil {
			i.logger.Warn("Failed to archive reading",
				zap.String("reading_id", reading.ID),
				zap.Error(err),
			)
		}
	}

	i.logger.Debug("Recorded reading",
		zap.String("tag_id", tagID),
		zap.String("location_id", locationID),
		zap.Int("rssi", rssi),
		zap.Bool("attributed", attribution.Attributed()),
	)

	return reading, nil
}

func (i *Ingestor) publishEvent(ctx context.Context, event models.PresenceEvent) {
	if _, err := rediscommon.PublishJSONToStream(ctx, i.redisClient, i.eventStream, event); err != nil {
		i.logger.Warn("Failed to publish presence event",
			zap.String("stream", i.eventStream),
			zap.String("person_id", event.PersonID),
			zap.Error(err),
		)
	}
}
