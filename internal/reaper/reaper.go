// Package reaper 实现基于活性窗口的离场判定
//
// 每个（读卡器, 标签）对的状态机：
//   present → （LIVENESS_WINDOW 内无刷新）→ absent
//
// 清扫作为独立的定时任务运行，与请求路径解耦。
// Sweep 幂等：无新读取时重复执行不产生额外变化
package reaper

import (
	"context"
	"errors"
	"time"

	"wisefido-presence/internal/models"
	"wisefido-presence/internal/repository"
	rediscommon "wisefido-presence/pkg/redis"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Reaper 离场清扫器
type Reaper struct {
	inRange  *repository.InRangeRepository
	tags     *repository.TagRepository
	people   *repository.PeopleRepository
	commands *repository.CommandRepository

	redisClient *redis.Client
	eventStream string

	livenessWindow    time.Duration
	sweepInterval     time.Duration
	pendingTimeout    time.Duration
	inProgressTimeout time.Duration

	logger *zap.Logger
}

// Options 清扫器时间参数
type Options struct {
	LivenessWindow    time.Duration // 默认 300s
	SweepInterval     time.Duration // 默认 45s
	PendingTimeout    time.Duration // pending 命令超时，默认 24h
	InProgressTimeout time.Duration // in_progress 命令超时，默认 1h
}

// NewReaper 创建清扫器
func NewReaper(
	inRange *repository.InRangeRepository,
	tags *repository.TagRepository,
	people *repository.PeopleRepository,
	commands *repository.CommandRepository,
	redisClient *redis.Client,
	eventStream string,
	opts Options,
	logger *zap.Logger,
) *Reaper {
	if opts.LivenessWindow <= 0 {
		opts.LivenessWindow = 300 * time.Second
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 45 * time.Second
	}
	if opts.PendingTimeout <= 0 {
		opts.PendingTimeout = 24 * time.Hour
	}
	if opts.InProgressTimeout <= 0 {
		opts.InProgressTimeout = time.Hour
	}

	return &Reaper{
		inRange:           inRange,
		tags:              tags,
		people:            people,
		commands:          commands,
		redisClient:       redisClient,
		eventStream:       eventStream,
		livenessWindow:    opts.LivenessWindow,
		sweepInterval:     opts.SweepInterval,
		pendingTimeout:    opts.PendingTimeout,
		inProgressTimeout: opts.InProgressTimeout,
		logger:            logger,
	}
}

// Run 以固定间隔驱动 Sweep，直到上下文取消
// 单实例内串行执行；多实例并发清扫安全但浪费（Sweep 幂等且按读卡器
// 分区可交换），不加分布式锁
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	r.logger.Info("Reaper started",
		zap.Duration("sweep_interval", r.sweepInterval),
		zap.Duration("liveness_window", r.livenessWindow),
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Reaper stopped")
			return
		case <-ticker.C:
			if err := r.Sweep(ctx, time.Now()); err != nil {
				r.logger.Error("Sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep 执行一轮清扫
//
// 对每个读卡器的在场集合：活性窗口外的条目被移除；有主标签对应的
// 人员清除当前位置并记录 last_seen=now；标签自身的在场指针同样清除。
// 读取日志不删除，只动在场指针。随后处理滞留命令的超时晋升
func (r *Reaper) Sweep(ctx context.Context, now time.Time) error {
	readers, err := r.inRange.Readers(ctx)
	if err != nil {
		return err
	}

	evicted := 0
	for _, readerID := range readers {
		entries, err := r.inRange.Entries(ctx, readerID)
		if err != nil {
			r.logger.Error("Failed to load in-range set",
				zap.String("reader_id", readerID),
				zap.Error(err),
			)
			continue
		}

		var inactive []string
		for tagID, lastSeen := range entries {
			if now.Unix()-lastSeen >= int64(r.livenessWindow.Seconds()) {
				inactive = append(inactive, tagID)
			}
		}
		if len(inactive) == 0 {
			continue
		}

		if err := r.inRange.Remove(ctx, readerID, inactive...); err != nil {
			r.logger.Error("Failed to evict in-range entries",
				zap.String("reader_id", readerID),
				zap.Error(err),
			)
			continue
		}

		for _, tagID := range inactive {
			r.evictTag(ctx, tagID, now)
		}
		evicted += len(inactive)
	}

	if evicted > 0 {
		r.logger.Info("Sweep evicted stale presence",
			zap.Int("evicted", evicted),
		)
	}

	r.expireCommands(ctx, now)
	return nil
}

// evictTag 清除单个过期标签及其主人的在场状态
func (r *Reaper) evictTag(ctx context.Context, tagID string, now time.Time) {
	tag, err := r.tags.Get(ctx, tagID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			r.logger.Error("Failed to load tag during eviction",
				zap.String("tag_id", tagID),
				zap.Error(err),
			)
		}
		return
	}

	if tag.OwnerID != "" {
		previous, err := r.people.ClearCurrentLocation(ctx, tag.OwnerID, now)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			r.logger.Error("Failed to clear person location",
				zap.String("person_id", tag.OwnerID),
				zap.Error(err),
			)
		}
		if previous != "" {
			r.publishLeft(ctx, tag.OwnerID, previous, now)
		}
	}

	if err := r.tags.ClearPresence(ctx, tagID, now.Unix()); err != nil {
		r.logger.Error("Failed to clear tag presence",
			zap.String("tag_id", tagID),
			zap.Error(err),
		)
	}
}

// expireCommands 把滞留的 pending / in_progress 命令晋升为 failed
// 终态命令不受影响（Transition 保证单向推进）
func (r *Reaper) expireCommands(ctx context.Context, now time.Time) {
	types, err := r.commands.Types(ctx)
	if err != nil {
		r.logger.Error("Failed to list command types", zap.Error(err))
		return
	}

	for _, cmdType := range types {
		commands, err := r.commands.ListByStatus(ctx, cmdType, "")
		if err != nil {
			r.logger.Error("Failed to list commands",
				zap.String("type", cmdType),
				zap.Error(err),
			)
			continue
		}

		for _, cmd := range commands {
			var timeout time.Duration
			switch cmd.Status {
			case models.CommandStatusPending:
				timeout = r.pendingTimeout
			case models.CommandStatusInProgress:
				timeout = r.inProgressTimeout
			default:
				continue
			}

			if now.Unix()-cmd.UpdatedAt < int64(timeout.Seconds()) {
				continue
			}

			if err := r.commands.Transition(ctx, cmdType, cmd.ID, models.CommandStatusFailed); err != nil {
				// 与代理并发推进时转换可能已非法，属正常竞争
				r.logger.Warn("Failed to expire command",
					zap.String("command_id", cmd.ID),
					zap.Error(err),
				)
				continue
			}

			r.logger.Info("Expired stale command",
				zap.String("command_id", cmd.ID),
				zap.String("type", cmdType),
				zap.String("previous_status", cmd.Status),
			)
		}
	}
}

func (r *Reaper) publishLeft(ctx context.Context, personID, locationID string, now time.Time) {
	event := models.PresenceEvent{
		Type:      models.PresenceEventLeft,
		PersonID:  personID,
		Location:  locationID,
		Timestamp: now.Unix(),
	}
	if _, err := rediscommon.PublishJSONToStream(ctx, r.redisClient, r.eventStream, event); err != nil {
		r.logger.Warn("Failed to publish left event",
			zap.String("person_id", personID),
			zap.Error(err),
		)
	}
}
