// Package agent 实现参考硬件代理
//
// 代理履行命令队列的消费侧契约：轮询自己类别的 pending 命令，
// 拾取时推进到 in_progress，驱动编码器硬件，结束时推进到
// completed 或 failed。完成 write_rfid 时标签记录的创建由
// Queue.CompleteWriteRFID 保证先于 completed 状态落库
package agent

import (
	"context"
	"time"

	"wisefido-presence/internal/command"
	"wisefido-presence/internal/models"

	"go.uber.org/zap"
)

// Agent write_rfid 命令的硬件代理
type Agent struct {
	queue        *command.Queue
	encoder      *EncoderClient
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewAgent 创建硬件代理
func NewAgent(queue *command.Queue, encoder *EncoderClient, pollInterval time.Duration, logger *zap.Logger) *Agent {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Agent{
		queue:        queue,
		encoder:      encoder,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Run 轮询循环，直到上下文取消
func (a *Agent) Run(ctx context.Context) {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	a.logger.Info("Agent started",
		zap.Duration("poll_interval", a.pollInterval),
	)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Agent stopped")
			return
		case <-ticker.C:
			if err := a.PollOnce(ctx); err != nil {
				a.logger.Error("Poll failed", zap.Error(err))
			}
		}
	}
}

// PollOnce 处理一轮 pending 命令
func (a *Agent) PollOnce(ctx context.Context) error {
	pending, err := a.queue.ListPending(ctx, models.CommandTypeWriteRFID)
	if err != nil {
		return err
	}

	for _, cmd := range pending {
		a.process(ctx, cmd)
	}
	return nil
}

// process 处理单条命令
func (a *Agent) process(ctx context.Context, cmd *models.Command) {
	if err := a.queue.MarkInProgress(ctx, models.CommandTypeWriteRFID, cmd.ID); err != nil {
		// 另一个代理可能已拾取，放弃这条
		a.logger.Debug("Command already picked up",
			zap.String("command_id", cmd.ID),
			zap.Error(err),
		)
		return
	}

	resp, err := a.encoder.WriteTag(&EncoderRequest{
		PersonID: cmd.TargetID,
		UserID:   cmd.Params["user_id"],
	})
	if err != nil {
		a.logger.Error("Encoder write failed",
			zap.String("command_id", cmd.ID),
			zap.String("target_id", cmd.TargetID),
			zap.Error(err),
		)
		if failErr := a.queue.Fail(ctx, models.CommandTypeWriteRFID, cmd.ID); failErr != nil {
			a.logger.Error("Failed to mark command failed",
				zap.String("command_id", cmd.ID),
				zap.Error(failErr),
			)
		}
		return
	}

	if err := a.queue.CompleteWriteRFID(ctx, cmd.ID, resp.TagID, cmd.TargetID); err != nil {
		// 标签或命令写入失败：命令停留在 in_progress，
		// 下一轮不会重复拾取（只轮询 pending），最终由清扫器超时
		a.logger.Error("Failed to complete command",
			zap.String("command_id", cmd.ID),
			zap.String("tag_id", resp.TagID),
			zap.Error(err),
		)
		return
	}

	a.logger.Info("Command completed",
		zap.String("command_id", cmd.ID),
		zap.String("tag_id", resp.TagID),
		zap.String("owner_id", cmd.TargetID),
	)
}
