// Package command 实现面向RFID硬件的命令队列
//
// 生产者是登记流程（入队 write_rfid 等指令），消费者是轮询自己
// 命令类别的硬件代理。状态机单向推进：
//   pending → in_progress → {completed, failed}
package command

import (
	"context"

	"wisefido-presence/internal/models"
	"wisefido-presence/internal/repository"

	"go.uber.org/zap"
)

// Queue 命令队列
type Queue struct {
	commands *repository.CommandRepository
	tags     *repository.TagRepository
	logger   *zap.Logger
}

// NewQueue 创建命令队列
func NewQueue(
	commands *repository.CommandRepository,
	tags *repository.TagRepository,
	logger *zap.Logger,
) *Queue {
	return &Queue{
		commands: commands,
		tags:     tags,
		logger:   logger,
	}
}

// Enqueue 入队命令，返回生成的命令ID供调用方关联后续硬件结果
// 只在存储不可用时失败；不校验 target_id 指向的人员是否存在
func (q *Queue) Enqueue(ctx context.Context, cmdType, targetID string, params map[string]string) (string, error) {
	return q.commands.Enqueue(ctx, cmdType, targetID, params)
}

// Get 查询单条命令
func (q *Queue) Get(ctx context.Context, cmdType, id string) (*models.Command, error) {
	return q.commands.Get(ctx, cmdType, id)
}

// ListPending 硬件代理轮询入口：列出某类型的待处理命令
func (q *Queue) ListPending(ctx context.Context, cmdType string) ([]*models.Command, error) {
	return q.commands.ListByStatus(ctx, cmdType, models.CommandStatusPending)
}

// MarkInProgress 代理拾取命令
func (q *Queue) MarkInProgress(ctx context.Context, cmdType, id string) error {
	return q.commands.Transition(ctx, cmdType, id, models.CommandStatusInProgress)
}

// Fail 硬件执行失败
func (q *Queue) Fail(ctx context.Context, cmdType, id string) error {
	return q.commands.Transition(ctx, cmdType, id, models.CommandStatusFailed)
}

// CompleteWriteRFID 完成一条 write_rfid 命令
//
// 先写标签（含旧主人反向引用清理的 WATCH 事务），标签确实落库后
// 才把命令推进到 completed，因此 completed 状态不可能在没有对应
// 标签记录的情况下被观测到。两步之间崩溃时命令停留在 in_progress，
// 代理可安全重试，最终由清扫器超时晋升为 failed
func (q *Queue) CompleteWriteRFID(ctx context.Context, id, tagID, ownerID string) error {
	if err := q.tags.AssignOwner(ctx, tagID, ownerID); err != nil {
		return err
	}

	if err := q.commands.Transition(ctx, models.CommandTypeWriteRFID, id, models.CommandStatusCompleted); err != nil {
		return err
	}

	q.logger.Info("Completed write_rfid command",
		zap.String("command_id", id),
		zap.String("tag_id", tagID),
		zap.String("owner_id", ownerID),
	)
	return nil
}
