package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"wisefido-presence/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommandRepository 命令发件箱仓库（commands/{type}/{id}）
// 按类型分区，硬件代理只轮询自己的命令类别
type CommandRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCommandRepository 创建命令仓库
func NewCommandRepository(client *redis.Client, logger *zap.Logger) *CommandRepository {
	return &CommandRepository{
		client: client,
		logger: logger,
	}
}

// Enqueue 入队一条命令，返回生成的命令ID
// 不校验 target_id 是否存在：目标不存在时由硬件侧的最终失败作为信号
func (r *CommandRepository) Enqueue(ctx context.Context, cmdType, targetID string, params map[string]string) (string, error) {
	if strings.TrimSpace(cmdType) == "" {
		return "", fmt.Errorf("%w: empty command type", ErrInvalidInput)
	}
	if strings.TrimSpace(targetID) == "" {
		return "", fmt.Errorf("%w: empty target id", ErrInvalidInput)
	}
	if params == nil {
		params = map[string]string{}
	}

	now := time.Now().Unix()
	cmd := &models.Command{
		ID:        uuid.New().String(),
		Type:      cmdType,
		TargetID:  targetID,
		Status:    models.CommandStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		Params:    params,
	}

	if err := setDoc(ctx, r.client, commandKey(cmdType, cmd.ID), cmd); err != nil {
		return "", err
	}

	r.logger.Info("Enqueued command",
		zap.String("command_id", cmd.ID),
		zap.String("type", cmdType),
		zap.String("target_id", targetID),
	)

	return cmd.ID, nil
}

// Get 获取命令
func (r *CommandRepository) Get(ctx context.Context, cmdType, id string) (*models.Command, error) {
	if cmdType == "" || id == "" {
		return nil, fmt.Errorf("%w: empty command type or id", ErrInvalidInput)
	}
	var cmd models.Command
	if err := getDoc(ctx, r.client, commandKey(cmdType, id), &cmd); err != nil {
		return nil, err
	}
	return &cmd, nil
}

// ListByStatus 列出某类型下处于指定状态的命令，status 为空列出全部
func (r *CommandRepository) ListByStatus(ctx context.Context, cmdType, status string) ([]*models.Command, error) {
	keys, err := scanKeys(ctx, r.client, fmt.Sprintf("commands/%s/*", cmdType))
	if err != nil {
		return nil, err
	}

	commands := make([]*models.Command, 0, len(keys))
	for _, key := range keys {
		var cmd models.Command
		if err := getDoc(ctx, r.client, key, &cmd); err != nil {
			r.logger.Warn("Skipping unreadable command document",
				zap.String("key", key),
				zap.Error(err),
			)
			continue
		}
		if status != "" && cmd.Status != status {
			continue
		}
		commands = append(commands, &cmd)
	}

	return commands, nil
}

// Types 列出当前存在命令的所有类型
func (r *CommandRepository) Types(ctx context.Context) ([]string, error) {
	keys, err := scanKeys(ctx, r.client, "commands/*")
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var types []string
	for _, key := range keys {
		// commands/{type}/{id}
		parts := strings.Split(key, "/")
		if len(parts) != 3 || seen[parts[1]] {
			continue
		}
		seen[parts[1]] = true
		types = append(types, parts[1])
	}
	return types, nil
}

// Transition 推进命令状态
//
// WATCH 事务保证并发代理下状态只会单向推进：
// pending → in_progress → {completed, failed}，终态不可再转换。
// 非法转换返回 ErrInvalidInput
func (r *CommandRepository) Transition(ctx context.Context, cmdType, id, to string) error {
	key := commandKey(cmdType, id)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if err != nil {
			return err
		}

		var cmd models.Command
		if err := json.Unmarshal([]byte(val), &cmd); err != nil {
			return fmt.Errorf("unmarshal command %s: %v", id, err)
		}

		if !models.CanTransition(cmd.Status, to) {
			return fmt.Errorf("%w: illegal command transition %s → %s", ErrInvalidInput, cmd.Status, to)
		}

		cmd.Status = to
		cmd.UpdatedAt = time.Now().Unix()

		cmdJSON, err := json.Marshal(&cmd)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, cmdJSON, 0)
			return nil
		})
		return err
	}, key)

	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return err
		}
		return mapStoreErr("transition command "+id, err)
	}

	r.logger.Info("Command transitioned",
		zap.String("command_id", id),
		zap.String("type", cmdType),
		zap.String("status", to),
	)
	return nil
}
