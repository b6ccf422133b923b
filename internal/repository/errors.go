package repository

import (
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// 错误分类。核心不向调用方暴露原始驱动错误，
// 统一映射为以下三类：
var (
	// ErrInvalidInput 标识符为空等非法输入，拒绝于任何写入之前
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound 人员/标签/位置/命令不存在
	ErrNotFound = errors.New("not found")
	// ErrStoreUnavailable 存储暂时不可用，调用方可退避重试
	ErrStoreUnavailable = errors.New("store unavailable")
)

// mapStoreErr 将驱动错误映射到错误分类
func mapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %s", ErrNotFound, op)
	}
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
