package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// getDoc 读取并反序列化一个 JSON 文档
func getDoc(ctx context.Context, client *redis.Client, key string, dest interface{}) error {
	val, err := client.Get(ctx, key).Result()
	if err != nil {
		return mapStoreErr("get "+key, err)
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("%w: unmarshal %s: %v", ErrStoreUnavailable, key, err)
	}
	return nil
}

// setDoc 序列化并写入一个 JSON 文档（无TTL，文档常驻）
func setDoc(ctx context.Context, client *redis.Client, key string, doc interface{}) error {
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", ErrStoreUnavailable, key, err)
	}
	if err := client.Set(ctx, key, jsonData, 0).Err(); err != nil {
		return mapStoreErr("set "+key, err)
	}
	return nil
}

// scanKeys 遍历匹配模式的所有键
func scanKeys(ctx context.Context, client *redis.Client, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, mapStoreErr("scan "+pattern, err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}
