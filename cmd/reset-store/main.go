package main

import (
	"context"
	"flag"
	"log"

	"wisefido-presence/internal/config"
	"wisefido-presence/pkg/logger"
	rediscommon "wisefido-presence/pkg/redis"

	"go.uber.org/zap"
)

// reset-store 清空文档存储中的跟踪数据（管理操作）
// 默认 dry-run，加 -apply 才真正删除
func main() {
	apply := flag.Bool("apply", false, "actually delete keys instead of listing them")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Log.Level, "console", "reset-store")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	redisClient := rediscommon.NewRedisClient(&cfg.Redis)
	ctx := context.Background()
	if err := rediscommon.Ping(ctx, redisClient); err != nil {
		zapLogger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer rediscommon.Close(redisClient)

	patterns := []string{
		"people/*",
		"tags/*",
		"tag_readings/*",
		"locations/*",
		"commands/*",
		"readers/*",
	}

	total := 0
	for _, pattern := range patterns {
		var cursor uint64
		for {
			keys, next, err := redisClient.Scan(ctx, cursor, pattern, 100).Result()
			if err != nil {
				zapLogger.Fatal("Scan failed", zap.String("pattern", pattern), zap.Error(err))
			}

			for _, key := range keys {
				if *apply {
					if err := redisClient.Del(ctx, key).Err(); err != nil {
						zapLogger.Error("Failed to delete key", zap.String("key", key), zap.Error(err))
						continue
					}
					zapLogger.Info("Deleted", zap.String("key", key))
				} else {
					zapLogger.Info("Would delete", zap.String("key", key))
				}
				total++
			}

			cursor = next
			if cursor == 0 {
				break
			}
		}
	}

	if *apply {
		zapLogger.Info("Reset complete", zap.Int("deleted", total))
	} else {
		zapLogger.Info("Dry run complete, re-run with -apply to delete", zap.Int("matched", total))
	}
}
