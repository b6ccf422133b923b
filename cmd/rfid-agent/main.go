package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"wisefido-presence/internal/agent"
	"wisefido-presence/internal/command"
	"wisefido-presence/internal/config"
	"wisefido-presence/internal/repository"
	"wisefido-presence/pkg/logger"
	rediscommon "wisefido-presence/pkg/redis"

	"go.uber.org/zap"
)

// rfid-agent 是 write_rfid 命令的参考硬件代理：
// 轮询命令队列，驱动本地编码器HTTP API，回报执行结果
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "rfid-agent")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	redisClient := rediscommon.NewRedisClient(&cfg.Redis)
	if err := rediscommon.Ping(context.Background(), redisClient); err != nil {
		zapLogger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer rediscommon.Close(redisClient)

	commandRepo := repository.NewCommandRepository(redisClient, zapLogger)
	tagRepo := repository.NewTagRepository(redisClient, zapLogger)
	queue := command.NewQueue(commandRepo, tagRepo, zapLogger)
	encoder := agent.NewEncoderClient(cfg.Encoder.BaseURL, zapLogger)

	rfidAgent := agent.NewAgent(queue, encoder, cfg.Command.PollInterval, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zapLogger.Info("Starting rfid-agent",
		zap.String("encoder_base_url", cfg.Encoder.BaseURL),
	)

	go rfidAgent.Run(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	zapLogger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	cancel()
}
