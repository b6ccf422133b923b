package service

import (
	"context"
	"database/sql"
	"fmt"

	"wisefido-presence/internal/command"
	"wisefido-presence/internal/config"
	"wisefido-presence/internal/consumer"
	"wisefido-presence/internal/ingest"
	"wisefido-presence/internal/presence"
	"wisefido-presence/internal/reaper"
	"wisefido-presence/internal/repository"
	"wisefido-presence/pkg/database"
	mqttcommon "wisefido-presence/pkg/mqtt"
	rediscommon "wisefido-presence/pkg/redis"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// PresenceService 在场跟踪服务
// 所有存储客户端显式构造并注入各组件，进程内没有可变单例
type PresenceService struct {
	config *config.Config
	logger *zap.Logger

	db          *sql.DB
	redisClient *redis.Client
	mqttClient  *mqttcommon.Client

	ingestor       *ingest.Ingestor
	resolver       *presence.Resolver
	queue          *command.Queue
	reaper         *reaper.Reaper
	mqttConsumer   *consumer.MQTTConsumer
	streamConsumer *consumer.StreamConsumer

	cancel context.CancelFunc
}

// NewPresenceService 创建在场跟踪服务
func NewPresenceService(cfg *config.Config, logger *zap.Logger) (*PresenceService, error) {
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	redisClient := rediscommon.NewRedisClient(&cfg.Redis)
	if err := rediscommon.Ping(context.Background(), redisClient); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	mqttClient, err := mqttcommon.NewClient(&cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	// Repository 层
	peopleRepo := repository.NewPeopleRepository(redisClient, logger)
	tagRepo := repository.NewTagRepository(redisClient, logger)
	readingRepo := repository.NewReadingRepository(redisClient, logger)
	locationRepo := repository.NewLocationRepository(redisClient, logger)
	inRangeRepo := repository.NewInRangeRepository(redisClient, logger)
	commandRepo := repository.NewCommandRepository(redisClient, logger)
	archiveRepo := repository.NewArchiveRepository(db, logger)

	// 核心组件
	ingestor := ingest.NewIngestor(
		readingRepo, tagRepo, peopleRepo, inRangeRepo, archiveRepo,
		redisClient, cfg.Presence.Streams.Events, logger,
	)
	resolver := presence.NewResolver(peopleRepo, locationRepo, logger)
	queue := command.NewQueue(commandRepo, tagRepo, logger)
	presenceReaper := reaper.NewReaper(
		inRangeRepo, tagRepo, peopleRepo, commandRepo,
		redisClient, cfg.Presence.Streams.Events,
		reaper.Options{
			LivenessWindow:    cfg.Presence.LivenessWindow,
			SweepInterval:     cfg.Presence.SweepInterval,
			PendingTimeout:    cfg.Command.PendingTimeout,
			InProgressTimeout: cfg.Command.InProgressTimeout,
		},
		logger,
	)

	// 消费者
	mqttConsumer := consumer.NewMQTTConsumer(cfg, mqttClient, ingestor, logger)
	streamConsumer := consumer.NewStreamConsumer(cfg, redisClient, locationRepo, logger)

	return &PresenceService{
		config:         cfg,
		logger:         logger,
		db:             db,
		redisClient:    redisClient,
		mqttClient:     mqttClient,
		ingestor:       ingestor,
		resolver:       resolver,
		queue:          queue,
		reaper:         presenceReaper,
		mqttConsumer:   mqttConsumer,
		streamConsumer: streamConsumer,
	}, nil
}

// Ingestor 摄入器（供外部接口层调用 RecordReading）
func (s *PresenceService) Ingestor() *ingest.Ingestor {
	return s.ingestor
}

// Resolver 在场解析器（供展示层调用）
func (s *PresenceService) Resolver() *presence.Resolver {
	return s.resolver
}

// Queue 命令队列（供登记流程调用）
func (s *PresenceService) Queue() *command.Queue {
	return s.queue
}

// Start 启动服务组件
func (s *PresenceService) Start(ctx context.Context) error {
	s.logger.Info("Starting presence service components")

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if err := s.mqttConsumer.Start(runCtx); err != nil {
		cancel()
		return fmt.Errorf("failed to start MQTT consumer: %w", err)
	}

	go func() {
		if err := s.streamConsumer.Start(runCtx); err != nil {
			s.logger.Error("Stream consumer exited", zap.Error(err))
		}
	}()

	go s.reaper.Run(runCtx)

	s.logger.Info("Presence service started successfully")
	return nil
}

// Stop 停止服务
func (s *PresenceService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping presence service")

	if s.cancel != nil {
		s.cancel()
	}

	if s.mqttConsumer != nil {
		if err := s.mqttConsumer.Stop(ctx); err != nil {
			s.logger.Error("Error stopping MQTT consumer", zap.Error(err))
		}
	}

	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}

	if s.redisClient != nil {
		rediscommon.Close(s.redisClient)
	}

	if s.db != nil {
		database.Close(s.db)
	}

	s.logger.Info("Presence service stopped")
	return nil
}
