package main

import (
	"context"
	"log"
	"time"

	"wisefido-presence/internal/config"
	"wisefido-presence/internal/models"
	"wisefido-presence/internal/repository"
	"wisefido-presence/pkg/logger"
	rediscommon "wisefido-presence/pkg/redis"

	"go.uber.org/zap"
)

// init-locations 写入演示楼层布局
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Log.Level, "console", "init-locations")
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

	locationRepo := repository.NewLocationRepository(redisClient, zapLogger)
	now := time.Now().Unix()

	locations := []*models.Location{
		{
			ID:          "living-room",
			Name:        "Living Room",
			Description: "Main living area with RFID sensor",
			FloorID:     "floor1",
			Occupants:   map[string]bool{},
			LastUpdate:  now,
			Status:      "active",
		},
		{
			ID:          "kitchen",
			Name:        "Kitchen",
			Description: "Cooking and dining area",
			FloorID:     "floor1",
			Occupants:   map[string]bool{},
			LastUpdate:  now,
			Status:      "active",
		},
		{
			ID:          "studio",
			Name:        "Studio",
			Description: "Creative workspace",
			FloorID:     "floor2",
			Occupants:   map[string]bool{},
			LastUpdate:  now,
			Status:      "active",
		},
	}

	for _, location := range locations {
		if err := locationRepo.Put(ctx, location); err != nil {
			zapLogger.Fatal("Failed to seed location",
				zap.String("location_id", location.ID),
				zap.Error(err),
			)
		}
		zapLogger.Info("Seeded location", zap.String("location_id", location.ID))
	}

	zapLogger.Info("Locations initialized", zap.Int("count", len(locations)))
}
