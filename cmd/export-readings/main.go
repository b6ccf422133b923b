package main

import (
	"context"
	"flag"
	"log"
	"time"

	"wisefido-presence/internal/config"
	"wisefido-presence/internal/export"
	"wisefido-presence/internal/repository"
	"wisefido-presence/pkg/logger"
	rediscommon "wisefido-presence/pkg/redis"

	"go.uber.org/zap"
)

// export-readings 把某位置某日的读取日志导出为 XLSX
func main() {
	locationID := flag.String("location", "", "location id, e.g. kitchen")
	date := flag.String("date", time.Now().Format("2006-01-02"), "date partition (YYYY-MM-DD)")
	output := flag.String("out", "readings.xlsx", "output file path")
	flag.Parse()

	if *locationID == "" {
		log.Fatal("-location is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Log.Level, "console", "export-readings")
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

	readingRepo := repository.NewReadingRepository(redisClient, zapLogger)
	exporter := export.NewReadingExporter(readingRepo, zapLogger)

	if err := exporter.ExportLocationDayToFile(ctx, *locationID, *date, *output); err != nil {
		zapLogger.Fatal("Export failed", zap.Error(err))
	}

	zapLogger.Info("Export written",
		zap.String("location_id", *locationID),
		zap.String("date", *date),
		zap.String("output", *output),
	)
}
