package config

import (
	"os"
	"strconv"
	"time"

	"wisefido-presence/pkg/config"
)

// Config 在场跟踪服务配置
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig

	// 在场跟踪特定配置
	Presence struct {
		// 标签静默超过该时长视为离场
		LivenessWindow time.Duration
		// 清扫器执行间隔
		SweepInterval time.Duration

		Topics struct {
			Scan string // 读卡器扫描主题，如 "rfid/+/scan"
		}

		Streams struct {
			Events        string // 在场变化事件流
			ConsumerGroup string
			ConsumerName  string
			BatchSize     int64
		}
	}

	// 命令队列配置
	Command struct {
		// pending 状态超时（无硬件拉取）
		PendingTimeout time.Duration
		// in_progress 状态超时（硬件拉取后未回报）
		InProgressTimeout time.Duration
		// 硬件代理轮询间隔
		PollInterval time.Duration
	}

	// 硬件编码器配置（rfid-agent 使用）
	Encoder struct {
		BaseURL string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "presence")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "wisefido-presence")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")

	cfg.Presence.LivenessWindow = getEnvDuration("PRESENCE_LIVENESS_WINDOW", 300*time.Second)
	cfg.Presence.SweepInterval = getEnvDuration("PRESENCE_SWEEP_INTERVAL", 45*time.Second)
	cfg.Presence.Topics.Scan = getEnv("PRESENCE_TOPIC_SCAN", "rfid/+/scan")
	cfg.Presence.Streams.Events = getEnv("PRESENCE_STREAM_EVENTS", "presence:events")
	cfg.Presence.Streams.ConsumerGroup = getEnv("PRESENCE_CONSUMER_GROUP", "presence-occupancy")
	cfg.Presence.Streams.ConsumerName = getEnv("PRESENCE_CONSUMER_NAME", "occupancy-1")
	cfg.Presence.Streams.BatchSize = int64(getEnvInt("PRESENCE_STREAM_BATCH_SIZE", 10))

	cfg.Command.PendingTimeout = getEnvDuration("COMMAND_PENDING_TIMEOUT", 24*time.Hour)
	cfg.Command.InProgressTimeout = getEnvDuration("COMMAND_IN_PROGRESS_TIMEOUT", time.Hour)
	cfg.Command.PollInterval = getEnvDuration("COMMAND_POLL_INTERVAL", 5*time.Second)

	cfg.Encoder.BaseURL = getEnv("ENCODER_BASE_URL", "http://localhost:8090")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
