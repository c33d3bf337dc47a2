package config

import (
	"time"

	"github.com/jornadahq/jornada/analytics"
	"github.com/jornadahq/jornada/persistence/redis"
)

type StorageType string

const STORAGE_TYPE_REDIS StorageType = "redis"
const STORAGE_TYPE_INMEM StorageType = "memory"

type Config struct {
	RedisConfig       redis.Config
	HttpPort          int
	StorageType       StorageType
	TimerTickInterval time.Duration
	TimerPoolSize     int
	WorkerCapacity    int
	HttpRetryCount    int
	HttpRetryWait     time.Duration
	LogEncoding       string
	LogLevel          string
	AnalyticsConfig   analytics.DataCollectorConfig
}
