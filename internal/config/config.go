package config

import (
	stderrors "errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"shenanigigs/datajobs/internal/errors"
)

type Config struct {
	InputPath  string `validate:"required"`
	OutputPath string `validate:"required"`
	NilValue   string

	SkillsPolicy       string `validate:"oneof=missing abort"`
	CleanWorkers       int    `validate:"min=1,max=256"`
	CleanChunkSize     int    `validate:"min=1"`
	FilterAnalystRoles bool

	LogLevel       string `validate:"oneof=debug info warn error"`
	LogDevelopment bool

	CacheEnabled  bool
	RedisAddr     string `validate:"required_if=CacheEnabled true"`
	RedisPassword string
	RedisDB       int           `validate:"min=0"`
	CacheTTL      time.Duration `validate:"min=0"`
	CacheReset    bool

	StoreEnabled           bool
	ClickHouseDSN          string `validate:"required_if=StoreEnabled true"`
	ClickHouseMaxOpenConns int    `validate:"min=1"`
	ClickHouseMaxIdleConns int    `validate:"min=0"`
	ClickHouseConnMaxLife  time.Duration
	ClickHouseUsername     string
	ClickHousePassword     string
	ClickHouseDatabase     string `validate:"required_if=StoreEnabled true"`
	StoreBatchSize         int    `validate:"min=1"`

	PublishEnabled  bool
	NATSURL         string `validate:"required_if=PublishEnabled true"`
	NATSConnTimeout time.Duration

	OTelCollectorURL string
	ServiceName      string `validate:"required"`
}

// LoadConfig reads an optional .env file from the working directory, then
// the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.InvalidInput("load .env", err)
	}

	config := &Config{
		InputPath:  getEnvString("INPUT_PATH", "data/data_jobs.csv"),
		OutputPath: getEnvString("OUTPUT_PATH", "data/data_jobs_clean.jsonl"),
		NilValue:   getEnvString("NIL_VALUE", ""),

		SkillsPolicy:       strings.ToLower(getEnvString("SKILLS_POLICY", "missing")),
		CleanWorkers:       getEnvInt("CLEAN_WORKERS", 4),
		CleanChunkSize:     getEnvInt("CLEAN_CHUNK_SIZE", 512),
		FilterAnalystRoles: getEnvBool("FILTER_ANALYST_ROLES", false),

		LogLevel:       strings.ToLower(getEnvString("LOG_LEVEL", "info")),
		LogDevelopment: getEnvBool("LOG_DEVELOPMENT", false),

		CacheEnabled:  getEnvBool("CACHE_ENABLED", false),
		RedisAddr:     getEnvString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnvString("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 24*time.Hour),
		CacheReset:    getEnvBool("CACHE_RESET", false),

		StoreEnabled:           getEnvBool("STORE_ENABLED", false),
		ClickHouseDSN:          getEnvString("CLICKHOUSE_DSN", "localhost:9000"),
		ClickHouseMaxOpenConns: getEnvInt("CLICKHOUSE_MAX_OPEN_CONNS", 10),
		ClickHouseMaxIdleConns: getEnvInt("CLICKHOUSE_MAX_IDLE_CONNS", 5),
		ClickHouseConnMaxLife:  getEnvDuration("CLICKHOUSE_CONN_MAX_LIFE", time.Hour),
		ClickHouseUsername:     getEnvString("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword:     getEnvString("CLICKHOUSE_PASSWORD", ""),
		ClickHouseDatabase:     getEnvString("CLICKHOUSE_DATABASE", "shenanigigs"),
		StoreBatchSize:         getEnvInt("STORE_BATCH_SIZE", 1000),

		PublishEnabled:  getEnvBool("PUBLISH_ENABLED", false),
		NATSURL:         getEnvString("NATS_URL", "nats://localhost:4222"),
		NATSConnTimeout: getEnvDuration("NATS_CONN_TIMEOUT", 10*time.Second),

		OTelCollectorURL: getEnvString("OTEL_COLLECTOR_URL", ""),
		ServiceName:      getEnvString("SERVICE_NAME", "datajobs"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.InvalidInput("invalid config", err)
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
