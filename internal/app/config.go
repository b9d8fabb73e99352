package app

import (
	"time"

	"github.com/yungbote/branchaudit-backend/internal/platform/envutil"
	"github.com/yungbote/branchaudit-backend/internal/services"
)

type Config struct {
	LogMode     string
	HTTPAddr    string
	ServiceName string
	Environment string

	DBDriver     string
	PostgresDSN  string
	SQLitePath   string
	DBLogQueries bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Reorder services.ReorderConfig
	// Delete lock lifetime; bounds how long a crashed delete blocks a retry.
	DeleteLockTTL time.Duration

	StoreWriteRPS   float64
	StoreWriteBurst int

	BlobMode          string
	BlobBucket        string
	BlobPublicBaseURL string
	GCPCredentials    string

	MetricsEnabled     bool
	OtelEnabled        bool
	OtelEndpoint       string
	OtelInsecure       bool
	OtelSampleRatio    float64
	RedisStatsInterval time.Duration

	CORSOrigins []string
}

func LoadConfig() Config {
	def := services.DefaultReorderConfig()
	return Config{
		LogMode:     envutil.String("LOG_MODE", "development"),
		HTTPAddr:    envutil.String("HTTP_ADDR", ":8080"),
		ServiceName: envutil.String("SERVICE_NAME", "branchaudit-api"),
		Environment: envutil.String("ENVIRONMENT", "local"),

		DBDriver:     envutil.String("DB_DRIVER", "postgres"),
		PostgresDSN:  envutil.String("POSTGRES_DSN", ""),
		SQLitePath:   envutil.String("SQLITE_PATH", ""),
		DBLogQueries: envutil.Bool("DB_LOG_QUERIES", false),

		RedisAddr:     envutil.String("REDIS_ADDR", ""),
		RedisPassword: envutil.String("REDIS_PASSWORD", ""),
		RedisDB:       envutil.Int("REDIS_DB", 0),

		Reorder: services.ReorderConfig{
			ItemDelay:   envutil.Duration("REORDER_ITEM_DELAY", def.ItemDelay),
			BackoffBase: envutil.Duration("REORDER_BACKOFF_BASE", def.BackoffBase),
			BackoffMax:  envutil.Duration("REORDER_BACKOFF_MAX", def.BackoffMax),
			MaxRetries:  envutil.Int("REORDER_MAX_RETRIES", def.MaxRetries),
			LockTTL:     envutil.Duration("REORDER_LOCK_TTL", def.LockTTL),
		},
		DeleteLockTTL: envutil.Duration("DELETE_LOCK_TTL", 5*time.Minute),

		StoreWriteRPS:   envutil.Float("STORE_WRITE_RPS", 0),
		StoreWriteBurst: envutil.Int("STORE_WRITE_BURST", 20),

		BlobMode:          envutil.String("BLOB_MODE", ""),
		BlobBucket:        envutil.String("BLOB_BUCKET", ""),
		BlobPublicBaseURL: envutil.String("BLOB_PUBLIC_BASE_URL", ""),
		GCPCredentials:    envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", ""),

		MetricsEnabled:     envutil.Bool("METRICS_ENABLED", true),
		OtelEnabled:        envutil.Bool("OTEL_ENABLED", false),
		OtelEndpoint:       envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OtelInsecure:       envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
		OtelSampleRatio:    envutil.Float("OTEL_SAMPLE_RATIO", 1),
		RedisStatsInterval: envutil.Duration("REDIS_STATS_INTERVAL", 15*time.Second),

		CORSOrigins: envutil.List("CORS_ORIGINS", nil),
	}
}
