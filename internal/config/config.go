package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ErrInvalidConfig is returned when a loaded value is out of range
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Env            Env
	Log            LogConfig
	Minio          MinioConfig
	Upload         FileUploadConfig
	Ingest         IngestConfig
	Impact         ImpactConfig
	Recommendation RecommendationConfig
	Analytics      AnalyticsConfig
	NATS           NATSConfig
	Database       DatabaseConfig
	Server         ServerConfig
}

type Env struct {
	Env string `envconfig:"ENV" default:"DEV"`
}

type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

type ServerConfig struct {
	Host        string `envconfig:"SERVER_HOST" default:"localhost"`
	Port        string `envconfig:"SERVER_PORT" default:"8080"`
	MetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9090"`
}

type MinioConfig struct {
	Endpoint            string        `envconfig:"MINIO_ENDPOINT" required:"true"`
	BucketName          string        `envconfig:"MINIO_BUCKET_NAME" required:"true"`
	AccessKey           string        `envconfig:"MINIO_ACCESS_KEY" required:"true"`
	SecretKey           string        `envconfig:"MINIO_SECRET_KEY" required:"true"`
	UploadURLDuration   time.Duration `envconfig:"MINIO_UPLOAD_URL_DURATION" default:"1h"`
	DownloadURLDuration time.Duration `envconfig:"MINIO_DOWNLOAD_URL_DURATION" default:"1h"`
	UseSSL              bool          `envconfig:"MINIO_USE_SSL" default:"false"`
}

type FileUploadConfig struct {
	MaxUploadSize int64 `envconfig:"UPLOAD_MAX_FILE_SIZE" default:"5368709120"` // 5GB
}

// IngestConfig drives the worker side of the pipeline
type IngestConfig struct {
	Workers             int           `envconfig:"INGEST_WORKERS" default:"4"`
	ChunkSize           int           `envconfig:"INGEST_CHUNK_SIZE" default:"65536"`
	SniffBytes          int           `envconfig:"INGEST_SNIFF_BYTES" default:"3072"`
	ClaimTimeout        time.Duration `envconfig:"INGEST_CLAIM_TIMEOUT" default:"10m"`
	PendingRequeueAfter time.Duration `envconfig:"INGEST_PENDING_REQUEUE_AFTER" default:"5m"`
	SweepEvery          time.Duration `envconfig:"INGEST_SWEEP_EVERY" default:"1m"`
	SweepBatch          int           `envconfig:"INGEST_SWEEP_BATCH" default:"100"`
	FetchRetries        uint64        `envconfig:"INGEST_FETCH_RETRIES" default:"3"`
	FetchBackoff        time.Duration `envconfig:"INGEST_FETCH_BACKOFF" default:"500ms"`
}

// ImpactConfig holds the region constants and the score policy
type ImpactConfig struct {
	KWhPerGB           float64 `envconfig:"IMPACT_KWH_PER_GB" required:"true"`
	CO2GPerKWh         float64 `envconfig:"IMPACT_CO2_G_PER_KWH" required:"true"`
	SizeReferenceBytes int64   `envconfig:"IMPACT_SIZE_REFERENCE_BYTES" default:"1073741824"` // 1GiB
	CO2ReferenceG      float64 `envconfig:"IMPACT_CO2_REFERENCE_G" default:"1000"`
	DuplicateFactor    float64 `envconfig:"IMPACT_DUPLICATE_FACTOR" default:"0.5"`
}

type RecommendationConfig struct {
	LargeFileBytes   int64         `envconfig:"RECOMMEND_LARGE_FILE_BYTES" default:"104857600"`  // 100MB
	CompressMinBytes int64         `envconfig:"RECOMMEND_COMPRESS_MIN_BYTES" default:"10485760"` // 10MB
	ShareLinkBytes   int64         `envconfig:"RECOMMEND_SHARE_LINK_BYTES" default:"52428800"`   // 50MB
	StaleAfter       time.Duration `envconfig:"RECOMMEND_STALE_AFTER" default:"2160h"`           // 90 days
}

type AnalyticsConfig struct {
	CacheSize    int           `envconfig:"ANALYTICS_CACHE_SIZE" default:"256"`
	CacheTTL     time.Duration `envconfig:"ANALYTICS_CACHE_TTL" default:"15s"`
	TrendMaxDays int           `envconfig:"ANALYTICS_TREND_MAX_DAYS" default:"365"`
}

type NATSConfig struct {
	URL          string        `envconfig:"NATS_URL" required:"true"`
	StreamName   string        `envconfig:"NATS_STREAM_NAME" default:"INGEST"`
	ConsumerName string        `envconfig:"NATS_CONSUMER_NAME" default:"ingest-worker"`
	Subject      string        `envconfig:"NATS_SUBJECT" default:"ingest.tasks"`
	AckWait      time.Duration `envconfig:"NATS_ACK_WAIT" default:"2m"`
	MaxDeliver   int           `envconfig:"NATS_MAX_DELIVER" default:"10"`
	NakDelay     time.Duration `envconfig:"NATS_NAK_DELAY" default:"5s"`
}

type DatabaseConfig struct {
	Host           string        `envconfig:"DB_HOST" required:"true"`
	Port           int           `envconfig:"DB_PORT" default:"5432"`
	User           string        `envconfig:"DB_USER" required:"true"`
	Password       string        `envconfig:"DB_PASSWORD" required:"true"`
	Name           string        `envconfig:"DB_NAME" required:"true"`
	SSLMode        string        `envconfig:"DB_SSLMODE" default:"disable"`
	MaxOpenCons    int           `envconfig:"DB_MAX_OPEN_CONS" default:"25"`
	MaxIdleCons    int           `envconfig:"DB_MAX_IDLE_CONS" default:"5"`
	ConMaxLifeTime time.Duration `envconfig:"DB_CONMAX_LIFE_TIME" default:"5m"`
}

func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values envconfig cannot express as tags
func (c *Config) Validate() error {
	var problems []string

	if c.Impact.KWhPerGB <= 0 {
		problems = append(problems, "IMPACT_KWH_PER_GB must be > 0")
	}
	if c.Impact.CO2GPerKWh <= 0 {
		problems = append(problems, "IMPACT_CO2_G_PER_KWH must be > 0")
	}
	if c.Impact.SizeReferenceBytes <= 0 {
		problems = append(problems, "IMPACT_SIZE_REFERENCE_BYTES must be > 0")
	}
	if c.Impact.CO2ReferenceG <= 0 {
		problems = append(problems, "IMPACT_CO2_REFERENCE_G must be > 0")
	}
	if c.Impact.DuplicateFactor < 0 || c.Impact.DuplicateFactor >= 1 {
		problems = append(problems, "IMPACT_DUPLICATE_FACTOR must be in [0, 1)")
	}
	if c.Ingest.Workers <= 0 {
		problems = append(problems, "INGEST_WORKERS must be > 0")
	}
	if c.Ingest.ChunkSize <= 0 || c.Ingest.SniffBytes <= 0 {
		problems = append(problems, "INGEST_CHUNK_SIZE and INGEST_SNIFF_BYTES must be > 0")
	}
	if c.Ingest.ClaimTimeout <= 0 {
		problems = append(problems, "INGEST_CLAIM_TIMEOUT must be > 0")
	}
	if c.Ingest.SweepEvery <= 0 || c.Ingest.SweepBatch <= 0 {
		problems = append(problems, "INGEST_SWEEP_EVERY and INGEST_SWEEP_BATCH must be > 0")
	}
	if c.Upload.MaxUploadSize <= 0 {
		problems = append(problems, "UPLOAD_MAX_FILE_SIZE must be > 0")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info
func (l LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
