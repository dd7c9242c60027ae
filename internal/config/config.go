package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	OpenGov   OpenGovConfig   `yaml:"opengov"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// OpenGovConfig holds settings for the data.gov.in market-data feed.
type OpenGovConfig struct {
	BaseURL       string        `yaml:"base_url"       env:"OPENGOV_BASE_URL"       env-default:"https://api.data.gov.in/resource/9ef84268-d588-465a-a308-a864a43d0070"`
	APIKey        string        `yaml:"api_key"        env:"OPENGOV_API_KEY"        env-required:"true"`
	Timeout       time.Duration `yaml:"timeout"        env:"OPENGOV_TIMEOUT"        env-default:"30s"`
	RetryAttempts int           `yaml:"retry_attempts" env:"OPENGOV_RETRY_ATTEMPTS" env-default:"3"`
	RetryDelay    time.Duration `yaml:"retry_delay"    env:"OPENGOV_RETRY_DELAY"    env-default:"2s"`
	BatchSize     int           `yaml:"batch_size"     env:"OPENGOV_BATCH_SIZE"     env-default:"10000"`
	PageDelay     time.Duration `yaml:"page_delay"     env:"OPENGOV_PAGE_DELAY"     env-default:"500ms"`
}

// SchedulerConfig holds the daily fetch trigger settings.
type SchedulerConfig struct {
	Enabled       bool          `yaml:"enabled"         env:"SCHEDULER_ENABLED"         env-default:"true"`
	FetchTime     string        `yaml:"fetch_time"      env:"SCHEDULER_FETCH_TIME"      env-default:"06:00"`
	Timezone      string        `yaml:"timezone"        env:"SCHEDULER_TIMEZONE"        env-default:"Asia/Kolkata"`
	IngestWorkers int           `yaml:"ingest_workers"  env:"SCHEDULER_INGEST_WORKERS"  env-default:"8"`
	StaleRunAfter time.Duration `yaml:"stale_run_after" env:"SCHEDULER_STALE_RUN_AFTER" env-default:"2h"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}
