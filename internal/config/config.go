package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StorageMySQL    = "mysql"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
	Exam      ExamConfig      `mapstructure:"exam"`
	Client    ClientConfig    `mapstructure:"client"`
}

type ServerConfig struct {
	Port        string
	Mode        string
	WatchConfig bool `mapstructure:"watch_config"`
}

// StorageConfig selects the table store backend.
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool   `mapstructure:"parse_time"`
	SSLMode   string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// ExamConfig holds the session lifecycle knobs.
type ExamConfig struct {
	DefaultQuestionCount int `mapstructure:"default_question_count"`
	MaxQuestionCount     int `mapstructure:"max_question_count"`
	MaxUpdateRetries     int `mapstructure:"max_update_retries"`
}

// ClientConfig is read by cmd/examcli, not by the server.
type ClientConfig struct {
	APIBaseURL       string `mapstructure:"api_base_url"`
	RetryAttempts    int    `mapstructure:"retry_attempts"`
	RequestTimeoutMS int    `mapstructure:"request_timeout_ms"`
	Debug            bool   `mapstructure:"debug"`
}

func (c ClientConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("storage.driver", StorageMemory)
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parse_time", true)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("exam.default_question_count", 20)
	v.SetDefault("exam.max_question_count", 100)
	v.SetDefault("exam.max_update_retries", 3)
	v.SetDefault("client.api_base_url", "http://localhost:8080/api")
	v.SetDefault("client.retry_attempts", 3)
	v.SetDefault("client.request_timeout_ms", 10000)
}

// LoadConfig reads config.yaml from path (if present), .env and the environment.
func LoadConfig(path string) (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("EXAM_PLATFORM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// Storage / Database
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "PORT")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	// Client
	v.BindEnv("client.api_base_url", "EXAM_CLIENT_API_BASE_URL")
	v.BindEnv("client.retry_attempts", "EXAM_CLIENT_RETRY_ATTEMPTS")
	v.BindEnv("client.request_timeout_ms", "EXAM_CLIENT_REQUEST_TIMEOUT")
	v.BindEnv("client.debug", "EXAM_CLIENT_DEBUG")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageMySQL, StoragePostgres, StorageRedis:
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}

	if c.Exam.DefaultQuestionCount <= 0 {
		return fmt.Errorf("exam.default_question_count must be positive, got %d", c.Exam.DefaultQuestionCount)
	}
	if c.Exam.MaxQuestionCount < c.Exam.DefaultQuestionCount {
		return fmt.Errorf("exam.max_question_count (%d) is below the default question count (%d)",
			c.Exam.MaxQuestionCount, c.Exam.DefaultQuestionCount)
	}
	if c.Exam.MaxUpdateRetries < 1 {
		return fmt.Errorf("exam.max_update_retries must be at least 1")
	}

	if c.RateLimit.MaxRequests <= 0 || c.RateLimit.WindowMinutes <= 0 {
		return fmt.Errorf("rate_limit values must be positive")
	}

	return nil
}

// Validate checks the client settings. The API base URL is mandatory.
func (c ClientConfig) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return fmt.Errorf("client.api_base_url is required")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("client.retry_attempts must be at least 1")
	}
	if c.RequestTimeoutMS <= 0 {
		return fmt.Errorf("client.request_timeout_ms must be positive")
	}
	return nil
}
