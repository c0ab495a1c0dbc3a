package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Log           LogConfig           `mapstructure:"log"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Security      SecurityConfig      `mapstructure:"security"`
	Outbox        OutboxConfig        `mapstructure:"outbox"`
	Retention     RetentionConfig     `mapstructure:"retention"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`

	// Provider credentials come from the environment only.
	JWT        JWTConfig
	Cloudinary CloudinaryConfig
	ElevenLabs ElevenLabsConfig
	SMTP       SMTPConfig
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	Mode            string        `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	Channel      string        `mapstructure:"channel"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type OutboxConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

type RetentionConfig struct {
	OutboxEvents  time.Duration `mapstructure:"outbox_events"`
	AuditLogs     time.Duration `mapstructure:"audit_logs"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type TranscriptionConfig struct {
	// Provider is "elevenlabs" or "stub".
	Provider  string        `mapstructure:"provider"`
	StubDelay time.Duration `mapstructure:"stub_delay"`
}

type JWTConfig struct {
	Secret      string        `envconfig:"JWT_SECRET"`
	Issuer      string        `envconfig:"JWT_ISSUER" default:"medrecords-api"`
	TokenExpiry time.Duration `envconfig:"JWT_TOKEN_EXPIRY" default:"24h"`
}

type CloudinaryConfig struct {
	CloudName string `envconfig:"CLOUDINARY_CLOUD_NAME"`
	APIKey    string `envconfig:"CLOUDINARY_API_KEY"`
	APISecret string `envconfig:"CLOUDINARY_API_SECRET"`
	Folder    string `envconfig:"CLOUDINARY_FOLDER" default:"patient_records"`
}

type ElevenLabsConfig struct {
	APIKey  string        `envconfig:"ELEVENLABS_API_KEY"`
	BaseURL string        `envconfig:"ELEVENLABS_BASE_URL" default:"https://api.elevenlabs.io"`
	ModelID string        `envconfig:"ELEVENLABS_MODEL_ID" default:"scribe_v1"`
	Timeout time.Duration `envconfig:"ELEVENLABS_TIMEOUT" default:"60s"`
}

type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST"`
	Port     int    `envconfig:"SMTP_PORT" default:"587"`
	Username string `envconfig:"SMTP_USERNAME"`
	Password string `envconfig:"SMTP_PASSWORD"`
	From     string `envconfig:"SMTP_FROM" default:"no-reply@medrecords.local"`
}

// Enabled reports whether outgoing mail is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.request_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.max_body_bytes", 25<<20)
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "medrecords")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("redis.channel", "events")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 500*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)

	v.SetDefault("log.level", "info")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("security.allowed_origins", []string{"*"})
	v.SetDefault("security.allowed_methods", []string{"GET", "POST", "PATCH", "OPTIONS"})
	v.SetDefault("security.allowed_headers", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"})

	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.poll_interval", 5*time.Second)
	v.SetDefault("outbox.retry_attempts", 3)
	v.SetDefault("outbox.retry_delay", 5*time.Second)

	v.SetDefault("retention.outbox_events", 7*24*time.Hour)
	v.SetDefault("retention.audit_logs", 90*24*time.Hour)
	v.SetDefault("retention.sweep_interval", 24*time.Hour)

	v.SetDefault("transcription.provider", "elevenlabs")
	v.SetDefault("transcription.stub_delay", 1500*time.Millisecond)
}

// LoadConfig reads config.yaml when one is present, applies RECORDS_*
// environment overrides and then the provider credentials.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")           // current directory
	v.AddConfigPath("./config")    // config subdirectory
	v.AddConfigPath("/app/config") // container config directory

	v.SetEnvPrefix("RECORDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := loadSecrets(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadSecrets(cfg *Config) error {
	if err := envconfig.Process("", &cfg.JWT); err != nil {
		return fmt.Errorf("failed to load jwt config: %w", err)
	}
	if err := envconfig.Process("", &cfg.Cloudinary); err != nil {
		return fmt.Errorf("failed to load cloudinary config: %w", err)
	}
	if err := envconfig.Process("", &cfg.ElevenLabs); err != nil {
		return fmt.Errorf("failed to load elevenlabs config: %w", err)
	}
	if err := envconfig.Process("", &cfg.SMTP); err != nil {
		return fmt.Errorf("failed to load smtp config: %w", err)
	}
	return nil
}
