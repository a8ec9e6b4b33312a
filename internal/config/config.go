package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/flexprice/flexprice/internal/types"
	"github.com/flexprice/flexprice/internal/validator"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configuration aggregates every ambient and domain config group the
// service needs. Field names line up with spec.md §6's environment
// variable table; viper's env-key replacer maps USAGETRACK_DATABASE_URL
// style variables onto the nested mapstructure tags below.
type Configuration struct {
	Deployment  DeploymentConfig  `validate:"required"`
	Server      ServerConfig      `validate:"required"`
	Auth        AuthConfig        `validate:"required"`
	Postgres    PostgresConfig    `validate:"required"`
	ClickHouse  ClickHouseConfig  `validate:"required"`
	Redis       RedisConfig       `validate:"required"`
	Logging     LoggingConfig     `validate:"required"`
	RateLimit   RateLimitConfig   `validate:"required"`
	Batch       BatchConfig       `validate:"required"`
	Aggregation AggregationConfig `validate:"required"`
	Retention   RetentionConfig   `validate:"required"`
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required"`
}

type ServerConfig struct {
	// Address is API_HOST:API_PORT, e.g. "0.0.0.0:8000"
	Address string `mapstructure:"address" validate:"required"`
}

type APIKeyDetails struct {
	TenantID string `mapstructure:"tenant_id" json:"tenant_id" validate:"required"`
	Name     string `mapstructure:"name" json:"name" validate:"required"`
	IsActive bool   `mapstructure:"is_active" json:"is_active"`
}

// AuthConfig resolves API keys to tenants per spec §4.4. Keys is keyed
// on the raw header value clients present (X-API-Key or the bearer
// token); in production this would be a hash, kept plain here to match
// the teacher's own local-dev APIKeyConfig shape.
type AuthConfig struct {
	Header string                   `mapstructure:"header" validate:"required"`
	Keys   map[string]APIKeyDetails `mapstructure:"keys"`
}

type PostgresConfig struct {
	Host                   string `mapstructure:"host" validate:"required"`
	Port                   int    `mapstructure:"port" validate:"required"`
	User                   string `mapstructure:"user" validate:"required"`
	Password               string `mapstructure:"password"`
	DBName                 string `mapstructure:"dbname" validate:"required"`
	SSLMode                string `mapstructure:"sslmode" validate:"required"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" default:"20"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" default:"10"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" default:"60"`
}

type ClickHouseConfig struct {
	Address  string `mapstructure:"address" validate:"required"`
	TLS      bool   `mapstructure:"tls"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database" validate:"required"`
}

// RedisConfig backs the Queue Adapter, the rate limiter, and the
// advisory query cache — one connection pool, three consumers, the
// way the teacher layers several subsystems over one postgres pool.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LoggingConfig struct {
	Level  types.LogLevel  `mapstructure:"level" validate:"required"`
	Format types.LogFormat `mapstructure:"format" validate:"required"`
}

type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute" default:"1000"`
	Burst     int `mapstructure:"burst" default:"100"`
}

type BatchConfig struct {
	MaxBatchSize   int `mapstructure:"max_batch_size" default:"1000"`
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// Size is the processor's batch_size (§4.5): one blocking pop plus
	// up to Size-1 non-blocking drains.
	Size int `mapstructure:"size" default:"10"`
}

type AggregationConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds" default:"300"`
}

type RetentionConfig struct {
	EventDays     int `mapstructure:"event_days" default:"365"`
	AggregateDays int `mapstructure:"aggregate_days" default:"1095"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	_ = godotenv.Load()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("USAGETRACK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(types.ModeAll))
	v.SetDefault("server.address", "0.0.0.0:8000")
	v.SetDefault("auth.header", "X-API-Key")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 20)
	v.SetDefault("postgres.max_idle_conns", 10)
	v.SetDefault("clickhouse.database", "usagetrack")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("logging.format", string(types.LogFormatJSON))
	v.SetDefault("ratelimit.per_minute", 1000)
	v.SetDefault("ratelimit.burst", 100)
	v.SetDefault("batch.max_batch_size", 1000)
	v.SetDefault("batch.timeout_seconds", 30)
	v.SetDefault("batch.size", 10)
	v.SetDefault("aggregation.interval_seconds", 300)
	v.SetDefault("retention.event_days", 365)
	v.SetDefault("retention.aggregate_days", 1095)
}

func (c Configuration) Validate() error {
	return validator.ValidateRequest(c)
}

// GetDefaultConfig returns a default configuration for local development
// and for tests that need a Configuration without reading the environment.
func GetDefaultConfig() *Configuration {
	cfg := &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeAll},
		Server:     ServerConfig{Address: "0.0.0.0:8000"},
		Auth:       AuthConfig{Header: "X-API-Key"},
		Postgres:   PostgresConfig{Host: "localhost", Port: 5432, User: "postgres", DBName: "usagetrack", SSLMode: "disable"},
		ClickHouse: ClickHouseConfig{Address: "localhost:9000", Database: "usagetrack"},
		Redis:      RedisConfig{Addr: "localhost:6379"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug, Format: types.LogFormatConsole},
		RateLimit:  RateLimitConfig{PerMinute: 1000, Burst: 100},
		Batch:      BatchConfig{MaxBatchSize: 1000, TimeoutSeconds: 30, Size: 10},
		Aggregation: AggregationConfig{IntervalSeconds: 300},
		Retention:   RetentionConfig{EventDays: 365, AggregateDays: 1095},
	}
	return cfg
}

func (c ClickHouseConfig) GetClientOptions() *clickhouse.Options {
	options := &clickhouse.Options{
		Addr: []string{c.Address},
		Auth: clickhouse.Auth{
			Database: c.Database,
			Username: c.Username,
			Password: c.Password,
		},
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
	}
	if c.TLS {
		options.TLS = &tls.Config{}
	}
	return options
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
