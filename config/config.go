package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddress         string         `mapstructure:"http_address"`
	OpsAddress          string         `mapstructure:"ops_address"`
	LogLevel            string         `mapstructure:"log_level"`
	ShutdownGracePeriod time.Duration  `mapstructure:"shutdown_grace_period"`
	Database            DatabaseConfig `mapstructure:"database"`
	Redis               RedisConfig    `mapstructure:"redis"`
	Presence            PresenceConfig `mapstructure:"presence"`
	JWT                 JWTConfig      `mapstructure:"jwt"`
	HTTP                HTTPConfig     `mapstructure:"http"`
	WS                  WSConfig       `mapstructure:"ws"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PresenceConfig selects the presence table backend: "memory" or "redis".
type PresenceConfig struct {
	Backend string `mapstructure:"backend"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type HTTPConfig struct {
	RateLimitRPS int `mapstructure:"rate_limit_rps"`
}

type WSConfig struct {
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	SendBuffer         int           `mapstructure:"send_buffer"`
	PingInterval       time.Duration `mapstructure:"ping_interval"`
}

const (
	PresenceMemory = "memory"
	PresenceRedis  = "redis"

	defaultHTTPAddress         = ":5000"
	defaultOpsAddress          = ":9090"
	defaultLogLevel            = "info"
	defaultShutdownGracePeriod = 10 * time.Second
	defaultDSN                 = "host=localhost user=postgres password=postgres dbname=chatrelay port=5432 sslmode=disable TimeZone=UTC"
	defaultMaxOpenConns        = 100
	defaultMaxIdleConns        = 10
	defaultConnMaxLifetime     = time.Hour
	defaultRedisAddr           = "localhost:6379"
	defaultJWTTTL              = 24 * time.Hour
	defaultRateLimitRPS        = 50
	defaultSendBuffer          = 64
	defaultPingInterval        = 25 * time.Second
)

var ErrMissingJWTSecret = errors.New("jwt.secret is required")

// Load reads configuration from the optional file at path and the environment.
// Environment variables are prefixed with CHATRELAY_ and override file values,
// e.g. CHATRELAY_JWT_SECRET or CHATRELAY_DATABASE_DSN.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CHATRELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http_address", defaultHTTPAddress)
	v.SetDefault("ops_address", defaultOpsAddress)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("shutdown_grace_period", defaultShutdownGracePeriod.String())
	v.SetDefault("database.dsn", defaultDSN)
	v.SetDefault("database.max_open_conns", defaultMaxOpenConns)
	v.SetDefault("database.max_idle_conns", defaultMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", defaultConnMaxLifetime.String())
	v.SetDefault("redis.addr", defaultRedisAddr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("presence.backend", PresenceMemory)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", defaultJWTTTL.String())
	v.SetDefault("http.rate_limit_rps", defaultRateLimitRPS)
	v.SetDefault("ws.insecure_skip_verify", false)
	v.SetDefault("ws.send_buffer", defaultSendBuffer)
	v.SetDefault("ws.ping_interval", defaultPingInterval.String())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return ErrMissingJWTSecret
	}
	switch c.Presence.Backend {
	case PresenceMemory, PresenceRedis:
	default:
		return fmt.Errorf("unknown presence backend %q", c.Presence.Backend)
	}
	if c.WS.SendBuffer <= 0 {
		c.WS.SendBuffer = defaultSendBuffer
	}
	// 0 turns rate limiting off.
	if c.HTTP.RateLimitRPS < 0 {
		return fmt.Errorf("http.rate_limit_rps must not be negative, got %d", c.HTTP.RateLimitRPS)
	}
	return nil
}
