// Package config loads server settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config sources, highest priority first: explicit path, CONFIG_PATH,
// ./local.yaml, environment only. Environment variables always overlay YAML.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	RPC     RPCConfig     `yaml:"rpc"`
	DB      DBConfig      `yaml:"db"`
	Auth    AuthConfig    `yaml:"auth"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
}

type RPCConfig struct {
	Socket string `yaml:"socket" env:"RPC_SOCKET" env-default:"/tmp/bmomtm.sock"`
}

type DBConfig struct {
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite"`
	DSN    string `yaml:"dsn" env:"DB_DSN" env-default:"bot_data.db"`
}

type AuthConfig struct {
	AdminPassword  string        `yaml:"admin_password" env:"ADMIN_PASSWORD" env-default:"admin123"`
	SessionTTL     time.Duration `yaml:"session_ttl" env:"SESSION_TTL" env-default:"24h"`
	SessionBackend string        `yaml:"session_backend" env:"SESSION_BACKEND" env-default:"memory"`
	RedisURL       string        `yaml:"redis_url" env:"REDIS_URL"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
}

const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

func Load(path string) (*Config, error) {
	var cfg Config

	read := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}
		return &cfg, nil
	}

	if path != "" {
		return read(path)
	}
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return read(envPath)
	}
	if _, err := os.Stat("local.yaml"); err == nil {
		return read("local.yaml")
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("db.driver must be sqlite or postgres, got %q", c.DB.Driver))
	}
	if strings.TrimSpace(c.DB.DSN) == "" {
		errs = append(errs, errors.New("db.dsn is required"))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("auth.session_ttl must be positive"))
	}
	switch c.Auth.SessionBackend {
	case SessionMemory:
	case SessionRedis:
		if strings.TrimSpace(c.Auth.RedisURL) == "" {
			errs = append(errs, errors.New("auth.redis_url is required for the redis session backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.session_backend must be memory or redis, got %q", c.Auth.SessionBackend))
	}
	return errors.Join(errs...)
}
