// Package config resolves server settings in priority order:
// defaults -> YAML file -> .env -> process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port   int
	DBPath string

	JWTSecret     string
	TokenDuration time.Duration

	RedisURL    string
	CacheTTL    time.Duration
	InFlightTTL time.Duration

	KafkaBrokers []string
	// Topics maps event types to Kafka topics. Unmapped types use the type name.
	Topics map[string]string

	SeedPath string

	LogLevel string
	LogFile  string

	CORSOrigins []string
}

// configFile mirrors the YAML schema of config.yaml.
type configFile struct {
	Server struct {
		Port        int      `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Storage struct {
		DBPath   string `yaml:"db_path"`
		SeedPath string `yaml:"seed_path"`
	} `yaml:"storage"`
	Auth struct {
		JWTSecret     string `yaml:"jwt_secret"`
		TokenDuration string `yaml:"token_duration"`
	} `yaml:"auth"`
	Redis struct {
		URL         string `yaml:"url"`
		CacheTTL    string `yaml:"cache_ttl"`
		InFlightTTL string `yaml:"in_flight_ttl"`
	} `yaml:"redis"`
	Kafka struct {
		Brokers []string          `yaml:"brokers"`
		Topics  map[string]string `yaml:"topics"`
	} `yaml:"kafka"`
	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

const devSecret = "dev-secret-change-me"

func defaults() Config {
	return Config{
		Port:          8080,
		DBPath:        "./data/dineout.db",
		JWTSecret:     devSecret,
		TokenDuration: 24 * time.Hour,
		CacheTTL:      10 * time.Minute,
		InFlightTTL:   10 * time.Second,
		Topics:        map[string]string{},
		LogLevel:      "info",
		CORSOrigins:   []string{"*"},
	}
}

// Load reads the optional YAML file at path and the optional .env in the
// working directory, then applies environment overrides. A missing file
// is not an error.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := cfg.applyFile(raw); err != nil {
				return Config{}, err
			}
		case !errors.Is(err, fs.ErrNotExist):
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if f.Server.Port > 0 {
		c.Port = f.Server.Port
	}
	if len(f.Server.CORSOrigins) > 0 {
		c.CORSOrigins = f.Server.CORSOrigins
	}
	if f.Storage.DBPath != "" {
		c.DBPath = f.Storage.DBPath
	}
	if f.Storage.SeedPath != "" {
		c.SeedPath = f.Storage.SeedPath
	}
	if f.Auth.JWTSecret != "" {
		c.JWTSecret = f.Auth.JWTSecret
	}
	if f.Redis.URL != "" {
		c.RedisURL = f.Redis.URL
	}
	if len(f.Kafka.Brokers) > 0 {
		c.KafkaBrokers = f.Kafka.Brokers
	}
	for event, topic := range f.Kafka.Topics {
		c.Topics[event] = topic
	}
	if f.Logging.Level != "" {
		c.LogLevel = f.Logging.Level
	}
	if f.Logging.File != "" {
		c.LogFile = f.Logging.File
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"auth.token_duration", f.Auth.TokenDuration, &c.TokenDuration},
		{"redis.cache_ttl", f.Redis.CacheTTL, &c.CacheTTL},
		{"redis.in_flight_ttl", f.Redis.InFlightTTL, &c.InFlightTTL},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.name, err)
		}
		*d.dst = v
	}
	return nil
}

func (c *Config) applyEnv() error {
	var err error
	if c.Port, err = envInt("PORT", c.Port); err != nil {
		return err
	}
	c.DBPath = envOrDefault("DB_PATH", c.DBPath)
	c.SeedPath = envOrDefault("SEED_PATH", c.SeedPath)
	c.JWTSecret = envOrDefault("JWT_SECRET", c.JWTSecret)
	c.RedisURL = envOrDefault("REDIS_URL", c.RedisURL)
	c.KafkaBrokers = envCSV("KAFKA_BROKERS", c.KafkaBrokers)
	c.LogLevel = envOrDefault("LOG_LEVEL", c.LogLevel)
	c.LogFile = envOrDefault("LOG_FILE", c.LogFile)
	c.CORSOrigins = envCSV("CORS_ORIGINS", c.CORSOrigins)

	if c.TokenDuration, err = envDuration("TOKEN_DURATION", c.TokenDuration); err != nil {
		return err
	}
	if c.CacheTTL, err = envDuration("CACHE_TTL", c.CacheTTL); err != nil {
		return err
	}
	if c.InFlightTTL, err = envDuration("IN_FLIGHT_TTL", c.InFlightTTL); err != nil {
		return err
	}
	return nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("missing DB_PATH")
	}
	if c.JWTSecret == "" {
		return errors.New("missing JWT_SECRET")
	}
	if c.TokenDuration <= 0 {
		return fmt.Errorf("token duration must be positive, got %s", c.TokenDuration)
	}
	if c.InFlightTTL <= 0 {
		return fmt.Errorf("in-flight ttl must be positive, got %s", c.InFlightTTL)
	}
	return nil
}

// UsingDevSecret reports whether the built-in JWT secret is still in use.
func (c Config) UsingDevSecret() bool {
	return c.JWTSecret == devSecret
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return v, nil
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return v, nil
}

// envCSV parses comma-separated values, dropping empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	var parts []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
