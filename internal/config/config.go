package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/MalithGihan/blueprint-service/pkg/types"
)

type Config struct {
	Server    Server    `toml:"server"`
	Data      Data      `toml:"data"`
	Limits    Limits    `toml:"limits"`
	RateLimit RateLimit `toml:"rate_limit"`
	Log       Log       `toml:"log"`
	Export    Export    `toml:"export"`
}

type Server struct {
	Port            string        `toml:"port"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy bool `toml:"trust_proxy"`
}

type Data struct {
	Root string `toml:"root"`
}

type Limits struct {
	MaxNodes       int   `toml:"max_nodes"`
	MaxEdges       int   `toml:"max_edges"`
	MaxBodyBytes   int64 `toml:"max_body_bytes"`
	MaxUploadBytes int64 `toml:"max_upload_bytes"`
}

type RateLimit struct {
	Enabled           bool   `toml:"enabled"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
	Burst             int    `toml:"burst"`
	RedisURL          string `toml:"redis_url"`
}

type Log struct {
	Level string `toml:"level"`
}

type Export struct {
	DefaultMode string  `toml:"default_mode"`
	Padding     float64 `toml:"padding"`
}

func Default() *Config {
	return &Config{
		Server: Server{
			Port:            "8081",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Data: Data{Root: "./projects"},
		Limits: Limits{
			MaxNodes:       1000,
			MaxEdges:       5000,
			MaxBodyBytes:   4 << 20,
			MaxUploadBytes: 64 << 20,
		},
		RateLimit: RateLimit{Enabled: true, RequestsPerMinute: 60, Burst: 20},
		Log:       Log{Level: "info"},
		Export:    Export{DefaultMode: string(types.ModeDefault), Padding: 50},
	}
}

// Load reads .env, then the optional TOML file at path, then BLUEPRINT_*
// environment overrides. Fields missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	ApplyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides applies environment variable overrides.
// Pattern: BLUEPRINT_[SECTION]_[KEY]; PORT and DATA_ROOT are honoured too.
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Server.Port, "PORT")
	setEnvString(&cfg.Server.Port, "BLUEPRINT_SERVER_PORT")
	setEnvDuration(&cfg.Server.ReadTimeout, "BLUEPRINT_SERVER_READ_TIMEOUT")
	setEnvDuration(&cfg.Server.WriteTimeout, "BLUEPRINT_SERVER_WRITE_TIMEOUT")
	setEnvBool(&cfg.Server.TrustProxy, "BLUEPRINT_SERVER_TRUST_PROXY")

	setEnvString(&cfg.Data.Root, "DATA_ROOT")
	setEnvString(&cfg.Data.Root, "BLUEPRINT_DATA_ROOT")

	setEnvInt(&cfg.Limits.MaxNodes, "BLUEPRINT_LIMITS_MAX_NODES")
	setEnvInt(&cfg.Limits.MaxEdges, "BLUEPRINT_LIMITS_MAX_EDGES")

	setEnvBool(&cfg.RateLimit.Enabled, "BLUEPRINT_RATE_LIMIT_ENABLED")
	setEnvInt(&cfg.RateLimit.RequestsPerMinute, "BLUEPRINT_RATE_LIMIT_REQUESTS_PER_MINUTE")
	setEnvInt(&cfg.RateLimit.Burst, "BLUEPRINT_RATE_LIMIT_BURST")
	setEnvString(&cfg.RateLimit.RedisURL, "BLUEPRINT_RATE_LIMIT_REDIS_URL")

	setEnvString(&cfg.Log.Level, "BLUEPRINT_LOG_LEVEL")
	setEnvString(&cfg.Export.DefaultMode, "BLUEPRINT_EXPORT_DEFAULT_MODE")
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Port) == "" {
		return fmt.Errorf("config: server.port is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("config: server.port %q is not a number", c.Server.Port)
	}
	if strings.TrimSpace(c.Data.Root) == "" {
		return fmt.Errorf("config: data.root is required")
	}
	if c.Limits.MaxNodes <= 0 || c.Limits.MaxEdges <= 0 {
		return fmt.Errorf("config: limits.max_nodes and limits.max_edges must be positive")
	}
	if c.Limits.MaxBodyBytes <= 0 || c.Limits.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: body and upload limits must be positive")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerMinute <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("config: rate_limit.requests_per_minute and rate_limit.burst must be positive")
	}
	switch types.Mode(c.Export.DefaultMode) {
	case types.ModeDefault, types.ModeStartup, types.ModeEnterprise:
	default:
		return fmt.Errorf("config: export.default_mode %q is not one of default, startup, enterprise", c.Export.DefaultMode)
	}
	if c.Export.Padding < 0 {
		return fmt.Errorf("config: export.padding must not be negative")
	}
	return nil
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(val); err == nil {
			*target = n
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			*target = d
		}
	}
}
