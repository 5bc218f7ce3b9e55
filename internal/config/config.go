// Package config loads the server's runtime configuration from layered
// sources: built-in defaults, an optional YAML file, then environment
// variables — the same lowest-to-highest override order the teacher's MCP
// ConfigLoader uses across its user/project/local config scopes
// (internal/infra/mcp/config.go Load()), adapted here to a flat config
// struct instead of a per-scope file merge.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the fully resolved runtime configuration for the server.
type Config struct {
	Addr                  string        `yaml:"addr"`
	StorageRoot           string        `yaml:"storage_root"`
	MaxBodyBytes          int64         `yaml:"max_body_bytes"`
	IdleSessionTTL        time.Duration `yaml:"idle_session_ttl"`
	MaxSessionsPerUser    int           `yaml:"max_sessions_per_user"`
	DefaultSymbolServer   string        `yaml:"default_symbol_server"`
	APIKey                string        `yaml:"api_key"`
	ToolTimeout           time.Duration `yaml:"tool_timeout"`
	UploadConcurrency     int           `yaml:"upload_concurrency"`
	LogLevel              string        `yaml:"log_level"`
	LogFormat             string        `yaml:"log_format"`
}

// Default returns the built-in default configuration (lowest priority
// layer).
func Default() Config {
	return Config{
		Addr:                ":8080",
		StorageRoot:         "./data",
		MaxBodyBytes:        512 * 1024 * 1024,
		IdleSessionTTL:      30 * time.Minute,
		MaxSessionsPerUser:  5,
		DefaultSymbolServer: "https://msdl.microsoft.com/download/symbols",
		ToolTimeout:         300 * time.Second,
		UploadConcurrency:   4,
		LogLevel:            "info",
		LogFormat:           "json",
	}
}

// Load resolves the configuration: defaults, then an optional YAML file at
// yamlPath (skipped silently if it does not exist), then environment
// variables via viper's AutomaticEnv binding.
func Load(yamlPath string) (Config, error) {
	cfg := Default()

	if yamlPath != "" {
		if data, err := os.ReadFile(yamlPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file %s: %w", yamlPath, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config file %s: %w", yamlPath, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("DBGMCP")
	v.AutomaticEnv()
	applyEnvOverrides(&cfg, v)

	return cfg, nil
}

func applyEnvOverrides(cfg *Config, v *viper.Viper) {
	if s := v.GetString("ADDR"); s != "" {
		cfg.Addr = s
	}
	if s := v.GetString("STORAGE_ROOT"); s != "" {
		cfg.StorageRoot = s
	}
	if s := os.Getenv("DBGMCP_MAX_BODY_BYTES"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			cfg.MaxBodyBytes = n
		}
	}
	if s := os.Getenv("DBGMCP_IDLE_SESSION_TTL_SECONDS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			cfg.IdleSessionTTL = time.Duration(n) * time.Second
		}
	}
	if s := os.Getenv("DBGMCP_MAX_SESSIONS_PER_USER"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			cfg.MaxSessionsPerUser = n
		}
	}
	if s := v.GetString("DEFAULT_SYMBOL_SERVER"); s != "" {
		cfg.DefaultSymbolServer = s
	}
	if s := v.GetString("API_KEY"); s != "" {
		cfg.APIKey = s
	}
	if s := os.Getenv("DBGMCP_TOOL_TIMEOUT_SECONDS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			cfg.ToolTimeout = time.Duration(n) * time.Second
		}
	}
	if s := os.Getenv("DBGMCP_UPLOAD_CONCURRENCY"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			cfg.UploadConcurrency = n
		}
	}
	if s := v.GetString("LOG_LEVEL"); s != "" {
		cfg.LogLevel = s
	}
	if s := v.GetString("LOG_FORMAT"); s != "" {
		cfg.LogFormat = s
	}
}
