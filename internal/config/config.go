package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete legalis configuration.
// The structure matches config.yaml and every key can be overridden with a
// LEGALIS_ prefixed environment variable (LEGALIS_LLM_MODEL, ...).
type Config struct {
	Server  ServerConfig  `json:"server" mapstructure:"server"`
	Auth    AuthConfig    `json:"auth" mapstructure:"auth"`
	Log     LogConfig     `json:"log" mapstructure:"log"`
	LLM     LLMConfig     `json:"llm" mapstructure:"llm"`
	Audit   AuditConfig   `json:"audit" mapstructure:"audit"`
	History HistoryConfig `json:"history" mapstructure:"history"`
	Report  ReportConfig  `json:"report" mapstructure:"report"`
	Workers WorkersConfig `json:"workers" mapstructure:"workers"`
}

type ServerConfig struct {
	Addr    string        `json:"addr" mapstructure:"addr"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
	// CORSOrigins lists browser origins allowed to call the gateway; "*" allows any.
	CORSOrigins []string `json:"cors_origins" mapstructure:"cors_origins"`
}

type AuthConfig struct {
	Token        string   `json:"token" mapstructure:"token"`
	AllowedTools []string `json:"allowed_tools" mapstructure:"allowed_tools"`
}

type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
}

// LLMConfig points at an OpenAI compatible chat completions endpoint.
type LLMConfig struct {
	Endpoint    string        `json:"endpoint" mapstructure:"endpoint"`
	Model       string        `json:"model" mapstructure:"model"`
	APIKey      string        `json:"api_key" mapstructure:"api_key"`
	Temperature float32       `json:"temperature" mapstructure:"temperature"`
	MaxTokens   int           `json:"max_tokens" mapstructure:"max_tokens"`
	MaxChars    int           `json:"max_chars" mapstructure:"max_chars"`
	Timeout     time.Duration `json:"timeout" mapstructure:"timeout"`
}

// placeholderKey marks an API key that was never filled in.
const placeholderKey = "YOUR_API_KEY"

// Configured reports whether a model can be called.
func (c LLMConfig) Configured() bool {
	return c.Endpoint != "" && c.Model != "" && !strings.Contains(c.APIKey, placeholderKey)
}

type AuditConfig struct {
	LedgerPath string `json:"ledger_path" mapstructure:"ledger_path"`
	DBPath     string `json:"db_path" mapstructure:"db_path"`
}

type HistoryConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Driver  string `json:"driver" mapstructure:"driver"`
	DSN     string `json:"dsn" mapstructure:"dsn"`
}

type ReportConfig struct {
	Enabled   bool          `json:"enabled" mapstructure:"enabled"`
	Endpoint  string        `json:"endpoint" mapstructure:"endpoint"`
	AccessKey string        `json:"access_key" mapstructure:"access_key"`
	SecretKey string        `json:"secret_key" mapstructure:"secret_key"`
	UseSSL    bool          `json:"use_ssl" mapstructure:"use_ssl"`
	Bucket    string        `json:"bucket" mapstructure:"bucket"`
	Prefix    string        `json:"prefix" mapstructure:"prefix"`
	URLTTL    time.Duration `json:"url_ttl" mapstructure:"url_ttl"`
}

type WorkersConfig struct {
	BasePath string `json:"base_path" mapstructure:"base_path"`
	MaxBytes int64  `json:"max_bytes" mapstructure:"max_bytes"`
}

// Load loads the configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit config file. An empty path searches
// "." and "$HOME/.legalis" for config.yaml.
func LoadFrom(path string) (*Config, error) {
	// Load .env first (ignore error if not present)
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.legalis")
	}
	v.SetEnvPrefix("LEGALIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			slog.Debug("no config file found, using defaults")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Workers.BasePath = resolvePath(cfg.Workers.BasePath)
	cfg.Audit.LedgerPath = resolvePath(cfg.Audit.LedgerPath)
	if cfg.Audit.DBPath != ":memory:" {
		cfg.Audit.DBPath = resolvePath(cfg.Audit.DBPath)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.timeout", "30s")
	v.SetDefault("server.cors_origins", []string{})

	v.SetDefault("auth.token", "")
	v.SetDefault("auth.allowed_tools", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// LM Studio speaks the OpenAI protocol on /v1
	v.SetDefault("llm.endpoint", "http://localhost:1234/v1")
	v.SetDefault("llm.model", "local-model")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.max_chars", 30000)
	v.SetDefault("llm.timeout", "180s")

	v.SetDefault("audit.ledger_path", "audit_log.json")
	v.SetDefault("audit.db_path", "~/.legalis/audit.db")

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.driver", "sqlite3")
	v.SetDefault("history.dsn", "file:legalis_history.db?_busy_timeout=5000")

	v.SetDefault("report.enabled", false)
	v.SetDefault("report.endpoint", "127.0.0.1:9000")
	v.SetDefault("report.access_key", "minioadmin")
	v.SetDefault("report.secret_key", "minioadmin")
	v.SetDefault("report.use_ssl", false)
	v.SetDefault("report.bucket", "legalis-reports")
	v.SetDefault("report.prefix", "reports")
	v.SetDefault("report.url_ttl", "24h")

	v.SetDefault("workers.base_path", ".")
	v.SetDefault("workers.max_bytes", 20<<20)
}

// resolvePath resolves ~ to home directory and cleans the path
func resolvePath(p string) string {
	if p == "" {
		return p
	}
	if p[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	return filepath.Clean(p)
}
