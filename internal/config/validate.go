package config

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
)

var bucketName = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]*[a-z0-9]$`)

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server address cannot be empty")
	}
	if _, err := net.ResolveTCPAddr("tcp", c.Server.Addr); err != nil {
		return fmt.Errorf("invalid server address: %v", err)
	}
	if c.Server.Timeout < 0 {
		return errors.New("server timeout cannot be negative")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	if c.LLM.MaxChars < 0 {
		return errors.New("llm max_chars cannot be negative")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm temperature must be between 0 and 2")
	}

	if c.Audit.LedgerPath == "" {
		return errors.New("audit ledger_path cannot be empty")
	}

	if c.History.Enabled {
		switch c.History.Driver {
		case "sqlite3", "postgres":
		default:
			return fmt.Errorf("unsupported history driver: %s", c.History.Driver)
		}
		if c.History.DSN == "" {
			return errors.New("history dsn cannot be empty when history is enabled")
		}
	}

	if c.Report.Enabled {
		if c.Report.Endpoint == "" {
			return errors.New("report endpoint cannot be empty when report is enabled")
		}
		if c.Report.AccessKey == "" || c.Report.SecretKey == "" {
			return errors.New("report credentials cannot be empty when report is enabled")
		}
		if !isValidBucketName(c.Report.Bucket) {
			return fmt.Errorf("invalid report bucket name: %s", c.Report.Bucket)
		}
	}

	if c.Workers.BasePath == "" {
		return errors.New("workers base path cannot be empty")
	}
	if c.Workers.MaxBytes <= 0 {
		return errors.New("workers max_bytes must be positive")
	}
	return nil
}

// isValidBucketName checks if a bucket name is valid according to MinIO/S3 rules
func isValidBucketName(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	return bucketName.MatchString(name)
}
