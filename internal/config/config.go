package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "/etc/akn-migrate/config.yaml"

// Platform identifies the organisation recorded as the source of
// migrated metadata.
type Platform struct {
	ID     string `json:"id" yaml:"id"`
	Href   string `json:"href" yaml:"href"`
	ShowAs string `json:"show_as" yaml:"show_as"`
}

// Config is read from JSON or YAML, chosen by file extension.
type Config struct {
	DatabasePath  string   `json:"database_path" yaml:"database_path"`
	Platform      Platform `json:"platform" yaml:"platform"`
	ParserBinary  string   `json:"parser_binary" yaml:"parser_binary"`
	SchemaPath    string   `json:"schema_path" yaml:"schema_path"`
	SchemaURL     string   `json:"schema_url" yaml:"schema_url"`
	XMLLintBinary string   `json:"xmllint_binary" yaml:"xmllint_binary"`
	WorkDir       string   `json:"work_dir" yaml:"work_dir"`
	ReportDir     string   `json:"report_dir" yaml:"report_dir"`
	DiffBaseURL   string   `json:"diff_base_url" yaml:"diff_base_url"`
	Workers       int      `json:"workers" yaml:"workers"`
	LogLevel      string   `json:"log_level" yaml:"log_level"`
	LogFormat     string   `json:"log_format" yaml:"log_format"`
}

func DefaultPath() string {
	if path := os.Getenv("AKN_MIGRATE_CONFIG_FILE"); path != "" {
		return path
	}
	return defaultConfigPath
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &cfg)
	default:
		err = json.Unmarshal(raw, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return errors.New("config database_path is required")
	}
	if c.Platform.ID == "" {
		return errors.New("config platform.id is required")
	}
	if c.Workers < 0 {
		return errors.New("config workers must not be negative")
	}
	if c.SchemaURL != "" && c.SchemaPath == "" {
		return errors.New("config schema_path is required with schema_url")
	}
	return nil
}

// WorkerCount is the number of works migrated in parallel.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return 1
}

// ReportPath is where run artifacts are written.
func (c *Config) ReportPath() string {
	if c.ReportDir != "" {
		return c.ReportDir
	}
	if c.WorkDir != "" {
		return filepath.Join(c.WorkDir, "reports")
	}
	return filepath.Join(os.TempDir(), "akn-migrate")
}
