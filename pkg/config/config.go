// Package config loads and validates the botctl.yaml configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the botctl.yaml file.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Service ServiceConfig `yaml:"service" json:"service"`
	Logs    LogsConfig    `yaml:"logs"    json:"logs"`
	Install InstallConfig `yaml:"install" json:"install"`

	// FilePath is where the config was loaded from (not serialized).
	FilePath string `yaml:"-" json:"-"`
}

// ServiceConfig names the managed unit and the discovery keyword.
type ServiceConfig struct {
	Unit   string `yaml:"unit"   json:"unit"`
	Filter string `yaml:"filter" json:"filter"`
}

// LogsConfig bounds the log viewer. The tail and export limits are
// overridable defaults, not contracts.
type LogsConfig struct {
	TailLines   int    `yaml:"tail_lines"   json:"tail_lines"`
	ExportLines int    `yaml:"export_lines" json:"export_lines"`
	ExportDir   string `yaml:"export_dir"   json:"export_dir"`
	Pager       string `yaml:"pager,omitempty" json:"pager,omitempty"`
}

// InstallConfig drives the lifecycle manager.
type InstallConfig struct {
	Repo   string `yaml:"repo"   json:"repo"`
	Dir    string `yaml:"dir"    json:"dir"`
	Python string `yaml:"python,omitempty" json:"python,omitempty"`
}

// Default returns the stock configuration for a dnsbot deployment.
func Default() *Config {
	return &Config{
		Version: 1,
		Service: ServiceConfig{
			Unit:   "dnsbot.service",
			Filter: "bot",
		},
		Logs: LogsConfig{
			TailLines:   200,
			ExportLines: 1000,
			ExportDir:   "exports",
		},
		Install: InstallConfig{
			Dir:    "/opt/dnsbot",
			Python: "python3",
		},
	}
}

// Load reads and parses a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	c.FilePath = path
	return &c, nil
}

// Save writes the config to the given path.
func Save(c *Config, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Validate checks the config for structural correctness.
func Validate(c *Config) []error {
	var errs []error

	if c.Version != 1 {
		errs = append(errs, fmt.Errorf("version must be 1, got %d", c.Version))
	}
	if c.Service.Unit == "" {
		errs = append(errs, fmt.Errorf("service.unit is required"))
	}
	if c.Logs.TailLines <= 0 {
		errs = append(errs, fmt.Errorf("logs.tail_lines must be positive, got %d", c.Logs.TailLines))
	}
	if c.Logs.ExportLines <= 0 {
		errs = append(errs, fmt.Errorf("logs.export_lines must be positive, got %d", c.Logs.ExportLines))
	}
	if c.Logs.ExportDir == "" {
		errs = append(errs, fmt.Errorf("logs.export_dir is required"))
	}

	return errs
}
