// Package config loads pusd's on-disk configuration, grounded on
// 90karatinsa-ch10gate's cmd/ch10d/main.go loadConfig: a YAML file
// decoded into a struct, followed by a defaulting pass for anything
// the operator left zero-valued.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LogConfig controls the lumberjack-backed rotating log sink.
type LogConfig struct {
	Directory  string `yaml:"directory"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	MaxBackups int    `yaml:"maxBackups"`
	Compress   bool   `yaml:"compress"`
}

// DebugServerConfig controls the HTTP/WS inspection surface.
type DebugServerConfig struct {
	Addr string `yaml:"addr"`
}

// ScheduleConfig controls ST[11]'s release-engine tick cadence.
type ScheduleConfig struct {
	TickIntervalSeconds int `yaml:"tickIntervalSeconds"`
}

// Config is pusd's top-level configuration file shape.
type Config struct {
	StorageDir  string            `yaml:"storageDir"`
	Logs        LogConfig         `yaml:"logs"`
	DebugServer DebugServerConfig `yaml:"debugServer"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
}

// Load reads and decodes the YAML file at path, then fills in
// defaults for anything left unset. A missing path is not an error:
// Load returns the all-defaults Config, matching this core's standalone
// operating mode (no ground segment required to boot).
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				applyDefaults(cfg, "")
				return cfg, nil
			}
			return nil, fmt.Errorf("config: open %s: %w", path, err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	applyDefaults(cfg, path)
	return cfg, nil
}

func applyDefaults(cfg *Config, path string) {
	base := "."
	if path != "" {
		base = filepath.Dir(path)
	}

	if cfg.StorageDir == "" {
		cfg.StorageDir = filepath.Join(base, "pusd-store")
	}
	if cfg.Logs.Directory == "" {
		cfg.Logs.Directory = filepath.Join(base, "logs")
	}
	if cfg.Logs.MaxSizeMB == 0 {
		cfg.Logs.MaxSizeMB = 10
	}
	if cfg.Logs.MaxAgeDays == 0 {
		cfg.Logs.MaxAgeDays = 28
	}
	if cfg.Logs.MaxBackups == 0 {
		cfg.Logs.MaxBackups = 5
	}
	if cfg.DebugServer.Addr == "" {
		cfg.DebugServer.Addr = "127.0.0.1:8090"
	}
	if cfg.Schedule.TickIntervalSeconds == 0 {
		cfg.Schedule.TickIntervalSeconds = 1
	}
}
