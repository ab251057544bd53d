package config

import "fmt"

// Validate checks cfg for internal consistency. It performs
// declarative validation only; it MUST NOT mutate cfg — defaulting
// belongs to Load, grounded on
// tamzrod-modbus-replicator/internal/config/validate.go's separation
// of the two concerns.
func Validate(cfg *Config) error {
	if cfg.StorageDir == "" {
		return fmt.Errorf("config: storageDir must not be empty")
	}
	if cfg.Logs.MaxSizeMB <= 0 {
		return fmt.Errorf("config: logs.maxSizeMB must be positive")
	}
	if cfg.Logs.MaxAgeDays <= 0 {
		return fmt.Errorf("config: logs.maxAgeDays must be positive")
	}
	if cfg.Logs.MaxBackups < 0 {
		return fmt.Errorf("config: logs.maxBackups must not be negative")
	}
	if cfg.DebugServer.Addr == "" {
		return fmt.Errorf("config: debugServer.addr must not be empty")
	}
	if cfg.Schedule.TickIntervalSeconds <= 0 {
		return fmt.Errorf("config: schedule.tickIntervalSeconds must be positive")
	}
	return nil
}
