package logutil

import (
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

const (
	defaultLogLevel   = "info"
	defaultLogMaxDays = 7
	defaultLogMaxSize = 512 // MB
)

// Config is the log section of the process configuration.
type Config struct {
	Level  string `toml:"level" json:"level"`
	File   string `toml:"file" json:"file"`
	Format string `toml:"format" json:"format"`
}

// Adjust fills zero values with defaults.
func (cfg *Config) Adjust() {
	if cfg.Level == "" {
		cfg.Level = defaultLogLevel
	}
	if cfg.Format == "" {
		cfg.Format = "text"
	}
}

// InitLogger initializes the global pingcap logger. Every package logs
// through log.L() afterwards.
func InitLogger(cfg *Config) error {
	cfg.Adjust()
	logger, props, err := log.InitLogger(&log.Config{
		Level:  cfg.Level,
		Format: cfg.Format,
		File: log.FileLogConfig{
			Filename: cfg.File,
			MaxSize:  defaultLogMaxSize,
			MaxDays:  defaultLogMaxDays,
		},
	})
	if err != nil {
		return errors.Trace(err)
	}
	log.ReplaceGlobals(logger, props)
	log.L().Info("logger initialized", zap.String("level", cfg.Level), zap.String("file", cfg.File))
	return nil
}
