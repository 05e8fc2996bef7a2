package logger

import (
	"fmt"

	"github.com/example/storefront/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger from the log section of the config.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	switch cfg.Encoding {
	case "", "json":
		zcfg.Encoding = "json"
	case "console":
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("invalid log encoding %q", cfg.Encoding)
	}

	if len(cfg.OutputPaths) > 0 {
		zcfg.OutputPaths = cfg.OutputPaths
	}

	return zcfg.Build()
}
