package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"avvatracker/internal/config"
)

// New builds the process logger. Development mode switches to console
// encoding at debug level.
func New(cfg config.LoggerConfig, development bool) (*zap.Logger, error) {
	var zc zap.Config
	if development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "ts"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if cfg.Encoding != "" && !development {
		zc.Encoding = cfg.Encoding
	}
	if cfg.Level != "" && !development {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}

	return zc.Build()
}
