// Package utils provides process-level helpers shared by the tessera commands.
package utils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is attached to every log entry.
const ServiceName = "tessera"

// NewLogger returns the process logger. When debug is true it uses zap's development config
// (console encoding, debug level); otherwise production JSON at info level with ISO8601 times.
func NewLogger(debug bool) (*zap.Logger, error) {
	logger, err := loggerConfig(debug).Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", ServiceName)), nil
}

func loggerConfig(debug bool) zap.Config {
	if debug {
		return zap.NewDevelopmentConfig()
	}
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// Every render is logged.
	cfg.Sampling = nil
	return cfg
}
