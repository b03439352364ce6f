// Package logging builds the zap loggers used by the datalus CLI.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Defaults applied when the level or format is empty.
const (
	DefaultLevel  = "info"
	DefaultFormat = "console"
)

// New builds a logger writing to stderr. level is one of debug, info, warn,
// error; format is json or console.
func New(level, format string) (*zap.Logger, error) {
	zapLevel, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	encoding, encoderConfig, err := encoder(format)
	if err != nil {
		return nil, err
	}

	config := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}
	return config.Build()
}

// ParseLevel converts a level name to a zap level. Empty means info and
// "warning" is accepted for warn.
func ParseLevel(level string) (zapcore.Level, error) {
	name := strings.ToLower(strings.TrimSpace(level))
	switch name {
	case "":
		return zap.InfoLevel, nil
	case "warning":
		name = "warn"
	}
	l, err := zapcore.ParseLevel(name)
	if err != nil {
		return zap.InfoLevel, fmt.Errorf("unknown log level %q: %w", level, err)
	}
	return l, nil
}

func encoder(format string) (string, zapcore.EncoderConfig, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console":
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return "console", cfg, nil
	case "json":
		return "json", zap.NewProductionEncoderConfig(), nil
	default:
		return "", zapcore.EncoderConfig{}, fmt.Errorf("unknown log format %q", format)
	}
}
