package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// rotatedRetention is how long rotated app logs are kept.
const rotatedRetention = 7 * 24 * time.Hour

// Options configures the process logger.
type Options struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string
	// File, when set, receives a copy of every entry. The previous file is rotated first.
	File string
	// Dev switches to the human readable console encoder with caller info.
	Dev bool
}

// New builds the process logger.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	if opts.Dev {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	levelName := strings.TrimSpace(opts.Level)
	if levelName == "" {
		levelName = "info"
	}
	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if path := strings.TrimSpace(opts.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		if err := RotateFile(path, rotatedRetention); err != nil {
			// 轮转失败不影响启动，继续追加写入
			fmt.Fprintf(os.Stderr, "[AppLog] rotate %s failed: %v\n", path, err)
		}
		cfg.OutputPaths = append(cfg.OutputPaths, path)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
