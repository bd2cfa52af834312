// Copyright (c) Arista Networks, Inc. 2024
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig selects the level, encoding and sink of the bench logger.
// Logs go to stderr unless Filename is set, in which case the file is
// rotated by size and age.
type LogConfig struct {
	Level    string `toml:"level"`
	Format   string `toml:"format"`
	Filename string `toml:"filename"`
	// MaxSize is the size in megabytes at which the file is rotated.
	MaxSize    int `toml:"max-size"`
	MaxDays    int `toml:"max-days"`
	MaxBackups int `toml:"max-backups"`
}

const (
	formatConsole = "console"
	formatJSON    = "json"
)

func (cfg *LogConfig) validate() error {
	if cfg.Level == "" {
		cfg.Level = zapcore.InfoLevel.String()
	}
	if cfg.Format == "" {
		cfg.Format = formatConsole
	}
	if _, err := cfg.getLevel(); err != nil {
		return err
	}
	if _, err := cfg.getEncoder(); err != nil {
		return err
	}
	if cfg.MaxSize < 0 || cfg.MaxDays < 0 || cfg.MaxBackups < 0 {
		return errors.Wrapf(ErrInvalidConfig, "log rotation: max-size %d, max-days %d, max-backups %d",
			cfg.MaxSize, cfg.MaxDays, cfg.MaxBackups)
	}
	return nil
}

func (cfg *LogConfig) getLevel() (zap.AtomicLevel, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return zap.AtomicLevel{}, errors.Wrapf(ErrInvalidConfig, "log level: %v", err)
	}
	return zap.NewAtomicLevelAt(level), nil
}

func (cfg *LogConfig) getEncoder() (zapcore.Encoder, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	switch cfg.Format {
	case formatJSON:
		return zapcore.NewJSONEncoder(encoderConfig), nil
	case formatConsole:
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(encoderConfig), nil
	}
	return nil, errors.Wrapf(ErrInvalidConfig, "unsupported log format: %s", cfg.Format)
}

func (cfg *LogConfig) getSyncer() zapcore.WriteSyncer {
	if cfg.Filename == "" {
		return zapcore.Lock(os.Stderr)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxDays,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
	})
}

// NewLogger builds the logger described by cfg.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	level, _ := cfg.getLevel()
	encoder, _ := cfg.getEncoder()
	core := zapcore.NewCore(encoder, cfg.getSyncer(), level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.FatalLevel)), nil
}
