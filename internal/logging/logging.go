// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging builds the zap logger used by the commands shipped
// with this module. The library packages stay log-free.
package logging

import (
	"errors"
	"os"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls where and how much the logger writes.
type Config struct {
	// Stdout enables logging to standard output.
	Stdout bool

	// File is the log file path. Empty disables file logging.
	File string

	// Level is the minimum level: debug -1, info 0 (default), warn 1, error 2.
	Level int8

	// MaxAge is the number of days to retain rotated log files.
	MaxAge int

	// MaxSize is the size in megabytes of a log file before rotation.
	MaxSize int

	// MaxBackups is the number of rotated log files to retain.
	MaxBackups int

	// Compress enables compressing rotated log files.
	Compress bool

	// JSONFormat selects the JSON encoder over the console encoder.
	JSONFormat bool
}

// ErrNoSink means the config enables neither stdout nor file logging.
var ErrNoSink = errors.New("logging: no sink configured")

// New builds a logger from the config.
func New(config Config) (*zap.Logger, error) {
	var wss []zapcore.WriteSyncer
	if config.File != "" {
		wss = append(wss, zapcore.AddSync(&lumberjack.Logger{
			Filename:   config.File,
			MaxSize:    config.MaxSize,
			MaxAge:     config.MaxAge,
			MaxBackups: config.MaxBackups,
			Compress:   config.Compress,
		}))
	}
	if config.Stdout {
		wss = append(wss, zapcore.AddSync(os.Stdout))
	}
	if len(wss) == 0 {
		return nil, ErrNoSink
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		NameKey:        "N",
		CallerKey:      "C",
		MessageKey:     "M",
		StacktraceKey:  "S",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}

	var enc zapcore.Encoder
	if config.JSONFormat {
		enc = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		enc = zapcore.NewConsoleEncoder(encoderConfig)
	}

	level := zapcore.Level(config.Level)
	switch level {
	case zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel:
	default:
		level = zapcore.InfoLevel
	}

	core := zapcore.NewCore(enc, zapcore.NewMultiWriteSyncer(wss...), level)
	return zap.New(core, zap.AddCaller()), nil
}
