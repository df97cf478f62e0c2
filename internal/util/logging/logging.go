// Copyright 2024 Alexandre Mahdhaoui
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging provides shared logging utilities for the vmpatch binaries.
// Packages log through log/slog; records are handed to a logr sink backed by zap.
package logging

import (
	"log/slog"
	"math"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures the logger behavior.
type Options struct {
	// Development enables human-readable console output.
	Development bool

	// Level sets the minimum log level. Defaults to slog.LevelInfo.
	Level slog.Level

	// OutputPaths are zap sinks. Defaults to stdout.
	OutputPaths []string
}

// DefaultOptions returns the default logging options.
func DefaultOptions() Options {
	return Options{
		Development: false,
		Level:       slog.LevelInfo,
		OutputPaths: []string{"stdout"},
	}
}

// Setup builds the zap logger, installs it as the slog default and returns its logr view.
// It must be called early in main(). The returned flush func syncs buffered entries.
func Setup(opts Options) (logr.Logger, func(), error) {
	var zapConfig zap.Config
	if opts.Development {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	zapConfig.Level = zap.NewAtomicLevelAt(ZapLevel(opts.Level))
	zapConfig.OutputPaths = []string{"stdout"}
	if len(opts.OutputPaths) > 0 {
		zapConfig.OutputPaths = opts.OutputPaths
	}

	zl, err := zapConfig.Build()
	if err != nil {
		return logr.Discard(), func() {}, err
	}

	logger := zapr.NewLoggerWithOptions(zl, zapr.LogInfoLevel("v"))
	slog.SetDefault(slog.New(logr.ToSlogHandler(logger)))

	return logger, func() { _ = zl.Sync() }, nil
}

// ZapLevel maps a slog level to zap. Levels below info are kept as is: zapr hands slog.LevelDebug records to zap at
// level -4, i.e. logr's V(4).
func ZapLevel(l slog.Level) zapcore.Level {
	switch {
	case l < slog.LevelInfo:
		return zapcore.Level(max(l, slog.Level(math.MinInt8)))
	case l == slog.LevelInfo:
		return zapcore.InfoLevel
	case l <= slog.LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// ParseLevel parses "debug", "info", "warn" or "error". The empty string is slog.LevelInfo.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}

	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}

	return l, nil
}
