// Copyright 2026 Anapaya Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log is a thin wrapper around zap that logs messages with key/value
// context:
//
//	log.Info("Class created", "class", name, "parent", parent)
//
// The root logger discards everything until Setup is called.
package log

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/scionproto/hfsc/pkg/private/serrors"
)

// Level of a log entry.
type Level zapcore.Level

const (
	DebugLevel = Level(zapcore.DebugLevel)
	InfoLevel  = Level(zapcore.InfoLevel)
	ErrorLevel = Level(zapcore.ErrorLevel)
)

// Logger describes the logger interface.
type Logger interface {
	New(ctx ...any) Logger
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Enabled(lvl Level) bool
}

var (
	root      atomic.Pointer[logger]
	zapLevel  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	setupDone atomic.Bool
)

func init() {
	root.Store(&logger{logger: zap.NewNop()})
}

// Setup configures the root logger according to cfg. It must only be called
// once, subsequent calls return an error.
func Setup(cfg Config, opts ...Option) error {
	cfg.InitDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !setupDone.CompareAndSwap(false, true) {
		return serrors.New("logging already set up")
	}
	o := applyOptions(opts)

	lvl, err := ParseLevel(cfg.Console.Level)
	if err != nil {
		return err
	}
	zapLevel.SetLevel(zapcore.Level(lvl))

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	var enc zapcore.Encoder
	if cfg.Console.Format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	w := o.writer
	if w == nil {
		w = zapcore.Lock(os.Stderr)
	}
	core := zapcore.NewCore(enc, w, zapLevel)
	zapOpts := append(o.zapOptions(), zap.AddCallerSkip(1))
	if !cfg.Console.DisableCaller {
		zapOpts = append(zapOpts, zap.AddCaller())
	}
	zl := zap.New(core, zapOpts...)
	root.Store(&logger{logger: zl})
	zap.RedirectStdLog(zl)
	return nil
}

// ParseLevel parses the case insensitive level name.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, serrors.New("unknown log level", "level", s)
	}
}

func (l Level) String() string {
	return zapcore.Level(l).String()
}

// SetLevel changes the level of the root logger at runtime.
func SetLevel(lvl Level) {
	zapLevel.SetLevel(zapcore.Level(lvl))
}

// Flush writes the buffered log entries.
func Flush() {
	_ = root.Load().logger.Sync()
}

// HandlePanic catches panics and logs them. It re-panics after logging, so it
// must be deferred at the top of a goroutine.
func HandlePanic() {
	if msg := recover(); msg != nil {
		root.Load().logger.Error("Panic", zap.Any("msg", msg),
			zap.String("stack", string(debug.Stack())))
		Flush()
		panic(msg)
	}
}

type logger struct {
	logger *zap.Logger
}

// New creates a logger with the given context.
func New(ctx ...any) Logger {
	return root.Load().New(ctx...)
}

// Root returns the root logger. It's a logger without any context.
func Root() Logger {
	return root.Load()
}

// Discard returns a logger that drops every entry.
func Discard() Logger {
	return &logger{logger: zap.NewNop()}
}

func (l *logger) New(ctx ...any) Logger {
	return &logger{logger: l.logger.With(convertCtx(ctx)...)}
}

func (l *logger) Debug(msg string, ctx ...any) {
	l.logger.Debug(msg, convertCtx(ctx)...)
}

func (l *logger) Info(msg string, ctx ...any) {
	l.logger.Info(msg, convertCtx(ctx)...)
}

func (l *logger) Error(msg string, ctx ...any) {
	l.logger.Error(msg, convertCtx(ctx)...)
}

func (l *logger) Enabled(lvl Level) bool {
	return l.logger.Core().Enabled(zapcore.Level(lvl))
}

// Debug logs at debug level on the root logger.
func Debug(msg string, ctx ...any) {
	root.Load().logger.Debug(msg, convertCtx(ctx)...)
}

// Info logs at info level on the root logger.
func Info(msg string, ctx ...any) {
	root.Load().logger.Info(msg, convertCtx(ctx)...)
}

// Error logs at error level on the root logger.
func Error(msg string, ctx ...any) {
	root.Load().logger.Error(msg, convertCtx(ctx)...)
}

func convertCtx(ctx []any) []zap.Field {
	fields := make([]zap.Field, 0, len(ctx)/2)
	for i := 0; i+1 < len(ctx); i += 2 {
		key, ok := ctx[i].(string)
		if !ok {
			key = fmt.Sprint(ctx[i])
		}
		fields = append(fields, zap.Any(key, ctx[i+1]))
	}
	return fields
}
