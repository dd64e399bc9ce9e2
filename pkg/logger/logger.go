// Package logger provides component-scoped structured logging on top of zap.
//
// Call sites name the component they log for and pass optional fields:
//
//	logger.InfoCF("telegram", "Bot connected", map[string]any{"username": name})
package logger

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var current atomic.Pointer[zap.Logger]

func init() {
	l, err := build("info", "console")
	if err != nil {
		l = zap.NewNop()
	}
	current.Store(l)
}

// Init replaces the process logger. level is one of debug, info, warn, error;
// format is console or json.
func Init(level, format string) error {
	l, err := build(level, format)
	if err != nil {
		return err
	}
	prev := current.Swap(l)
	_ = prev.Sync()
	return nil
}

// SetLogger installs l and returns a func that restores the previous logger.
func SetLogger(l *zap.Logger) (restore func()) {
	prev := current.Swap(l)
	return func() { current.Store(prev) }
}

func Sync() error {
	return current.Load().Sync()
}

func build(level, format string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if s := strings.TrimSpace(level); s != "" {
		parsed, err := zapcore.ParseLevel(strings.ToLower(s))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var enc zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console", "text":
		enc = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log format: %s", format)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), lvl)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2)), nil
}

func logC(lvl zapcore.Level, component, msg string, fields map[string]any) {
	ce := current.Load().Check(lvl, msg)
	if ce == nil {
		return
	}
	zf := make([]zap.Field, 0, len(fields)+1)
	zf = append(zf, zap.String("component", component))

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		zf = append(zf, zap.Any(k, fields[k]))
	}
	ce.Write(zf...)
}

func DebugC(component, msg string) { logC(zapcore.DebugLevel, component, msg, nil) }
func InfoC(component, msg string)  { logC(zapcore.InfoLevel, component, msg, nil) }
func WarnC(component, msg string)  { logC(zapcore.WarnLevel, component, msg, nil) }
func ErrorC(component, msg string) { logC(zapcore.ErrorLevel, component, msg, nil) }

func DebugCF(component, msg string, fields map[string]any) {
	logC(zapcore.DebugLevel, component, msg, fields)
}

func InfoCF(component, msg string, fields map[string]any) {
	logC(zapcore.InfoLevel, component, msg, fields)
}

func WarnCF(component, msg string, fields map[string]any) {
	logC(zapcore.WarnLevel, component, msg, fields)
}

func ErrorCF(component, msg string, fields map[string]any) {
	logC(zapcore.ErrorLevel, component, msg, fields)
}
