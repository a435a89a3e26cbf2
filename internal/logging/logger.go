// Package logging wraps zap with the component-tagged, colorized console
// encoder the rest of the service's packages build on, following the
// conventions of the repo this project was split out of.
package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ANSI color codes used by the console encoder.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	Gray    = "\033[90m"

	BrightRed    = "\033[91m"
	BrightGreen  = "\033[92m"
	BrightYellow = "\033[93m"
	BrightBlue   = "\033[94m"
	BrightWhite  = "\033[97m"
)

// Component tags a logger with the subsystem that owns it.
type Component string

const (
	ComponentWriter     Component = "WRITER"
	ComponentReader     Component = "READER"
	ComponentRunner     Component = "RUNNER"
	ComponentStore      Component = "STORE"
	ComponentHTTP       Component = "HTTP"
	ComponentLRU        Component = "LRU"
	ComponentEngine     Component = "ENGINE"
	ComponentDispatcher Component = "DISPATCHER"
)

func componentColor(c Component) string {
	switch c {
	case ComponentWriter:
		return BrightYellow
	case ComponentReader:
		return BrightBlue
	case ComponentRunner:
		return BrightGreen
	case ComponentStore:
		return Magenta
	case ComponentHTTP:
		return Cyan
	case ComponentLRU:
		return Gray
	case ComponentEngine:
		return Blue
	default:
		return BrightWhite
	}
}

func levelColor(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return Gray
	case zapcore.InfoLevel:
		return BrightWhite
	case zapcore.WarnLevel:
		return BrightYellow
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return BrightRed
	default:
		return BrightWhite
	}
}

func coloredConsoleEncoder(enableColors bool) zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		ts := t.Format("2006-01-02T15:04:05.000Z0700")
		if enableColors {
			enc.AppendString(fmt.Sprintf("%s%s%s", Dim, ts, Reset))
		} else {
			enc.AppendString(ts)
		}
	}
	cfg.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		levelStr := strings.ToUpper(level.String())
		if enableColors {
			enc.AppendString(fmt.Sprintf("%s%s%-5s%s", levelColor(level), Bold, levelStr, Reset))
		} else {
			enc.AppendString(fmt.Sprintf("%-5s", levelStr))
		}
	}
	return zapcore.NewConsoleEncoder(cfg)
}

// Config selects the logger's output shape.
type Config struct {
	// Development switches to the human-readable colored console encoder.
	// Production uses JSON, matching the shape Prometheus-adjacent scraping
	// and log aggregation expect.
	Development bool
	// EnableColors only applies when Development is true.
	EnableColors bool
}

// New builds a *zap.Logger tagged with the given component, with caller
// annotation so file:line point at the logging call site.
func New(component Component, cfg Config) (*zap.Logger, error) {
	var core zapcore.Core
	if cfg.Development {
		core = zapcore.NewCore(
			coloredConsoleEncoder(cfg.EnableColors),
			zapcore.AddSync(os.Stdout),
			zapcore.DebugLevel,
		)
	} else {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		core = zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.AddSync(os.Stdout),
			zapcore.InfoLevel,
		)
	}

	logger := zap.New(core, zap.AddCaller()).With(zap.String("component", string(component)))
	return logger, nil
}
