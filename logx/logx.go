// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package logx wires github.com/luxfi/log's Logger contract to an actual
// sink. The upstream module ships a no-op implementation (see log/nolog.go
// in the material this repository was grounded on) but no console logger;
// logx supplies the one every long-lived component (orchestrator, election,
// agreement, node driver) is constructed with, by embedding the no-op
// logger for the full interface surface and overriding only the handful of
// methods this module's components actually call.
package logx

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/luxfi/log"
)

// Level is the subset of levels this module's own components log at.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps the §6 --log-level strings onto a Level, defaulting to
// Info on anything unrecognized.
func ParseLevel(s string) Level {
	switch s {
	case "DEBUG":
		return LevelDebug
	case "WARNING", "WARN":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// consoleLogger embeds the upstream no-op logger so it satisfies the full
// log.Logger surface, and overrides the leveled-write and derivation
// methods to actually format and emit key=value lines to out.
type consoleLogger struct {
	log.Logger
	mu     *sync.Mutex
	out    io.Writer
	level  Level
	prefix string
}

// New returns a log.Logger writing to w at the given level.
func New(w io.Writer, level Level) log.Logger {
	if w == nil {
		w = os.Stdout
	}
	return &consoleLogger{Logger: log.NewNoOpLogger(), mu: &sync.Mutex{}, out: w, level: level}
}

// NewFile opens (truncating) path and returns a log.Logger writing to it.
func NewFile(path string, level Level) (log.Logger, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return New(f, level), nil
}

// NoOp returns a logger that discards everything, for tests and
// benchmarks, matching the teacher's log.NewNoOpLogger() call sites.
func NoOp() log.Logger {
	return log.NewNoOpLogger()
}

func (l *consoleLogger) write(level, msg string, ctx []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "%s | %5s | [%s] %s%s\n",
		time.Now().Format("15:04:05.000"), level, l.prefix, msg, formatFields(ctx))
}

func formatFields(ctx []interface{}) string {
	if len(ctx) == 0 {
		return ""
	}
	s := ""
	for i := 0; i+1 < len(ctx); i += 2 {
		s += fmt.Sprintf(" %v=%v", ctx[i], ctx[i+1])
	}
	return s
}

func (l *consoleLogger) named(ctx []interface{}) log.Logger {
	suffix := formatFields(ctx)
	prefix := l.prefix
	if suffix != "" {
		if prefix != "" {
			prefix += ","
		}
		prefix += suffix[1:]
	}
	return &consoleLogger{Logger: l.Logger, mu: l.mu, out: l.out, level: l.level, prefix: prefix}
}

func (l *consoleLogger) New(ctx ...interface{}) log.Logger { return l.named(ctx) }

func (l *consoleLogger) Debug(msg string, ctx ...interface{}) {
	if l.level <= LevelDebug {
		l.write("DEBUG", msg, ctx)
	}
}
func (l *consoleLogger) Info(msg string, ctx ...interface{}) {
	if l.level <= LevelInfo {
		l.write("INFO", msg, ctx)
	}
}
func (l *consoleLogger) Warn(msg string, ctx ...interface{}) {
	if l.level <= LevelWarn {
		l.write("WARN", msg, ctx)
	}
}
func (l *consoleLogger) Error(msg string, ctx ...interface{}) { l.write("ERROR", msg, ctx) }

func (l *consoleLogger) Fatal(msg string, ctx ...interface{}) {
	l.write("FATAL", msg, ctx)
	os.Exit(1)
}

func (l *consoleLogger) Verbo(msg string, ctx ...interface{}) {
	if l.level <= LevelDebug {
		l.write("VERBO", msg, ctx)
	}
}
