// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"sync"
)

// Logger defines the interface for logging operations.
// It provides methods for formatted output and output redirection.
//
// This interface supports both CLI and server modes, allowing seamless
// switching between human-readable output and structured logging.
type Logger interface {
	// Printf formats and prints a log message.
	Printf(format string, v ...any)
	// Println prints a log message with a newline.
	Println(v ...any)
	// SetOutput sets the output destination for the logger.
	SetOutput(w io.Writer)
}

// Leveled is implemented by loggers that distinguish severities.
// [Warnf] and [Errorf] use it when available.
type Leveled interface {
	Logger
	// Logf logs a message at the given level.
	Logf(level Level, format string, v ...any)
}

// Level is the severity of a structured log entry.
type Level string

// Log levels written by [JSONLogger].
const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Warnf logs a warning through l. Loggers without levels get a "warning: " prefix.
func Warnf(l Logger, format string, v ...any) { logAt(l, LevelWarn, format, v...) }

// Errorf logs an error through l. Loggers without levels get an "error: " prefix.
func Errorf(l Logger, format string, v ...any) { logAt(l, LevelError, format, v...) }

func logAt(l Logger, level Level, format string, v ...any) {
	if l == nil {
		return
	}
	if lv, ok := l.(Leveled); ok {
		lv.Logf(level, format, v...)
		return
	}
	l.Printf(plainPrefix[level]+format, v...)
}

var plainPrefix = map[Level]string{
	LevelInfo:  "",
	LevelWarn:  "warning: ",
	LevelError: "error: ",
}

// CLILogger implements Logger using the standard log package.
// It's designed for command-line interface output with human-readable formatting.
type CLILogger struct{ logger *log.Logger }

// NewCLILogger creates a new CLI logger with timestamps disabled.
// This is suitable for user-facing CLI output.
func NewCLILogger() *CLILogger {
	l := log.New(os.Stdout, "", 0)
	return &CLILogger{logger: l}
}

// Printf formats and prints a log message using fmt.Printf semantics.
func (c *CLILogger) Printf(format string, v ...any) { c.logger.Printf(format, v...) }

// Println prints a log message with a newline.
func (c *CLILogger) Println(v ...any) { c.logger.Println(v...) }

// SetOutput sets the output destination for the CLI logger.
func (c *CLILogger) SetOutput(w io.Writer) { c.logger.SetOutput(w) }

// JSONLogger implements [Leveled] by writing one JSON object per line.
// Every entry carries "level" and "message" keys plus the logger's fields.
//
// It is silent on request, which keeps stdio transports clean when no log
// destination is configured.
//
// JSONLogger is safe for concurrent use by multiple goroutines. Loggers derived
// with [JSONLogger.With] share the parent's writer and lock.
type JSONLogger struct {
	out    *sink
	fields map[string]any
}

type sink struct {
	mu     sync.Mutex
	writer io.Writer
	silent bool
}

// NewJSONLogger creates a structured logger writing to writer.
// A nil writer discards output. When silent is true nothing is written.
func NewJSONLogger(writer io.Writer, silent bool) *JSONLogger {
	if writer == nil {
		writer = io.Discard
	}
	return &JSONLogger{out: &sink{writer: writer, silent: silent}}
}

// With returns a logger that adds fields to every entry. Keys of fields
// override keys already present on j.
func (j *JSONLogger) With(fields map[string]any) *JSONLogger {
	merged := make(map[string]any, len(j.fields)+len(fields))
	maps.Copy(merged, j.fields)
	maps.Copy(merged, fields)
	return &JSONLogger{out: j.out, fields: merged}
}

// Printf logs at info level.
func (j *JSONLogger) Printf(format string, v ...any) { j.Logf(LevelInfo, format, v...) }

// Println logs at info level, formatting v like [fmt.Sprint].
func (j *JSONLogger) Println(v ...any) { j.write(LevelInfo, fmt.Sprint(v...)) }

// Logf formats and logs a message at level.
func (j *JSONLogger) Logf(level Level, format string, v ...any) {
	j.write(level, fmt.Sprintf(format, v...))
}

func (j *JSONLogger) write(level Level, msg string) {
	if j.out.silent {
		return
	}

	entry := make(map[string]any, len(j.fields)+2)
	maps.Copy(entry, j.fields)
	entry["level"] = level
	entry["message"] = msg

	data, err := json.Marshal(entry)
	if err != nil {
		data, _ = json.Marshal(map[string]any{"level": level, "message": msg})
	}

	j.out.mu.Lock()
	fmt.Fprintln(j.out.writer, string(data))
	j.out.mu.Unlock()
}

// SetOutput sets the output destination. It affects every logger derived from
// the same root.
//
// SetOutput is safe for concurrent use by multiple goroutines.
func (j *JSONLogger) SetOutput(w io.Writer) {
	j.out.mu.Lock()
	defer j.out.mu.Unlock()

	if w == nil {
		j.out.writer = io.Discard
	} else {
		j.out.writer = w
	}
}
