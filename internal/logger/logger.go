package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// String returns the string representation of the log level
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLevel converts a string to a Level, defaulting to INFO
func ParseLevel(s string) Level {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for level, name := range levelNames {
		if name == upper {
			return level
		}
	}
	return INFO
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// F is a shorthand for creating a Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Config holds logger configuration
type Config struct {
	Level      Level  // Minimum log level
	FilePath   string // Path to log file, empty disables file output
	MaxSize    int64  // Max size in bytes before rotation
	MaxAge     int    // Max age in days
	MaxBackups int    // Max number of rotated files kept
	Console    bool   // Mirror entries to stderr
}

// DefaultConfig returns default logger configuration
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Level:      INFO,
		FilePath:   filepath.Join(home, ".irontrack", "logs", "irontrack.log"),
		MaxSize:    10 * 1024 * 1024,
		MaxAge:     7,
		MaxBackups: 5,
		Console:    false,
	}
}

// output is shared by a logger and every child made with WithFields
type output struct {
	mu      sync.Mutex
	config  Config
	file    *os.File
	writers []io.Writer
}

// Logger writes leveled entries with optional preset fields
type Logger struct {
	out    *output
	fields []Field
}

var (
	globalLogger *Logger
	once         sync.Once
)

// Init initializes the global logger once
func Init(config Config) error {
	var err error
	once.Do(func() {
		globalLogger, err = New(config)
	})
	return err
}

// New creates a logger writing to the configured file and, optionally, stderr
func New(config Config) (*Logger, error) {
	out := &output{config: config}

	if config.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		if err := out.openFile(); err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		if err := out.rotateIfNeeded(); err != nil {
			return nil, err
		}
	}
	if config.Console {
		out.writers = append(out.writers, os.Stderr)
	}

	return &Logger{out: out}, nil
}

// NewWriter creates a logger writing only to w
func NewWriter(level Level, w io.Writer) *Logger {
	return &Logger{out: &output{config: Config{Level: level}, writers: []io.Writer{w}}}
}

func (o *output) openFile() error {
	file, err := os.OpenFile(o.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	o.file = file
	o.writers = []io.Writer{file}
	if o.config.Console {
		o.writers = append(o.writers, os.Stderr)
	}
	return nil
}

// rotateIfNeeded rotates when the file is too large or too old. Callers hold
// o.mu or own o exclusively.
func (o *output) rotateIfNeeded() error {
	if o.file == nil {
		return nil
	}

	info, err := o.file.Stat()
	if err != nil {
		return err
	}

	tooBig := o.config.MaxSize > 0 && info.Size() >= o.config.MaxSize
	tooOld := o.config.MaxAge > 0 && time.Since(info.ModTime()) > time.Duration(o.config.MaxAge)*24*time.Hour
	if tooBig || tooOld {
		return o.rotate()
	}
	return nil
}

func (o *output) rotate() error {
	_ = o.file.Close()

	for i := o.config.MaxBackups - 1; i >= 1; i-- {
		_ = os.Rename(fmt.Sprintf("%s.%d", o.config.FilePath, i), fmt.Sprintf("%s.%d", o.config.FilePath, i+1))
	}
	if _, err := os.Stat(o.config.FilePath); err == nil {
		if err := os.Rename(o.config.FilePath, o.config.FilePath+".1"); err != nil {
			return err
		}
	}

	return o.openFile()
}

func (l *Logger) log(level Level, msg string, fields []Field) {
	if l == nil || level < l.out.config.Level {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	caller := "???"
	if ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s %s: %s", time.Now().Format("2006-01-02 15:04:05.000"), level, caller, msg)
	all := append(append([]Field{}, l.fields...), fields...)
	if len(all) > 0 {
		b.WriteString(" |")
		for _, f := range all {
			fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
		}
	}
	b.WriteByte('\n')

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	_ = l.out.rotateIfNeeded()
	for _, w := range l.out.writers {
		_, _ = io.WriteString(w, b.String())
	}
}

// WithFields creates a child logger with preset fields
func (l *Logger) WithFields(fields ...Field) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{
		out:    l.out,
		fields: append(append([]Field{}, l.fields...), fields...),
	}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Field) { l.log(DEBUG, msg, fields) }

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Field) { l.log(INFO, msg, fields) }

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Field) { l.log(WARN, msg, fields) }

// Error logs an error message
func (l *Logger) Error(msg string, fields ...Field) { l.log(ERROR, msg, fields) }

// Close closes the log file
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	if l.out.file != nil {
		return l.out.file.Close()
	}
	return nil
}

// Default returns the global logger, which is nil (and silent) before Init
func Default() *Logger {
	return globalLogger
}

// Global logger functions

// Debug logs a debug message using the global logger
func Debug(msg string, fields ...Field) { globalLogger.log(DEBUG, msg, fields) }

// Info logs an info message using the global logger
func Info(msg string, fields ...Field) { globalLogger.log(INFO, msg, fields) }

// Warn logs a warning message using the global logger
func Warn(msg string, fields ...Field) { globalLogger.log(WARN, msg, fields) }

// Error logs an error message using the global logger
func Error(msg string, fields ...Field) { globalLogger.log(ERROR, msg, fields) }

// WithFields creates a child of the global logger
func WithFields(fields ...Field) *Logger {
	return globalLogger.WithFields(fields...)
}

// Close closes the global logger
func Close() error {
	return globalLogger.Close()
}
