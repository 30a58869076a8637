package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// Logger writes levelled key/value lines and redacts credentials unless it
// runs in development mode at DEBUG level.
type Logger struct {
	mu     sync.RWMutex
	level  LogLevel
	logger *log.Logger
	isDev  bool
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Initialize sets up the default logger instance
func Initialize(level LogLevel, isDev bool) {
	once.Do(func() {
		defaultLogger = New(os.Stdout, level, isDev)
	})
}

// New builds a standalone logger, mostly useful in tests.
func New(w io.Writer, level LogLevel, isDev bool) *Logger {
	return &Logger{
		level:  level,
		logger: log.New(w, "", log.LstdFlags),
		isDev:  isDev,
	}
}

// GetLogger returns the default logger instance
func GetLogger() *Logger {
	if defaultLogger == nil {
		Initialize(INFO, false)
	}
	return defaultLogger
}

// SetLevel updates the log level
func SetLevel(level LogLevel) {
	GetLogger().SetLevel(level)
}

func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func redactEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" {
		return "****"
	}
	if len(local) <= 2 {
		return "****@" + domain
	}
	return local[0:1] + "****" + local[len(local)-1:] + "@" + domain
}

func truncateSecret(id string) string {
	if len(id) <= 8 {
		return "****"
	}
	return id[:4] + "****"
}

// redactValue hides sensitive values based on the key name
func redactValue(key string, value interface{}) interface{} {
	keyLower := strings.ToLower(key)
	valueStr := fmt.Sprintf("%v", value)

	switch {
	case strings.Contains(keyLower, "password"):
		return "[REDACTED]"
	case strings.Contains(keyLower, "session"), strings.Contains(keyLower, "csrf"), strings.Contains(keyLower, "token"):
		return truncateSecret(valueStr)
	case strings.Contains(keyLower, "email"), strings.Contains(keyLower, "recipient"):
		return redactEmail(valueStr)
	}
	return value
}

func (l *Logger) formatMessage(level LogLevel, msg string, keysAndValues ...interface{}) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("[%s] %s", levelNames[level], msg))

	if len(keysAndValues) > 0 {
		redact := !l.isDev || l.level > DEBUG
		builder.WriteString(" {")
		for i := 0; i < len(keysAndValues); i += 2 {
			if i > 0 {
				builder.WriteString(",")
			}

			key := fmt.Sprintf("%v", keysAndValues[i])
			var value interface{} = ""
			if i+1 < len(keysAndValues) {
				value = keysAndValues[i+1]
			}
			if redact {
				value = redactValue(key, value)
			}

			builder.WriteString(fmt.Sprintf(" %s=%v", key, value))
		}
		builder.WriteString(" }")
	}

	return builder.String()
}

func (l *Logger) shouldLog(level LogLevel) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.level
}

func (l *Logger) log(level LogLevel, msg string, keysAndValues ...interface{}) {
	if l.shouldLog(level) {
		l.logger.Println(l.formatMessage(level, msg, keysAndValues...))
	}
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) { l.log(DEBUG, msg, keysAndValues...) }
func (l *Logger) Info(msg string, keysAndValues ...interface{})  { l.log(INFO, msg, keysAndValues...) }
func (l *Logger) Warn(msg string, keysAndValues ...interface{})  { l.log(WARN, msg, keysAndValues...) }
func (l *Logger) Error(msg string, keysAndValues ...interface{}) { l.log(ERROR, msg, keysAndValues...) }

// Package-level convenience functions

func Debug(msg string, keysAndValues ...interface{}) { GetLogger().Debug(msg, keysAndValues...) }
func Info(msg string, keysAndValues ...interface{})  { GetLogger().Info(msg, keysAndValues...) }
func Warn(msg string, keysAndValues ...interface{})  { GetLogger().Warn(msg, keysAndValues...) }
func Error(msg string, keysAndValues ...interface{}) { GetLogger().Error(msg, keysAndValues...) }

// ParseLevel converts a string to a LogLevel, defaulting to INFO.
func ParseLevel(level string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}
