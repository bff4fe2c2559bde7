package logger

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level represents the severity of a log message
type Level int

const (
	// LevelDebug for detailed troubleshooting
	LevelDebug Level = iota
	// LevelInfo for general operational entries
	LevelInfo
	// LevelWarn for non-critical issues
	LevelWarn
	// LevelError for errors that should be addressed
	LevelError
)

var (
	// Default logger
	logger   = newLogger(os.Stdout)
	logLevel = LevelInfo
)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05",
	})
	l.SetLevel(logrus.DebugLevel)
	return l
}

// Initialize sets up the logger with the specified level
func Initialize(level string) {
	logger = newLogger(os.Stdout)
	setLogLevel(level)
}

// SetOutput redirects log output
func SetOutput(out io.Writer) {
	logger.SetOutput(out)
}

// setLogLevel sets the log level from a string
func setLogLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		logLevel = LevelDebug
	case "info":
		logLevel = LevelInfo
	case "warn":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		logLevel = LevelInfo
	}
}

// logMessage logs a message with the given level
func logMessage(level Level, format string, v ...interface{}) {
	if level < logLevel {
		return
	}

	message := fmt.Sprintf(format, v...)
	switch level {
	case LevelDebug:
		logger.Debug(message)
	case LevelInfo:
		logger.Info(message)
	case LevelWarn:
		logger.Warn(message)
	case LevelError:
		logger.Error(message)
	}
}

// Debug logs a debug message
func Debug(format string, v ...interface{}) {
	logMessage(LevelDebug, format, v...)
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	logMessage(LevelInfo, format, v...)
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	logMessage(LevelWarn, format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	logMessage(LevelError, format, v...)
}

// ErrorWithStack logs an error with a stack trace
func ErrorWithStack(err error) {
	if err == nil {
		return
	}
	logMessage(LevelError, "%v\n%s", err, debug.Stack())
}

// WithFields returns an entry carrying structured fields. The entry does not
// honour the level set by Initialize; callers should use it for info and above.
func WithFields(fields map[string]interface{}) *logrus.Entry {
	return logger.WithFields(logrus.Fields(fields))
}

// RequestLog logs details of an HTTP request
func RequestLog(method, url, remoteAddr, body string) {
	Debug("HTTP Request: %s %s", method, url)
	if remoteAddr != "" {
		Debug("Remote Address: %s", remoteAddr)
	}
	if body != "" {
		Debug("Request Body: %s", body)
	}
}

// ResponseLog logs details of an HTTP response
func ResponseLog(statusCode int, url, body string) {
	Debug("HTTP Response: Status %d for %s", statusCode, url)
	if body != "" {
		Debug("Response Body: %s", body)
	}
}

// StatementLog logs a SQL statement together with its description
func StatementLog(description, query string, args []interface{}) {
	Debug("SQL: %s", description)
	Debug("Statement: %s", query)
	if len(args) > 0 {
		Debug("Arguments: %v", args)
	}
}
