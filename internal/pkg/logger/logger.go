package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Fields is an alias so callers don't need to import logrus directly
type Fields = logrus.Fields

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}

// SetLevel changes the global logging level ("debug", "info", "warn", "error")
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
}

// UseJSON switches the formatter to JSON output (for production)
func UseJSON() {
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
}

// Package-level helpers for easy access
func Debug(format string, v ...interface{}) { log.Debugf(format, v...) }
func Info(format string, v ...interface{})  { log.Infof(format, v...) }
func Warn(format string, v ...interface{})  { log.Warnf(format, v...) }
func Error(format string, v ...interface{}) { log.Errorf(format, v...) }
func Fatal(format string, v ...interface{}) { log.Fatalf(format, v...) }

// WithFields returns a structured entry for contextual logging
func WithFields(fields Fields) *logrus.Entry {
	return log.WithFields(fields)
}
