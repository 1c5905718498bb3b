package main

import (
	"fmt"
	"log/slog"
)

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

func (l *slogGooseLogger) log() *slog.Logger {
	if l.logger == nil {
		return slog.Default()
	}
	return l.logger
}

// Printf forwards goose progress messages at info level.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.log().Info(fmt.Sprintf(format, v...), "component", "goose")
}

// Fatalf logs at error level. Unlike goose's default logger it does not
// exit; the failure is returned to main.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.log().Error(fmt.Sprintf(format, v...), "component", "goose")
}
