// Package utils
package utils

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger *zap.SugaredLogger
	once   sync.Once
)

// GetLogger returns the process-wide logger, initializing it on first use.
func GetLogger() *zap.SugaredLogger {
	once.Do(func() {
		l, err := zap.NewProduction()
		if err != nil {
			l = zap.NewNop()
		}
		logger = l.Sugar()
	})
	return logger
}

// SetLogger replaces the process-wide logger. Used by main to install a
// development logger and by tests to silence output.
func SetLogger(l *zap.Logger) {
	once.Do(func() {})
	logger = l.Sugar()
}
