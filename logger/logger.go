// Package logger holds the process-wide zap logger.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu      sync.RWMutex
	sugared = zap.NewNop().Sugar()
)

// Init builds the global logger. Development mode uses the console encoder,
// anything else the production JSON encoder.
func Init(env string) error {
	var (
		base *zap.Logger
		err  error
	)
	if env == "development" {
		base, err = zap.NewDevelopment()
	} else {
		base, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	Set(base)
	return nil
}

// Set replaces the global logger. Tests use it with zaptest or zap.NewNop.
func Set(l *zap.Logger) {
	mu.Lock()
	sugared = l.Sugar()
	mu.Unlock()
}

// L returns the global sugared logger.
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugared
}

// Sync flushes buffered log entries.
func Sync() {
	_ = L().Sync()
}
