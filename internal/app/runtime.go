package app

import (
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// TestModeEnv is set to "1" by the testing package.
const TestModeEnv = "ODYSSEY_TEST_MODE"

var testMode struct {
	once sync.Once
	on   atomic.Bool
}

func loadTestMode() {
	testMode.on.Store(os.Getenv(TestModeEnv) == "1")
}

// InTestMode reports whether binaries should skip listeners, workers and
// backing-service connections.
func InTestMode() bool {
	testMode.once.Do(loadTestMode)
	return testMode.on.Load()
}

// RefreshTestMode re-reads TestModeEnv after the environment changed.
func RefreshTestMode() {
	testMode.once.Do(func() {})
	loadTestMode()
}

// SkipRuntime reports whether component must not start, logging the decision.
func SkipRuntime(logger *slog.Logger, component string) bool {
	if !InTestMode() {
		return false
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("test mode detected, skipping startup", slog.String("component", component))
	return true
}
