// Package cli holds the start-up steps shared by the ledger binaries.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ledger/internal/config"
	"ledger/internal/log"
)

// LoadEnvFile loads .env for local development. A missing file is not an
// error; production sets real environment variables.
func LoadEnvFile(filenames ...string) {
	_ = godotenv.Load(filenames...)
}

// Bootstrap loads and validates configuration, then installs the default
// logger for component according to LOG_LEVEL and LOG_FORMAT.
func Bootstrap(component string) (*config.Config, *log.Logger, error) {
	LoadEnvFile()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := log.Setup(cfg.LogLevel, cfg.LogFormat, component)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
