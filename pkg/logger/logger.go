// Package logger builds the application-wide zap logger.
package logger

import (
	"log"

	"go.uber.org/zap"
)

// New creates a zap logger tuned for the given environment: human-readable
// debug output for local development, JSON at info level otherwise.
func New(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)

	switch env {
	case "local", "development":
		logger, err = zap.NewDevelopment()
	default:
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("cannot initialize zap logger: %s", err)
	}

	return logger
}
