package services

import (
	"learnapp/internal/config"
	"learnapp/internal/observability"
)

func testLogger() *observability.Logger {
	return observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
}
