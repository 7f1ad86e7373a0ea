// Package observability provides structured logging for the battle engine and its hosts.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/creaturebattle/internal/config"
)

// LoggerName is the root name attached to every logger built by NewLogger.
const LoggerName = "creaturebattle"

// NewLogger creates a structured logger from the given logging configuration.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger named LoggerName or a non-nil error.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// Dice rolls are logged at debug; sampling would drop most of a round's audit trail.
	if level == zapcore.DebugLevel {
		zapCfg.Sampling = nil
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger.Named(LoggerName), nil
}

// EncounterLogger returns a child of base tagged with the encounter and the
// species of both participants.
//
// Precondition: base must be non-nil.
func EncounterLogger(base *zap.Logger, encounterID, playerSpecies, wildSpecies string) *zap.Logger {
	return base.With(
		zap.String("encounter", encounterID),
		zap.String("player_species", playerSpecies),
		zap.String("wild_species", wildSpecies),
	)
}
