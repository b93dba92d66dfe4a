// Package logging builds the zap logger shared by the server and the admin CLI.
package logging

import (
	"os"

	"go.uber.org/zap"
)

// GetSugaredLogger returns a development logger. LOG_LEVEL (debug, info, warn, error)
// raises or lowers the threshold; an unparsable value is ignored.
func GetSugaredLogger() *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	if lvl, ok := os.LookupEnv("LOG_LEVEL"); ok {
		if level, err := zap.ParseAtomicLevel(lvl); err == nil {
			cfg.Level = level
		}
	}

	logger, err := cfg.Build()
	if err != nil {
		panic("cannot initialize zap")
	}

	return logger.Sugar().Named("refund-desk")
}
