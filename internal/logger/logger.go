package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds the service logger at the given level, defaulting to info
// when the level string is unknown.
func New(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(os.Stdout).
		Level(lvl).
		With().
		Timestamp().
		Caller().
		Logger()
}
