package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. An explicit level wins over the env default.
func New(env, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	var l zerolog.Logger
	if env == "dev" {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
		l = l.Level(zerolog.DebugLevel)
	} else {
		l = zerolog.New(os.Stdout).With().Timestamp().Logger()
		l = l.Level(zerolog.InfoLevel)
	}
	if level != "" {
		if lvl, err := zerolog.ParseLevel(level); err == nil {
			l = l.Level(lvl)
		}
	}
	return l
}
