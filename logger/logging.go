package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var log = zerolog.New(zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}).With().Timestamp().Logger()

// Setup applies the configured level. Unknown levels fall back to info.
func Setup(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log = log.Level(lvl)
}

func Debug(msg string, v ...interface{}) {
	log.Debug().Msgf(msg, v...)
}

func Info(msg string, v ...interface{}) {
	log.Info().Msgf(msg, v...)
}

func Warn(msg string, v ...interface{}) {
	log.Warn().Msgf(msg, v...)
}

func Error(msg string, v ...interface{}) {
	log.Error().Msgf(msg, v...)
}

func Fatal(msg string, v ...interface{}) {
	log.Fatal().Msgf(msg, v...)
}
