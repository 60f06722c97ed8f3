// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration.
type Config struct {
	Level  string
	Format string
	// File, when set, additionally writes logs to a rotating file.
	File string
}

// Setup configures the global logger and returns a closer for the log file, if any.
func Setup(cfg Config) io.Closer {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var console io.Writer = os.Stdout
	if strings.EqualFold(cfg.Format, "console") {
		console = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	var closer io.Closer = nopCloser{}
	writer := console
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   false,
		}
		writer = zerolog.MultiLevelWriter(console, file)
		closer = file
	}

	log.Logger = zerolog.New(writer).With().Timestamp().Str("service", "itera-chatbot").Logger()
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
