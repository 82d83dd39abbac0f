// Package logger provides structured logging for ForgeSyte.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log is the global logger instance.
var Log zerolog.Logger

// Initialize sets up the global logger with the given level and output format.
func Initialize(level string, pretty bool) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	}

	Log = log.With().
		Str("service", "forgesyte").
		Logger()

	Log.Info().
		Str("level", logLevel.String()).
		Bool("pretty", pretty).
		Msg("logger initialized")
}

// GetLogger returns the global logger instance.
func GetLogger() *zerolog.Logger {
	return &Log
}

func component(name string) *zerolog.Logger {
	l := Log.With().Str("component", name).Logger()
	return &l
}

// Registry returns the plugin registry component logger.
func Registry() *zerolog.Logger { return component("registry") }

// Jobs returns the job store / worker pool component logger.
func Jobs() *zerolog.Logger { return component("jobs") }

// Pipeline returns the DAG pipeline engine component logger.
func Pipeline() *zerolog.Logger { return component("pipeline") }

// MCP returns the MCP transport component logger.
func MCP() *zerolog.Logger { return component("mcp") }

// Streaming returns the streaming channel component logger.
func Streaming() *zerolog.Logger { return component("streaming") }

// HTTP returns the HTTP request component logger.
func HTTP() *zerolog.Logger { return component("http") }

// Events returns the event publisher component logger.
func Events() *zerolog.Logger { return component("events") }
