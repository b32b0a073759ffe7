// Package logger configures the process-wide zerolog logger. Every sink is a
// zerolog.LevelWriter so filtering happens on the event level, not on text.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Service is stamped on every shipped event.
const Service = "duplexsplit"

// Options defines logger initialization parameters.
type Options struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// Console receives the human or JSON stream. Defaults to stderr so a CLI's
	// stdout stays reserved for its result.
	Console io.Writer

	SendToAxiom  bool
	AxiomAPIKey  string
	AxiomOrgID   string
	AxiomDataset string
	AxiomFlush   time.Duration
}

var (
	global  zerolog.Logger
	shipped *shipper
)

// Init replaces the global logger. A previous Axiom shipper is flushed first.
func Init(opts Options) error {
	Close()

	sinks := []io.Writer{consoleSink(opts)}

	if opts.File != "" {
		fs, err := fileSink(opts)
		if err != nil {
			return err
		}
		sinks = append(sinks, fs)
	}

	if opts.SendToAxiom && opts.AxiomAPIKey != "" {
		s, err := newShipper(opts.AxiomAPIKey, opts.AxiomOrgID, opts.AxiomDataset, opts.AxiomFlush)
		if err != nil {
			fmt.Fprintf(os.Stderr, "axiom disabled: %v\n", err)
		} else {
			shipped = s
			sinks = append(sinks, s)
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339
	global = zerolog.New(zerolog.MultiLevelWriter(sinks...)).
		Level(parseLevel(opts.Level)).
		With().Timestamp().Logger()
	log.Logger = global
	return nil
}

func consoleSink(opts Options) io.Writer {
	out := opts.Console
	if out == nil {
		out = os.Stderr
	}
	if opts.Pretty {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	return out
}

func fileSink(opts Options) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, fmt.Errorf("create logs dir: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}, nil
}

func parseLevel(s string) zerolog.Level {
	if s == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Close flushes and stops the Axiom shipper, if any.
func Close() {
	if shipped != nil {
		shipped.Close()
		shipped = nil
	}
}

// Get returns the global logger.
func Get() *zerolog.Logger { return &global }
