// Package printer hands finished phase files to the operating system's print
// command. It never interprets the printer name; it is passed through as given.
package printer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/duplexsplit/internal/metrics"
	"github.com/local/duplexsplit/internal/processor"
)

// Phase is one of the two physical print passes.
type Phase string

const (
	Phase1 Phase = "phase1" // odd pages
	Phase2 Phase = "phase2" // even pages, after the stack is reinserted
)

// ErrNothingToPrint is returned when the phase's group has no pages.
var ErrNothingToPrint = errors.New("nothing to print")

func ParsePhase(s string) (Phase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "phase1", "1", "odd":
		return Phase1, nil
	case "phase2", "2", "even":
		return Phase2, nil
	}
	return "", fmt.Errorf("unknown phase %q (want phase1 or phase2)", s)
}

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

type Options struct {
	// PrinterName selects a printer; empty uses the system default.
	PrinterName string
	// GOOS overrides runtime.GOOS when building commands.
	GOOS    string
	Timeout time.Duration
	Run     Runner
}

type Printer struct {
	opts Options
}

func New(opts Options) *Printer {
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Run == nil {
		opts.Run = execRunner
	}
	return &Printer{opts: opts}
}

// Command builds the print invocation for goos.
func Command(goos, path, printerName string) (string, []string, error) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		if printerName != "" {
			return "lp", []string{"-d", printerName, path}, nil
		}
		return "lp", []string{path}, nil
	case "darwin":
		if printerName != "" {
			return "lpr", []string{"-P", printerName, path}, nil
		}
		return "lpr", []string{path}, nil
	case "windows":
		ps := "Start-Process -FilePath " + psQuote(path) + " -Verb Print"
		if printerName != "" {
			ps = "Start-Process -FilePath " + psQuote(path) + " -Verb PrintTo -ArgumentList " + psQuote(`"`+printerName+`"`)
		}
		return "powershell", []string{"-NoProfile", "-Command", ps}, nil
	}
	return "", nil, fmt.Errorf("printing not supported on %s", goos)
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Print sends path to the printer.
func (p *Printer) Print(ctx context.Context, path string) error {
	name, args, err := Command(p.opts.GOOS, path, p.opts.PrinterName)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	out, err := p.opts.Run(ctx, name, args...)
	if err != nil {
		return fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	log.Info().Str("file", path).Str("printer", p.opts.PrinterName).Str("cmd", name).Msg("print job sent")
	return nil
}

// PrintPhase prints the file belonging to phase, taken from a finished split.
func (p *Printer) PrintPhase(ctx context.Context, phase Phase, res *processor.Result) error {
	if res == nil {
		return errors.New("no split result given")
	}
	var path string
	var pages int
	switch phase {
	case Phase1:
		path, pages = res.OddOutput, len(res.OddPagesFinal)
	case Phase2:
		path, pages = res.EvenOutput, len(res.EvenPagesFinal)
	default:
		return fmt.Errorf("unknown phase %q", phase)
	}
	if pages == 0 {
		metrics.IncPrint(string(phase), "skipped")
		return fmt.Errorf("%s: %w", phase, ErrNothingToPrint)
	}

	if _, err := os.Stat(path); err != nil {
		metrics.IncPrint(string(phase), "error")
		return fmt.Errorf("%s: output missing: %w", phase, err)
	}
	if err := p.Print(ctx, path); err != nil {
		metrics.IncPrint(string(phase), "error")
		return err
	}
	metrics.IncPrint(string(phase), "ok")
	log.Info().Str("phase", string(phase)).Int("pages", pages).Str("job_id", res.JobID).Msg("phase sent to printer")
	return nil
}
