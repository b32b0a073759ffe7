package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	cfgpkg "github.com/local/duplexsplit/internal/config"
	logpkg "github.com/local/duplexsplit/internal/logger"
	"github.com/local/duplexsplit/internal/metrics"
	"github.com/local/duplexsplit/internal/printer"
	"github.com/local/duplexsplit/internal/processor"
)

func main() {
	os.Exit(run(os.Args[1:], nil))
}

// run prints one phase of a finished split. A nil runner uses the OS print command.
func run(args []string, runner printer.Runner) int {
	cfg := cfgpkg.FromEnv()

	fs := flag.NewFlagSet("printphase", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: printphase [flags] <phase1|phase2> <output_dir>")
		fs.PrintDefaults()
	}
	printerName := fs.String("printer", cfg.Printer.Name, "printer to send to (default: system default printer)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}
	phase, err := printer.ParsePhase(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()

	res, err := processor.LoadManifest(fs.Arg(1))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 4
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := printer.New(printer.Options{PrinterName: *printerName, Run: runner})
	err = p.PrintPhase(ctx, phase, res)
	if merr := metrics.WriteTextfile(cfg.Metrics.Textfile); merr != nil {
		log.Warn().Err(merr).Str("file", cfg.Metrics.Textfile).Msg("failed to write metrics textfile")
	}
	switch {
	case errors.Is(err, printer.ErrNothingToPrint):
		fmt.Printf("%s: no pages to print\n", phase)
		return 0
	case err != nil:
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if phase == printer.Phase1 {
		fmt.Println("phase1 sent. Put the printed stack back into the input tray, then run phase2.")
	} else {
		fmt.Println("phase2 sent.")
	}
	return 0
}
