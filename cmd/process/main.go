package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	cfgpkg "github.com/local/duplexsplit/internal/config"
	"github.com/local/duplexsplit/internal/duplex"
	"github.com/local/duplexsplit/internal/lock"
	logpkg "github.com/local/duplexsplit/internal/logger"
	"github.com/local/duplexsplit/internal/metrics"
	"github.com/local/duplexsplit/internal/processor"
	"github.com/local/duplexsplit/internal/source"
	"github.com/local/duplexsplit/internal/storage"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	exitInvalid = 3
	exitIO      = 4
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := cfgpkg.FromEnv()

	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: process [flags] <input.pdf> [more.pdf ...] [output_dir]")
		fs.PrintDefaults()
	}
	tray := fs.String("tray", cfg.Split.Tray, "output tray orientation: face-up or face-down")
	perJob := fs.Bool("job", cfg.Split.PerJobDir, "write outputs into a fresh per-run subdirectory")
	rejectEmpty := fs.Bool("reject-empty", cfg.Split.RejectEmpty, "fail on documents with no pages")
	publish := fs.String("publish", cfg.Storage.PublishURL, "also upload outputs to s3://bucket/prefix")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	inputs, outDir := splitArgs(fs.Args(), cfg.Split.OutputDir)
	if len(inputs) == 0 {
		fs.Usage()
		return exitUsage
	}
	t, err := duplex.ParseTray(*tray)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
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

	locker, err := lock.New(lock.Options{RedisURL: cfg.Lock.RedisURL, TTL: cfg.Lock.TTL, Poll: cfg.Lock.Poll})
	if err != nil {
		log.Error().Err(err).Msg("failed to init output lock")
		return exitFailure
	}
	if c, ok := locker.(interface{ Close() error }); ok {
		defer c.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := processor.Request{
		Inputs:      inputs,
		OutputDir:   outDir,
		Tray:        t,
		RejectEmpty: *rejectEmpty,
		PublishTo:   *publish,
	}
	if *perJob {
		req.JobID = uuid.NewString()
	}

	deps := processor.Dependencies{
		Resolver:   source.NewResolver(cfg.Storage.Region),
		Locker:     locker,
		TempMaxAge: cfg.Split.TempMaxAge,
	}
	if req.PublishTo != "" {
		s3c, err := storage.NewS3Client(ctx, cfg.Storage.Region)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitIO
		}
		deps.Uploader = s3c
	}
	proc := processor.New(deps)
	res, err := proc.Process(ctx, req)
	if merr := metrics.WriteTextfile(cfg.Metrics.Textfile); merr != nil {
		log.Warn().Err(merr).Str("file", cfg.Metrics.Textfile).Msg("failed to write metrics textfile")
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCode(err)
	}

	fmt.Println(res.Summary())
	if res.OddURL != "" {
		fmt.Printf("published: %s, %s\n", res.OddURL, res.EvenURL)
	}
	return exitOK
}

// splitArgs treats a trailing argument that is not a PDF as the output directory.
func splitArgs(args []string, defOut string) ([]string, string) {
	if defOut == "" {
		defOut = "."
	}
	if len(args) < 2 {
		return args, defOut
	}
	last := args[len(args)-1]
	if strings.HasSuffix(strings.ToLower(last), ".pdf") {
		return args, defOut
	}
	return args[:len(args)-1], last
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, duplex.ErrInvalidDocument), errors.Is(err, duplex.ErrEmptyDocument):
		return exitInvalid
	case errors.Is(err, duplex.ErrIO):
		return exitIO
	}
	return exitFailure
}
