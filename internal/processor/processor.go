// Package processor runs one split request end to end: resolve and check the
// inputs, load them, split the pages and write both phase files plus a manifest.
package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/duplexsplit/internal/duplex"
	"github.com/local/duplexsplit/internal/filetype"
	"github.com/local/duplexsplit/internal/lock"
	"github.com/local/duplexsplit/internal/metrics"
	"github.com/local/duplexsplit/internal/pdf"
	"github.com/local/duplexsplit/internal/source"
)

// Fixed output names inside the output directory.
const (
	OddFileName      = "odd_pages.pdf"
	EvenFileName     = "even_pages_rotated.pdf"
	ManifestFileName = "manifest.json"
)

type Resolver interface {
	Resolve(ctx context.Context, ref string) (string, func(), error)
}

type TypeChecker interface {
	RequirePDF(path string) error
}

type Dependencies struct {
	Resolver Resolver
	Types    TypeChecker
	Locker   lock.Locker
	// Uploader is required only for requests with PublishTo set.
	Uploader Uploader
	// TempMaxAge > 0 sweeps stale downloads after each request.
	TempMaxAge time.Duration
}

type Processor struct {
	deps Dependencies
}

// New fills unset dependencies with local defaults.
func New(deps Dependencies) *Processor {
	if deps.Resolver == nil {
		deps.Resolver = &source.Resolver{}
	}
	if deps.Types == nil {
		deps.Types = filetype.New()
	}
	if deps.Locker == nil {
		deps.Locker = lock.NewLocal()
	}
	return &Processor{deps: deps}
}

// Request is one split invocation. Several inputs are merged in order first.
// A non-empty JobID places the outputs in OutputDir/JobID.
type Request struct {
	Inputs      []string
	OutputDir   string
	JobID       string
	Tray        duplex.Tray
	RejectEmpty bool
	// PublishTo, when set, is an s3://bucket/prefix the outputs are copied to.
	PublishTo string
}

// Process runs req and returns the manifest of what was written.
func (p *Processor) Process(ctx context.Context, req Request) (res *Result, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveSplit(resultLabel(err), time.Since(start))
		if p.deps.TempMaxAge > 0 {
			source.CleanupTemps("", p.deps.TempMaxAge)
		}
	}()

	if len(req.Inputs) == 0 {
		return nil, duplex.InvalidDocument("process", "", 0, errors.New("no input given"))
	}
	outDir := req.OutputDir
	if outDir == "" {
		outDir = "."
	}
	if req.JobID != "" {
		outDir = filepath.Join(outDir, req.JobID)
	}
	// manifest paths must not depend on the caller's working directory
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return nil, duplex.IOError("resolve output dir", outDir, err)
	}
	outDir = abs

	var target publishTarget
	if req.PublishTo != "" {
		if target, err = p.publishTarget(req.PublishTo); err != nil {
			return nil, err
		}
	}

	paths := make([]string, 0, len(req.Inputs))
	for _, ref := range req.Inputs {
		local, cleanup, err := p.deps.Resolver.Resolve(ctx, ref)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		if err := p.deps.Types.RequirePDF(local); err != nil {
			return nil, err
		}
		paths = append(paths, local)
	}

	src, err := pdf.LoadMerged(paths)
	if err != nil {
		return nil, err
	}
	odd, even, err := duplex.Split(src.Doc, src.Name, duplex.Options{Tray: req.Tray, RejectEmpty: req.RejectEmpty})
	if err != nil {
		return nil, err
	}
	if src.PageCount() == 0 {
		log.Warn().Strs("inputs", req.Inputs).Msg("input has no pages; writing empty outputs")
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, duplex.IOError("create output dir", outDir, err)
	}
	unlock, err := p.deps.Locker.Lock(ctx, outDir)
	if err != nil {
		return nil, duplex.IOError("lock output dir", outDir, err)
	}
	defer unlock()

	oddPath := filepath.Join(outDir, OddFileName)
	evenPath := filepath.Join(outDir, EvenFileName)
	manifestPath := filepath.Join(outDir, ManifestFileName)

	// A manifest only ever sits next to a complete pair from the same run, so
	// the previous one goes first and any failure below clears the whole set.
	if err := os.Remove(manifestPath); err != nil && !os.IsNotExist(err) {
		return nil, duplex.IOError("remove stale manifest", manifestPath, err)
	}
	discard := func() { removeQuietly(oddPath, evenPath, manifestPath) }

	if err := pdf.WriteGroup(src, odd, oddPath); err != nil {
		discard()
		return nil, err
	}
	if err := pdf.WriteGroup(src, even, evenPath); err != nil {
		discard()
		return nil, err
	}

	tray := req.Tray
	if tray == "" {
		tray = duplex.TrayFaceUp
	}
	res = newResult(req, src.PageCount(), tray, odd, even, oddPath, evenPath)
	if req.PublishTo != "" {
		if err := p.publishGroups(ctx, target, res); err != nil {
			discard()
			return nil, err
		}
	}
	if err := SaveManifest(outDir, res); err != nil {
		discard()
		return nil, err
	}
	if req.PublishTo != "" {
		if err := p.publishManifest(ctx, target, outDir, res); err != nil {
			discard()
			return nil, err
		}
	}

	metrics.AddPages(string(odd.Kind), odd.Len())
	metrics.AddPages(string(even.Kind), even.Len())
	log.Info().
		Strs("inputs", req.Inputs).
		Str("job_id", req.JobID).
		Int("total_pages", res.TotalPages).
		Ints("odd_order", res.OddPagesFinal).
		Ints("even_order", res.EvenPagesFinal).
		Str("tray", string(tray)).
		Dur("took", time.Since(start)).
		Msg("pdf split for duplex printing")
	return res, nil
}

func removeQuietly(paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", path).Msg("failed to remove partial output")
		}
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, duplex.ErrInvalidDocument):
		return "invalid_document"
	case errors.Is(err, duplex.ErrIO):
		return "io_error"
	case errors.Is(err, duplex.ErrEmptyDocument):
		return "empty_document"
	}
	return "error"
}

// Summary is the line the CLI prints on success.
func (r *Result) Summary() string {
	return fmt.Sprintf("odd pages: %d -> %s\neven pages: %d -> %s",
		len(r.OddPagesFinal), r.OddOutput, len(r.EvenPagesFinal), r.EvenOutput)
}
