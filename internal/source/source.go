// Package source turns input references into local files the PDF reader can open.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/duplexsplit/internal/duplex"
	"github.com/local/duplexsplit/internal/storage"
)

// tempPrefix marks downloads so CleanupTemps can find stale ones.
const tempPrefix = "s3pdf-"

// Downloader fetches an object into w.
type Downloader interface {
	Download(ctx context.Context, bucket, key string, w io.WriterAt) (int64, error)
}

// Resolver maps references to local paths. S3 is created on first use so runs
// that never touch s3:// never load AWS config.
type Resolver struct {
	S3      func(ctx context.Context) (Downloader, error)
	TempDir string

	mu sync.Mutex
	s3 Downloader
}

// NewResolver wires s3:// support through storage.S3Client.
func NewResolver(region string) *Resolver {
	return &Resolver{
		S3: func(ctx context.Context) (Downloader, error) {
			c, err := storage.NewS3Client(ctx, region)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
}

// Resolve returns a local path for ref and a cleanup func that removes any
// temporary copy. Supported forms: plain paths, file://path, s3://bucket/key.
// On URL forms a trailing #fragment is ignored; plain paths are taken as is.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, func(), error) {
	noop := func() {}

	switch {
	case strings.HasPrefix(ref, "s3://"):
		ref = stripFragment(ref)
		p, err := r.downloadS3(ctx, ref)
		if err != nil {
			return "", noop, duplex.InvalidDocument("fetch", ref, 0, err)
		}
		return p, func() { _ = os.Remove(p) }, nil
	case strings.HasPrefix(ref, "file://"):
		return strings.TrimPrefix(stripFragment(ref), "file://"), noop, nil
	case strings.Contains(ref, "://"):
		return "", noop, duplex.InvalidDocument("resolve", ref, 0, fmt.Errorf("unsupported input scheme"))
	default:
		return ref, noop, nil
	}
}

func stripFragment(ref string) string {
	if i := strings.Index(ref, "#"); i >= 0 {
		return ref[:i]
	}
	return ref
}

func (r *Resolver) downloadS3(ctx context.Context, ref string) (string, error) {
	bucket, key, err := storage.ParseS3URL(ref)
	if err != nil {
		return "", err
	}
	dl, err := r.downloader(ctx)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(r.TempDir, tempPrefix+"*.pdf")
	if err != nil {
		return "", err
	}
	name := f.Name()
	n, err := dl.Download(ctx, bucket, key, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(name)
		return "", err
	}
	log.Info().Str("bucket", bucket).Str("key", key).Str("file", filepath.Base(name)).Int64("size", n).Msg("downloaded s3 pdf to temp")
	return name, nil
}

func (r *Resolver) downloader(ctx context.Context) (Downloader, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.s3 != nil {
		return r.s3, nil
	}
	if r.S3 == nil {
		return nil, fmt.Errorf("s3 inputs not configured")
	}
	dl, err := r.S3(ctx)
	if err != nil {
		return nil, err
	}
	r.s3 = dl
	return dl, nil
}

// CleanupTemps removes downloads in dir (os.TempDir() when empty) older than
// maxAge, and returns how many were removed.
func CleanupTemps(dir string, maxAge time.Duration) int {
	if dir == "" {
		dir = os.TempDir()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	now := time.Now()
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) >= maxAge {
			if os.Remove(filepath.Join(dir, e.Name())) == nil {
				removed++
			}
		}
	}
	return removed
}
