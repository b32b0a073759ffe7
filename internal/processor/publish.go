package processor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/duplexsplit/internal/duplex"
	"github.com/local/duplexsplit/internal/storage"
)

// Uploader stores a finished output remotely and returns its URL.
type Uploader interface {
	Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string, meta map[string]string) (string, error)
}

type publishTarget struct {
	bucket, prefix string
}

func (t publishTarget) key(jobID, name string) string {
	return path.Join(t.prefix, jobID, name)
}

func (p *Processor) publishTarget(url string) (publishTarget, error) {
	if p.deps.Uploader == nil {
		return publishTarget{}, duplex.IOError("publish", url, errors.New("no uploader configured"))
	}
	bucket, prefix, err := storage.ParseS3Prefix(url)
	if err != nil {
		return publishTarget{}, duplex.IOError("publish", url, err)
	}
	return publishTarget{bucket: bucket, prefix: prefix}, nil
}

// publishGroups uploads both phase files and records their URLs on res.
func (p *Processor) publishGroups(ctx context.Context, t publishTarget, res *Result) error {
	created := time.Now().UTC().Format(time.RFC3339)
	upload := func(file string, g duplex.PageGroup) (string, error) {
		b, err := os.ReadFile(file)
		if err != nil {
			return "", duplex.IOError("publish", file, err)
		}
		meta := map[string]string{
			"job_id":  res.JobID,
			"group":   string(g.Kind),
			"pages":   strconv.Itoa(g.Len()),
			"tray":    string(res.Tray),
			"source":  "duplexsplit",
			"created": created,
		}
		url, err := p.deps.Uploader.Upload(ctx, t.bucket, t.key(res.JobID, filepath.Base(file)), bytes.NewReader(b), "application/pdf", meta)
		if err != nil {
			return "", duplex.IOError("publish", file, err)
		}
		return url, nil
	}

	var err error
	if res.OddURL, err = upload(res.OddOutput, res.Odd); err != nil {
		return err
	}
	if res.EvenURL, err = upload(res.EvenOutput, res.Even); err != nil {
		return err
	}
	return nil
}

func (p *Processor) publishManifest(ctx context.Context, t publishTarget, dir string, res *Result) error {
	file := filepath.Join(dir, ManifestFileName)
	b, err := os.ReadFile(file)
	if err != nil {
		return duplex.IOError("publish", file, err)
	}
	url, err := p.deps.Uploader.Upload(ctx, t.bucket, t.key(res.JobID, ManifestFileName), bytes.NewReader(b), "application/json",
		map[string]string{"job_id": res.JobID, "source": "duplexsplit"})
	if err != nil {
		return duplex.IOError("publish", file, err)
	}
	log.Info().Str("job_id", res.JobID).Str("odd", res.OddURL).Str("even", res.EvenURL).Str("manifest", url).Msg("outputs published")
	return nil
}
