package pdf

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"

	"github.com/local/duplexsplit/internal/duplex"
)

// Merge concatenates the PDFs at paths, in order, into w.
func Merge(paths []string, w io.Writer) error {
	readers := make([]io.ReadSeeker, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return duplex.InvalidDocument("open", p, 0, err)
		}
		defer f.Close()
		readers = append(readers, f)
	}
	if err := api.MergeRaw(readers, w, false, model.NewDefaultConfiguration()); err != nil {
		return duplex.InvalidDocument("merge", paths[0], 0, err)
	}
	return nil
}

// LoadMerged merges paths and parses the result as a single Source. A single
// path is loaded directly.
func LoadMerged(paths []string) (*Source, error) {
	switch len(paths) {
	case 0:
		return nil, duplex.InvalidDocument("merge", "", 0, errors.New("no input files"))
	case 1:
		return Load(paths[0])
	}

	var buf bytes.Buffer
	if err := Merge(paths, &buf); err != nil {
		return nil, err
	}
	log.Info().Int("files", len(paths)).Int("bytes", buf.Len()).Msg("inputs merged")
	return LoadBytes(buf.Bytes(), paths[0])
}
