// Package pdf adapts pdfcpu to the duplex page model: it loads a PDF into a
// duplex.Document and writes PageGroups back out as standalone files.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"

	"github.com/local/duplexsplit/internal/duplex"
)

func init() {
	// keep pdfcpu from creating a config dir under $HOME
	api.DisableConfigDir()
}

// Source is a parsed input PDF. It stays read-only; writers copy pages out of it.
type Source struct {
	Name string
	Doc  duplex.Document
	ctx  *model.Context
}

// PageCount returns the number of pages in the source.
func (s *Source) PageCount() int { return s.Doc.Len() }

// Load opens and parses the PDF at path.
func Load(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, duplex.InvalidDocument("open", path, 0, err)
	}
	defer f.Close()
	return Read(f, path)
}

// LoadBytes parses an in-memory PDF; name is only used in errors and logs.
func LoadBytes(b []byte, name string) (*Source, error) {
	return Read(bytes.NewReader(b), name)
}

// Read parses and validates a PDF and collects each page's effective rotation.
func Read(rs io.ReadSeeker, name string) (src *Source, err error) {
	defer func() {
		if r := recover(); r != nil {
			src, err = nil, duplex.InvalidDocument("parse", name, 0, fmt.Errorf("pdfcpu panic: %v", r))
		}
	}()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, duplex.InvalidDocument("parse", name, 0, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, duplex.InvalidDocument("validate", name, 0, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, duplex.InvalidDocument("count pages", name, 0, err)
	}

	pages := make([]duplex.Page, 0, ctx.PageCount)
	for i := 1; i <= ctx.PageCount; i++ {
		_, _, inh, err := ctx.PageDict(i, false)
		if err != nil {
			return nil, duplex.InvalidDocument("read page", name, i, err)
		}
		rot := 0
		if inh != nil {
			rot = duplex.NormalizeRotation(inh.Rotate)
		}
		pages = append(pages, duplex.Page{Number: i, Rotation: rot})
	}

	log.Debug().Str("file", name).Int("pages", len(pages)).Msg("pdf loaded")
	return &Source{Name: name, Doc: duplex.Document{Pages: pages}, ctx: ctx}, nil
}
