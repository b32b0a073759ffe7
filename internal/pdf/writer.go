package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/rs/zerolog/log"

	"github.com/local/duplexsplit/internal/duplex"
)

// emptyDocument is a zero-page PDF whose page tree root is written out
// explicitly, so readers find /Pages with /Count 0 and an empty /Kids.
func emptyDocument() []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	catalog := buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	pages := buf.Len()
	buf.WriteString("2 0 obj\n<< /Type /Pages /Kids [] /Count 0 >>\nendobj\n")
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 3\n0000000000 65535 f \n%010d 00000 n \n%010d 00000 n \n", catalog, pages)
	fmt.Fprintf(&buf, "trailer\n<< /Size 3 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

func emptyContext() (*model.Context, error) {
	return api.ReadContext(bytes.NewReader(emptyDocument()), model.NewDefaultConfiguration())
}

// Build copies the group's pages out of src, in group order, into a new
// context and stamps each page with the group's rotation. An empty group
// yields a valid zero-page document.
func Build(src *Source, group duplex.PageGroup) (*model.Context, error) {
	nums := group.Numbers()
	if len(nums) == 0 {
		ctx, err := emptyContext()
		if err != nil {
			return nil, duplex.IOError("build empty document", src.Name, err)
		}
		return ctx, nil
	}
	for _, n := range nums {
		if n < 1 || n > src.PageCount() {
			return nil, duplex.InvalidDocument("select page", src.Name, n, fmt.Errorf("page out of range 1..%d", src.PageCount()))
		}
	}

	dst, err := pdfcpu.ExtractPages(src.ctx, nums, false)
	if err != nil {
		return nil, duplex.InvalidDocument("extract pages", src.Name, 0, err)
	}
	if err := dst.EnsurePageCount(); err != nil {
		return nil, duplex.InvalidDocument("extract pages", src.Name, 0, err)
	}
	if dst.PageCount != len(nums) {
		return nil, duplex.InvalidDocument("extract pages", src.Name, 0,
			fmt.Errorf("extracted %d pages, want %d", dst.PageCount, len(nums)))
	}

	for i, p := range group.Pages {
		d, _, _, err := dst.PageDict(i+1, false)
		if err != nil {
			return nil, duplex.InvalidDocument("rotate page", src.Name, p.Number, err)
		}
		if p.Rotation == 0 {
			d.Delete("Rotate")
			continue
		}
		d["Rotate"] = types.Integer(p.Rotation)
	}
	return dst, nil
}

// WriteGroup writes group as an independent PDF at path. The file appears at
// path only once it is complete; on failure nothing is left behind.
func WriteGroup(src *Source, group duplex.PageGroup, path string) error {
	ctx, err := Build(src, group)
	if err != nil {
		return err
	}
	err = WriteAtomic(path, func(w io.Writer) error {
		return api.WriteContext(ctx, w)
	})
	if err != nil {
		return duplex.IOError("write", path, err)
	}
	log.Debug().Str("file", path).Str("group", string(group.Kind)).Int("pages", group.Len()).Msg("group written")
	return nil
}

// WriteAtomic streams into a temp file beside path, fsyncs it and renames it
// into place. The temp file is removed on every error path.
func WriteAtomic(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	closed := false
	defer func() {
		if !closed {
			_ = tmp.Close()
		}
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	closed = true
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
