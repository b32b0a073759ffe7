// Package pdftest builds small synthetic PDFs for tests and reads back the page
// order and rotation of generated files.
//
// Every synthetic page gets a unique MediaBox width (BaseWidth + page number), so
// a page can be identified after it has been copied into another file.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// BaseWidth is added to the page number to form the page width in points.
const BaseWidth = 100

// PageHeight is shared by all synthetic pages.
const PageHeight = 200

// PageInfo describes one page read back from a file.
type PageInfo struct {
	Number   int
	Rotation int
}

// Build returns a minimal, well-formed PDF with one page per entry in rotations.
// rotations[i] becomes the /Rotate entry of page i+1 (0 omits the entry).
func Build(rotations []int) []byte {
	var buf bytes.Buffer
	n := len(rotations)
	// objects: 1 catalog, 2 pages root, 3.. one per page
	offsets := make([]int, 0, n+2)

	buf.WriteString("%PDF-1.4\n")
	offsets = append(offsets, buf.Len())
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			kids += " "
		}
		kids += fmt.Sprintf("%d 0 R", i+3)
	}
	offsets = append(offsets, buf.Len())
	fmt.Fprintf(&buf, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", kids, n)

	for i, rot := range rotations {
		offsets = append(offsets, buf.Len())
		rotate := ""
		if rot != 0 {
			rotate = fmt.Sprintf(" /Rotate %d", rot)
		}
		fmt.Fprintf(&buf, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << >>%s >>\nendobj\n",
			i+3, BaseWidth+i+1, PageHeight, rotate)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// Upright returns n zero rotations.
func Upright(n int) []int { return make([]int, n) }

// WriteFile writes Build(rotations) to dir/name and returns the path.
func WriteFile(t testing.TB, dir, name string, rotations []int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, Build(rotations), 0o644); err != nil {
		t.Fatalf("write synthetic pdf: %v", err)
	}
	return p
}

// Inspect opens a PDF produced from synthetic input and returns its pages in
// file order.
func Inspect(path string) ([]PageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ctx, err := api.ReadContext(f, model.NewDefaultConfiguration())
	if err != nil {
		return nil, err
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, err
	}
	out := make([]PageInfo, 0, ctx.PageCount)
	for i := 1; i <= ctx.PageCount; i++ {
		_, _, inh, err := ctx.PageDict(i, false)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		if inh == nil || inh.MediaBox == nil {
			return nil, fmt.Errorf("page %d: no media box", i)
		}
		out = append(out, PageInfo{
			Number:   int(inh.MediaBox.Width()+0.5) - BaseWidth,
			Rotation: inh.Rotate,
		})
	}
	return out, nil
}

// Numbers returns the page numbers of infos in order.
func Numbers(infos []PageInfo) []int {
	out := make([]int, len(infos))
	for i, p := range infos {
		out[i] = p.Number
	}
	return out
}

func init() {
	api.DisableConfigDir()
}
