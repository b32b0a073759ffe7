package processor

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/local/duplexsplit/internal/duplex"
	"github.com/local/duplexsplit/internal/pdf"
)

// Result describes a finished split. It is stored as manifest.json next to the
// outputs so later phases can be driven from it without shared state.
type Result struct {
	JobID             string           `json:"job_id,omitempty"`
	Inputs            []string         `json:"inputs"`
	Tray              duplex.Tray      `json:"tray"`
	TotalPages        int              `json:"total_pages"`
	OriginalSequence  []int            `json:"original_sequence"`
	OddPagesOriginal  []int            `json:"odd_pages_original"`
	OddPagesFinal     []int            `json:"odd_pages_final"`
	EvenPagesOriginal []int            `json:"even_pages_original"`
	EvenPagesFinal    []int            `json:"even_pages_final"`
	Odd               duplex.PageGroup `json:"odd_group"`
	Even              duplex.PageGroup `json:"even_group"`
	OddOutput         string           `json:"odd_output"`
	EvenOutput        string           `json:"even_output"`
	OddURL            string           `json:"odd_url,omitempty"`
	EvenURL           string           `json:"even_url,omitempty"`
}

func newResult(req Request, total int, tray duplex.Tray, odd, even duplex.PageGroup, oddPath, evenPath string) *Result {
	seq := make([]int, total)
	var oddOrig, evenOrig []int
	for i := range seq {
		seq[i] = i + 1
		if (i+1)%2 == 1 {
			oddOrig = append(oddOrig, i+1)
		} else {
			evenOrig = append(evenOrig, i+1)
		}
	}
	return &Result{
		JobID:             req.JobID,
		Inputs:            req.Inputs,
		Tray:              tray,
		TotalPages:        total,
		OriginalSequence:  seq,
		OddPagesOriginal:  nonNil(oddOrig),
		OddPagesFinal:     odd.Numbers(),
		EvenPagesOriginal: nonNil(evenOrig),
		EvenPagesFinal:    even.Numbers(),
		Odd:               odd,
		Even:              even,
		OddOutput:         oddPath,
		EvenOutput:        evenPath,
	}
}

func nonNil(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}

// SaveManifest writes res to dir/manifest.json atomically.
func SaveManifest(dir string, res *Result) error {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	path := filepath.Join(dir, ManifestFileName)
	err = pdf.WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write(append(b, '\n'))
		return err
	})
	if err != nil {
		return duplex.IOError("write manifest", path, err)
	}
	return nil
}

// LoadManifest reads dir/manifest.json.
func LoadManifest(dir string) (*Result, error) {
	path := filepath.Join(dir, ManifestFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var res Result
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	// relative outputs are taken relative to the manifest itself
	for _, p := range []*string{&res.OddOutput, &res.EvenOutput} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, filepath.Base(*p))
		}
	}
	return &res, nil
}
