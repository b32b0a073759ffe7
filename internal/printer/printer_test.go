package printer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/duplexsplit/internal/processor"
)

type call struct {
	name string
	args []string
}

func recorder(calls *[]call, out string, err error) Runner {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, call{name, args})
		return []byte(out), err
	}
}

func TestCommand(t *testing.T) {
	cases := []struct {
		goos, printer string
		name          string
		args          []string
	}{
		{"linux", "", "lp", []string{"/o/odd_pages.pdf"}},
		{"linux", "Office Laser", "lp", []string{"-d", "Office Laser", "/o/odd_pages.pdf"}},
		{"darwin", "", "lpr", []string{"/o/odd_pages.pdf"}},
		{"darwin", "HP", "lpr", []string{"-P", "HP", "/o/odd_pages.pdf"}},
		{"windows", "", "powershell", []string{"-NoProfile", "-Command", "Start-Process -FilePath '/o/odd_pages.pdf' -Verb Print"}},
		{"windows", "Bob's HP", "powershell", []string{"-NoProfile", "-Command", `Start-Process -FilePath '/o/odd_pages.pdf' -Verb PrintTo -ArgumentList '"Bob''s HP"'`}},
	}
	for _, c := range cases {
		name, args, err := Command(c.goos, "/o/odd_pages.pdf", c.printer)
		require.NoError(t, err, c.goos)
		assert.Equal(t, c.name, name)
		assert.Equal(t, c.args, args)
	}

	_, _, err := Command("plan9", "/o/x.pdf", "")
	assert.Error(t, err)
}

func TestPrintPhase(t *testing.T) {
	var calls []call
	p := New(Options{GOOS: "linux", PrinterName: "duplex", Run: recorder(&calls, "", nil)})
	res := phaseFiles(t, []int{3, 1}, []int{2})

	require.NoError(t, p.PrintPhase(context.Background(), Phase1, res))
	require.NoError(t, p.PrintPhase(context.Background(), Phase2, res))
	assert.Equal(t, []call{
		{"lp", []string{"-d", "duplex", res.OddOutput}},
		{"lp", []string{"-d", "duplex", res.EvenOutput}},
	}, calls)
}

func TestPrintPhaseMissingOutput(t *testing.T) {
	var calls []call
	p := New(Options{GOOS: "linux", Run: recorder(&calls, "", nil)})
	res := phaseFiles(t, []int{1}, []int{2})
	require.NoError(t, os.Remove(res.OddOutput))

	err := p.PrintPhase(context.Background(), Phase1, res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Empty(t, calls)
}

// phaseFiles creates placeholder phase outputs in a temp dir.
func phaseFiles(t *testing.T, odd, even []int) *processor.Result {
	t.Helper()
	dir := t.TempDir()
	res := &processor.Result{
		OddPagesFinal:  odd,
		EvenPagesFinal: even,
		OddOutput:      filepath.Join(dir, processor.OddFileName),
		EvenOutput:     filepath.Join(dir, processor.EvenFileName),
	}
	for _, f := range []string{res.OddOutput, res.EvenOutput} {
		require.NoError(t, os.WriteFile(f, []byte("%PDF-1.4\n"), 0o644))
	}
	return res
}

func TestPrintPhaseEmptyGroup(t *testing.T) {
	var calls []call
	p := New(Options{GOOS: "linux", Run: recorder(&calls, "", nil)})
	res := &processor.Result{OddPagesFinal: []int{1}, EvenPagesFinal: []int{}, EvenOutput: "/out/even_pages_rotated.pdf"}

	err := p.PrintPhase(context.Background(), Phase2, res)
	assert.True(t, errors.Is(err, ErrNothingToPrint))
	assert.Empty(t, calls)

	assert.Error(t, p.PrintPhase(context.Background(), Phase1, nil))
}

func TestPrintFailureIncludesOutput(t *testing.T) {
	var calls []call
	p := New(Options{GOOS: "darwin", Run: recorder(&calls, "lpr: no default destination\n", errors.New("exit status 1"))})

	err := p.Print(context.Background(), "/out/odd_pages.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no default destination")
}

func TestParsePhase(t *testing.T) {
	for in, want := range map[string]Phase{"phase1": Phase1, "1": Phase1, "odd": Phase1, "PHASE2": Phase2, "even": Phase2} {
		got, err := ParsePhase(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParsePhase("phase3")
	assert.Error(t, err)
}
