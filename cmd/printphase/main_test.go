package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/duplexsplit/internal/pdftest"
	"github.com/local/duplexsplit/internal/processor"
)

func TestRunPrintsPhaseFromManifest(t *testing.T) {
	t.Setenv("METRICS_TEXTFILE", "")
	t.Setenv("PRINTER_NAME", "hall")
	dir := t.TempDir()
	in := pdftest.WriteFile(t, dir, "doc.pdf", pdftest.Upright(3))
	res, err := processor.New(processor.Dependencies{}).Process(context.Background(), processor.Request{Inputs: []string{in}, OutputDir: dir})
	require.NoError(t, err)

	var got [][]string
	runner := func(_ context.Context, name string, args ...string) ([]byte, error) {
		got = append(got, append([]string{name}, args...))
		return nil, nil
	}

	require.Equal(t, 0, run([]string{"phase2", dir}, runner))
	require.Equal(t, 0, run([]string{"-printer", "lobby", "phase1", dir}, runner))
	require.Len(t, got, 2)
	assert.Contains(t, got[0], res.EvenOutput)
	assert.Contains(t, got[0], "hall")
	assert.Contains(t, got[1], res.OddOutput)
	assert.Contains(t, got[1], "lobby")
}

func TestRunErrors(t *testing.T) {
	t.Setenv("METRICS_TEXTFILE", "")
	dir := t.TempDir()
	fail := func(context.Context, string, ...string) ([]byte, error) { return nil, errors.New("no printer") }

	assert.Equal(t, 2, run(nil, fail))
	assert.Equal(t, 2, run([]string{"phase3", dir}, fail))
	assert.Equal(t, 4, run([]string{"phase1", filepath.Join(dir, "none")}, fail))

	in := pdftest.WriteFile(t, dir, "doc.pdf", pdftest.Upright(1))
	_, err := processor.New(processor.Dependencies{}).Process(context.Background(), processor.Request{Inputs: []string{in}, OutputDir: dir})
	require.NoError(t, err)
	assert.Equal(t, 1, run([]string{"phase1", dir}, fail))
	// single page: nothing to print in phase2, which is not a failure
	assert.Equal(t, 0, run([]string{"phase2", dir}, fail))
}

func TestRunFromAnotherDirectory(t *testing.T) {
	t.Setenv("METRICS_TEXTFILE", "")
	t.Setenv("PRINTER_NAME", "")
	work := t.TempDir()
	pdftest.WriteFile(t, work, "doc.pdf", pdftest.Upright(4))
	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, os.Chdir(work))
	_, err = processor.New(processor.Dependencies{}).Process(context.Background(), processor.Request{Inputs: []string{"doc.pdf"}, OutputDir: "out"})
	require.NoError(t, err)

	require.NoError(t, os.Chdir(t.TempDir()))
	var sent []string
	runner := func(_ context.Context, name string, args ...string) ([]byte, error) {
		sent = append(sent, args[len(args)-1])
		return nil, nil
	}
	require.Equal(t, 0, run([]string{"phase1", filepath.Join(work, "out")}, runner))
	require.Len(t, sent, 1)
	assert.True(t, filepath.IsAbs(sent[0]))
	assert.FileExists(t, sent[0])
	assert.Equal(t, "odd_pages.pdf", filepath.Base(sent[0]))
}
