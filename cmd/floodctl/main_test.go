package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSeedListExport(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "flood.db")

	out, err := run(t, "--db", db, "seed")
	require.NoError(t, err)
	assert.Equal(t, "seeded 25 stations\n", out)

	out, err = run(t, "--db", db, "list", "--q", "jakarta", "--sort", "name")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3, out)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "Station A - Ciliwung River, Jakarta")
	assert.Contains(t, lines[2], "Station Q - Pesanggrahan River, Jakarta Selatan")
	assert.Contains(t, lines[1], "Normal")

	exportDir := filepath.Join(dir, "out")
	out, err = run(t, "--db", db, "export", "--format", "csv", "--out", exportDir, "--stem", "stations")
	require.NoError(t, err)
	assert.Contains(t, out, "(25 records)")

	matches, err := filepath.Glob(filepath.Join(exportDir, "stations-*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	// The exported file seeds an identical table
	out, err = run(t, "--db", db, "seed", "--csv", matches[0])
	require.NoError(t, err)
	assert.Equal(t, "seeded 25 stations\n", out)

	out, err = run(t, "--db", db, "export", "--out", exportDir)
	require.NoError(t, err)
	pdfs, err := filepath.Glob(filepath.Join(exportDir, "flood-observations-*.pdf"))
	require.NoError(t, err)
	require.Len(t, pdfs, 1, out)
	data, err := os.ReadFile(pdfs[0])
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestExport_Invalid(t *testing.T) {
	db := filepath.Join(t.TempDir(), "flood.db")

	_, err := run(t, "--db", db, "export", "--format", "docx")
	assert.ErrorContains(t, err, "unsupported format")

	_, err = run(t, "--db", db, "list", "--sort", "latitude")
	assert.Error(t, err)
}

func TestSeed_MissingCSV(t *testing.T) {
	db := filepath.Join(t.TempDir(), "flood.db")
	_, err := run(t, "--db", db, "seed", "--csv", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
