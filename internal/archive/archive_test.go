package archive

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mr1hm/go-flood-watch/internal/models"
	"github.com/mr1hm/go-flood-watch/internal/report"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type mockLister struct {
	list []models.Observation
	err  error
}

func (m *mockLister) List(ctx context.Context) ([]models.Observation, error) {
	return m.list, m.err
}

func newTestArchiver(t *testing.T, repo Lister) *Archiver {
	t.Helper()
	a := NewArchiver(repo, report.New(report.Config{Location: time.UTC}), t.TempDir(), "flood-observations")
	a.now = func() time.Time { return time.Date(2025, 1, 13, 9, 0, 0, 0, time.UTC) }
	return a
}

func TestArchiver_Run(t *testing.T) {
	repo := &mockLister{list: []models.Observation{
		{ID: 1, Name: "Station A - Ciliwung River, Jakarta", WarningLevel: models.WarningLevelNormal, WaterLevel: 2.1, Weather: "Cloudy"},
	}}
	a := newTestArchiver(t, repo)

	path, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(a.dir, "flood-observations-2025-01-13.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), "archive should be a PDF")

	// A second run on the same day replaces the file and leaves no temp files
	_, err = a.Run(context.Background())
	require.NoError(t, err)
	entries, err := os.ReadDir(a.dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestArchiver_RunListError(t *testing.T) {
	a := newTestArchiver(t, &mockLister{err: errors.New("database is locked")})

	_, err := a.Run(context.Background())
	require.Error(t, err)

	entries, err := os.ReadDir(a.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestArchiver_StartInvalidSchedule(t *testing.T) {
	a := newTestArchiver(t, &mockLister{})
	require.Error(t, a.Start("not a schedule"))
	// Stop without a running schedule is a no-op
	a.Stop()
}

func TestArchiver_StartStop(t *testing.T) {
	a := newTestArchiver(t, &mockLister{})
	require.NoError(t, a.Start("0 * * * *"))

	done := make(chan struct{})
	go func() {
		a.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("archiver.Stop() timed out")
	}
}
