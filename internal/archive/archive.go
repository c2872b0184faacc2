// Package archive writes the observation report to disk on a cron schedule.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mr1hm/go-flood-watch/internal/models"
	"github.com/mr1hm/go-flood-watch/internal/report"
)

type Lister interface {
	List(ctx context.Context) ([]models.Observation, error)
}

type Archiver struct {
	repo      Lister
	formatter *report.Formatter
	dir       string
	stem      string
	timeout   time.Duration
	now       func() time.Time
	cron      *cron.Cron
}

func NewArchiver(repo Lister, formatter *report.Formatter, dir, stem string) *Archiver {
	return &Archiver{
		repo:      repo,
		formatter: formatter,
		dir:       dir,
		stem:      stem,
		timeout:   time.Minute,
		now:       time.Now,
	}
}

// Start schedules Run on spec, a standard five-field cron expression.
func (a *Archiver) Start(spec string) error {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("error creating archive dir: %w", err)
	}

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if _, err := a.Run(ctx); err != nil {
			slog.Error("scheduled archive failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("error scheduling archive %q: %w", spec, err)
	}

	a.cron = c
	c.Start()
	slog.Info("report archive scheduled", "schedule", spec, "dir", a.dir)
	return nil
}

// Run renders the current list into the dated report file and returns its
// path. Runs on the same day overwrite each other.
func (a *Archiver) Run(ctx context.Context) (string, error) {
	list, err := a.repo.List(ctx)
	if err != nil {
		return "", fmt.Errorf("error listing observations: %w", err)
	}

	now := a.now()
	path := filepath.Join(a.dir, a.formatter.Filename(a.stem, now))

	tmp, err := os.CreateTemp(a.dir, ".report-*.pdf")
	if err != nil {
		return "", fmt.Errorf("error creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := a.formatter.Render(tmp, list, now); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("error closing report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("error moving report into place: %w", err)
	}

	slog.Info("archived report", "path", path, "records", len(list))
	return path, nil
}

// Stop removes the schedule and waits for a running job to finish.
func (a *Archiver) Stop() {
	if a.cron == nil {
		return
	}
	<-a.cron.Stop().Done()
	slog.Info("report archive stopped")
}
