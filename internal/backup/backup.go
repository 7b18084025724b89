// Package backup periodically copies the state file, pick history and roster
// files into a timestamped snapshot directory.
package backup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps a gocron scheduler around the snapshot job.
type Scheduler struct {
	scheduler gocron.Scheduler
	sources   []string
	targetDir string
}

// NewScheduler builds a backup scheduler over the given source files.
// Missing sources are skipped at snapshot time, not treated as errors.
func NewScheduler(targetDir string, sources ...string) (*Scheduler, error) {
	if targetDir == "" {
		return nil, fmt.Errorf("backup target directory is required")
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		sources:   sources,
		targetDir: targetDir,
	}, nil
}

// Start schedules the periodic snapshot and begins the scheduler.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.runSnapshot),
		gocron.WithName("state-backup"),
	)
	if err != nil {
		return fmt.Errorf("create backup job: %w", err)
	}

	slog.Info("Starting backup scheduler", "interval", interval, "target", s.targetDir)
	s.scheduler.Start()
	return nil
}

// Stop shuts the scheduler down.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping backup scheduler")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) runSnapshot() {
	if _, err := s.Snapshot(); err != nil {
		slog.Error("Scheduled backup failed", "error", err)
	}
}

// Snapshot copies every existing source into a new timestamped directory and
// returns its path.
func (s *Scheduler) Snapshot() (string, error) {
	dir := filepath.Join(s.targetDir, time.Now().Format("20060102-150405"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot directory: %w", err)
	}

	copied := 0
	for _, src := range s.sources {
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		dst := filepath.Join(dir, filepath.Base(src))
		if err := copyFile(src, dst); err != nil {
			return "", fmt.Errorf("back up %s: %w", src, err)
		}
		copied++
	}

	slog.Info("Backup snapshot written", "dir", dir, "files", copied)
	return dir, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
