package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
)

const defaultPruneSchedule = "0 3 * * *" // daily at 03:00

// CleanupOld deletes capture files older than the configured retention
// window. It is invoked directly from the proxy's periodic tick and,
// when Scheduler is running, from the daily cron job as well.
func (c *Capturer) CleanupOld() error {
	s := c.snapshot()
	if s.Directory == "" || s.RetentionDays <= 0 {
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -s.RetentionDays)

	entries, err := os.ReadDir(s.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("capture: read directory %s: %w", s.Directory, err)
	}

	var removed int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(s.Directory, entry.Name())
			if err := os.Remove(path); err != nil {
				c.logger.Warn("capture: failed to prune old file", "path", path, "error", err)
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		c.logger.Info("capture: pruned old exchange files", "count", removed, "retention_days", s.RetentionDays)
	}
	return nil
}

// Scheduler drives CleanupOld on a cron schedule, independent of the
// proxy's 60-second operational tick, so retention still runs during
// periods with no traffic to trigger the tick's side effects.
type Scheduler struct {
	capturer *Capturer
	cron     *cron.Cron
	schedule string
	logger   *slog.Logger
}

// NewScheduler returns a Scheduler using schedule (a standard 5-field
// cron expression), or defaultPruneSchedule if schedule is empty.
func NewScheduler(capturer *Capturer, schedule string, logger *slog.Logger) *Scheduler {
	if schedule == "" {
		schedule = defaultPruneSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{capturer: capturer, schedule: schedule, logger: logger}
}

// Start validates the cron expression, begins the schedule, and stops it
// when ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("capture: invalid prune schedule %q: %w", s.schedule, err)
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, s.runPruning); err != nil {
		return fmt.Errorf("capture: schedule prune job: %w", err)
	}
	s.cron.Start()

	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
	}()
	return nil
}

func (s *Scheduler) runPruning() {
	if err := s.capturer.CleanupOld(); err != nil {
		s.logger.Warn("capture: scheduled prune failed", "error", err)
	}
}
