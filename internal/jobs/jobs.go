package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/crms/internal/config"
	"github.com/ahmetcoskunkizilkaya/crms/internal/logging"
	"github.com/ahmetcoskunkizilkaya/crms/internal/models"
)

var standardParser = cron.NewParser(
	cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow,
)

// Job is a named unit of scheduled maintenance.
type Job struct {
	Name     string
	Schedule string
	Run      func() error
}

// Scheduler runs maintenance jobs on UTC cron schedules.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithParser(standardParser), cron.WithLocation(time.UTC)),
	}
}

func (s *Scheduler) Add(job Job) error {
	_, err := s.cron.AddFunc(job.Schedule, func() {
		start := time.Now()
		if err := job.Run(); err != nil {
			slog.Error("scheduled job failed", "action", job.Name, "error", err)
			return
		}
		slog.Info("scheduled job completed", "action", job.Name, "latency_ms", time.Since(start).Milliseconds())
	})
	if err != nil {
		return fmt.Errorf("invalid schedule for %s: %w", job.Name, err)
	}
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Default returns the standard maintenance jobs.
func Default(db *gorm.DB, cfg *config.Config) []Job {
	return []Job{
		{
			Name:     "system_log_retention",
			Schedule: "0 3 * * *",
			Run: func() error {
				n, err := logging.Cleanup(db, cfg.LogRetentionDays)
				if err == nil && n > 0 {
					slog.Info("log cleanup completed", "deleted", n)
				}
				return err
			},
		},
		{
			Name:     "refresh_token_purge",
			Schedule: "30 3 * * *",
			Run: func() error {
				_, err := PurgeRefreshTokens(db, time.Now())
				return err
			},
		},
		{
			Name:     "current_term_rollover",
			Schedule: "5 0 * * *",
			Run: func() error {
				return RollCurrentTerm(db, time.Now())
			},
		},
	}
}

// PurgeRefreshTokens deletes expired or revoked refresh tokens.
func PurgeRefreshTokens(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Where("expires_at < ? OR revoked = ?", now, true).Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}

// RollCurrentTerm marks the term whose date range covers now as current.
// Nothing changes when no term covers now.
func RollCurrentTerm(db *gorm.DB, now time.Time) error {
	var term models.Term
	err := db.Where("starts_on <= ? AND ends_on >= ?", now, now).
		Order("starts_on DESC").
		First(&term).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if term.IsCurrent {
		return nil
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Term{}).Where("is_current = ?", true).Update("is_current", false).Error; err != nil {
			return err
		}
		return tx.Model(&term).Update("is_current", true).Error
	})
}
