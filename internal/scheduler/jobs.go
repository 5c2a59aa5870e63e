package scheduler

import (
	"context"
	"fmt"
)

const (
	JobCatalogRefresh = "achievement_catalog_refresh"
	JobWeeklyReset    = "hero_weekly_reset"
	JobMonthlyReset   = "hero_monthly_reset"
	JobOrphanCleanup  = "attachment_orphan_cleanup"
)

type CatalogRefresher interface {
	InvalidateCatalog()
}

type ScoreResetter interface {
	ResetWeekly(ctx context.Context) error
	ResetMonthly(ctx context.Context) error
}

type OrphanCleaner interface {
	CleanupOrphanAttachments(ctx context.Context) (int, error)
}

// Deps are the services the built-in jobs act on. Nil entries skip their job.
type Deps struct {
	Catalog     CatalogRefresher
	Scores      ScoreResetter
	Attachments OrphanCleaner
}

// RegisterDefaults schedules the platform's maintenance jobs. All specs are UTC.
func (s *Scheduler) RegisterDefaults(deps Deps) error {
	var jobs []Job
	if deps.Catalog != nil {
		jobs = append(jobs, NewJob(JobCatalogRefresh, "*/30 * * * *", func(context.Context) error {
			deps.Catalog.InvalidateCatalog()
			return nil
		}))
	}
	if deps.Scores != nil {
		jobs = append(jobs,
			NewJob(JobWeeklyReset, "0 0 * * 1", deps.Scores.ResetWeekly),
			NewJob(JobMonthlyReset, "0 0 1 * *", deps.Scores.ResetMonthly),
		)
	}
	if deps.Attachments != nil {
		jobs = append(jobs, NewJob(JobOrphanCleanup, "0 */12 * * *", func(ctx context.Context) error {
			n, err := deps.Attachments.CleanupOrphanAttachments(ctx)
			if err != nil {
				return fmt.Errorf("cleanup orphan attachments: %w", err)
			}
			s.log.Info("orphan attachments removed", "count", n)
			return nil
		}))
	}

	for _, job := range jobs {
		if err := s.Register(job); err != nil {
			return err
		}
	}
	return nil
}
