package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-co-op/gocron/v2"

	"byebug-backend/internal/byebug-api/store"
)

const DefaultSnapshotCron = "0 * * * *"

// SnapshotService periodically records the analytics summary so the
// frontend can chart it over time. It never touches tasks: status
// transitions stay strictly caller-driven.
type SnapshotService struct {
	Analytics  *store.AnalyticsStore
	Scheduler  gocron.Scheduler
	appContext context.Context
}

func NewSnapshotService(ctx context.Context, analytics *store.AnalyticsStore) (*SnapshotService, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &SnapshotService{Analytics: analytics, Scheduler: s, appContext: ctx}, nil
}

func (s *SnapshotService) Start() {
	log.Println("SnapshotService starting...")
	s.Scheduler.Start()

	cronExpr := os.Getenv("SNAPSHOT_CRON")
	if cronExpr == "" {
		cronExpr = DefaultSnapshotCron
	}
	job, err := s.Scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(s.TakeSnapshot),
		gocron.WithName("analytics_snapshot"),
		gocron.WithTags("analytics_snapshot"),
	)
	if err != nil {
		log.Printf("Error scheduling analytics snapshot job with cron '%s': %v", cronExpr, err)
		return
	}
	if nextRun, err := job.NextRun(); err == nil {
		log.Printf("Scheduled analytics snapshot job with cron '%s'. Next run: %s", cronExpr, nextRun.Format(time.RFC3339))
	} else {
		log.Printf("Scheduled analytics snapshot job with cron '%s'. Next run: (error: %v)", cronExpr, err)
	}
}

func (s *SnapshotService) Stop() {
	log.Println("SnapshotService stopping...")
	if err := s.Scheduler.Shutdown(); err != nil {
		log.Printf("Error shutting down gocron scheduler: %v", err)
	} else {
		log.Println("Gocron scheduler shut down successfully.")
	}
}

// TakeSnapshot computes and stores one summary row. Also invoked from
// the admin refresh endpoint.
func (s *SnapshotService) TakeSnapshot() {
	snap, err := s.Analytics.SaveSnapshot(s.appContext)
	if err != nil {
		log.Printf("SnapshotService: failed to record analytics snapshot: %v", err)
		return
	}
	log.Printf("SnapshotService: recorded analytics snapshot %d at %s", snap.ID, snap.TakenAt.Format(time.RFC3339))
}
