package services

import (
	"time"

	"github.com/go-co-op/gocron"

	"docs-rag-service/internal/logger"
)

// RefreshScheduler re-enqueues ingestion on a cron expression so the index
// tracks the live site.
type RefreshScheduler struct {
	scheduler *gocron.Scheduler
}

func NewRefreshScheduler() *RefreshScheduler {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()
	return &RefreshScheduler{scheduler: s}
}

// ScheduleRefresh registers the enqueue job under the given cron expression.
func (s *RefreshScheduler) ScheduleRefresh(cronExpr string, enqueue func() error) error {
	_, err := s.scheduler.Cron(cronExpr).Tag("ingest-refresh").Do(func() {
		logger.Info("Scheduled ingestion refresh triggered", "cron", cronExpr)
		if err := enqueue(); err != nil {
			logger.Error("Failed to enqueue scheduled ingestion", "error", err)
		}
	})
	return err
}

func (s *RefreshScheduler) Start() {
	s.scheduler.StartAsync()
}

func (s *RefreshScheduler) Stop() {
	s.scheduler.Stop()
}
