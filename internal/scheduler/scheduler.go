package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"imagegen/internal/metrics"
	"imagegen/internal/models"
)

const runTimeout = 5 * time.Minute

type ReportRunner interface {
	GenerateWeeklyReport(ctx context.Context, now time.Time) (models.WeeklyReport, error)
}

// Scheduler runs the weekly report on a cron schedule. Schedules are
// evaluated in UTC regardless of the host timezone.
type Scheduler struct {
	cron   *cron.Cron
	runner ReportRunner
	log    *logrus.Logger
}

func New(schedule string, runner ReportRunner, log *logrus.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		runner: runner,
		log:    log,
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.log.Info("report scheduler started")
	s.cron.Start()
}

// Stop waits for an in-flight run to finish before returning.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("report scheduler stopped")
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	report, err := s.runner.GenerateWeeklyReport(ctx, time.Now().UTC())
	if err != nil {
		metrics.ReportRuns.WithLabelValues("error").Inc()
		s.log.Errorf("scheduled report run failed: %v", err)
		return
	}
	metrics.ReportRuns.WithLabelValues("success").Inc()
	s.log.WithFields(logrus.Fields{"reportId": report.ID, "weekStart": report.WeekStartDate}).
		Info("scheduled report run finished")
}
