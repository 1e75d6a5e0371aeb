package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"imagegen/internal/models"
)

type stubReportRunner struct {
	fn func(ctx context.Context, now time.Time) (models.WeeklyReport, error)
}

func (s stubReportRunner) GenerateWeeklyReport(ctx context.Context, now time.Time) (models.WeeklyReport, error) {
	if s.fn == nil {
		return models.WeeklyReport{}, nil
	}
	return s.fn(ctx, now)
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestNewRejectsBadSchedule(t *testing.T) {
	if _, err := New("every monday", stubReportRunner{}, testLogger()); err == nil {
		t.Fatalf("expected schedule parse error")
	}
}

func TestRunInvokesRunner(t *testing.T) {
	var gotNow time.Time
	s, err := New("0 0 * * 1", stubReportRunner{
		fn: func(_ context.Context, now time.Time) (models.WeeklyReport, error) {
			gotNow = now
			return models.WeeklyReport{ID: "report-1"}, nil
		},
	}, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.run()
	if gotNow.IsZero() {
		t.Fatalf("runner not invoked")
	}
	if gotNow.Location() != time.UTC {
		t.Fatalf("expected UTC run time, got %v", gotNow.Location())
	}
}

func TestRunSurvivesRunnerError(t *testing.T) {
	s, err := New("0 0 * * 1", stubReportRunner{
		fn: func(context.Context, time.Time) (models.WeeklyReport, error) {
			return models.WeeklyReport{}, errors.New("connection refused")
		},
	}, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.run()
}

func TestStartStop(t *testing.T) {
	s, err := New("0 0 * * 1", stubReportRunner{}, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Start()
	s.Stop()
}
