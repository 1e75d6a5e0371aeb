package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"imagegen/internal/models"
	"imagegen/internal/store"
)

type ReportStore interface {
	Insert(ctx context.Context, report models.WeeklyReport) error
	GetByWeekStart(ctx context.Context, weekStart time.Time) (models.WeeklyReport, error)
	ListByRange(ctx context.Context, start, end time.Time) ([]models.WeeklyReport, error)
}

// ReportService aggregates a trailing week of requests and transactions into
// a stored report with anomaly flags.
type ReportService struct {
	requests     RequestStore
	transactions TransactionStore
	reports      ReportStore
	log          *logrus.Logger
}

func NewReportService(requests RequestStore, transactions TransactionStore, reports ReportStore, log *logrus.Logger) *ReportService {
	return &ReportService{
		requests:     requests,
		transactions: transactions,
		reports:      reports,
		log:          log,
	}
}

// GenerateWeeklyReport builds the report for the half-open week ending at
// now's UTC midnight. At most one report exists per week start: an existing
// report is returned untouched, and a concurrent duplicate insert resolves to
// whichever row won.
func (s *ReportService) GenerateWeeklyReport(ctx context.Context, now time.Time) (models.WeeklyReport, error) {
	end := truncateToDay(now.UTC())
	start := end.AddDate(0, 0, -7)

	existing, err := s.reports.GetByWeekStart(ctx, start)
	if err == nil {
		s.log.WithFields(logrus.Fields{"reportId": existing.ID, "weekStart": start}).
			Info("weekly report already exists")
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.WeeklyReport{}, err
	}

	s.log.WithFields(logrus.Fields{"weekStart": start, "weekEnd": end}).Info("generating weekly report")

	requests, err := s.requests.ListInWindow(ctx, start, end)
	if err != nil {
		return models.WeeklyReport{}, fmt.Errorf("scan requests: %w", err)
	}

	var total, successful, failed int64
	byModel := map[string]int64{}
	bySize := map[string]int64{}
	byStyle := map[string]int64{}
	byColor := map[string]int64{}
	creditsBySize := map[string]int64{}
	for _, request := range requests {
		total++
		switch request.Status {
		case models.StatusCompleted:
			successful++
		case models.StatusFailed:
			failed++
		}
		byModel[bucket(request.Model)]++
		bySize[bucket(request.Size)]++
		byStyle[bucket(request.Style)]++
		byColor[bucket(request.Color)]++
		if request.Status == models.StatusCompleted {
			creditsBySize[bucket(request.Size)] += request.CreditsCharged
		}
	}

	consumed, err := s.transactions.SumInWindow(ctx, models.TransactionDeduction, start, end)
	if err != nil {
		return models.WeeklyReport{}, fmt.Errorf("sum deductions: %w", err)
	}
	refunded, err := s.transactions.SumInWindow(ctx, models.TransactionRefund, start, end)
	if err != nil {
		return models.WeeklyReport{}, fmt.Errorf("sum refunds: %w", err)
	}

	successRate := float64(0)
	if total > 0 {
		successRate = percentOf(successful, total).RoundBank(2).InexactFloat64()
	}

	report := models.WeeklyReport{
		ID:                   uuid.NewString(),
		WeekStartDate:        start,
		WeekEndDate:          end,
		TotalRequests:        total,
		SuccessfulRequests:   successful,
		FailedRequests:       failed,
		SuccessRate:          successRate,
		TotalCreditsConsumed: consumed,
		TotalCreditsRefunded: refunded,
		NetCreditsUsed:       consumed - refunded,
		RequestsByModel:      byModel,
		RequestsBySize:       bySize,
		RequestsByStyle:      byStyle,
		RequestsByColor:      byColor,
		CreditsBySize:        creditsBySize,
		Anomalies:            s.detectAnomalies(ctx, total, failed, byModel, start),
		CreatedAt:            time.Now().UTC(),
	}

	if err := s.reports.Insert(ctx, report); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return s.reports.GetByWeekStart(ctx, start)
		}
		return models.WeeklyReport{}, fmt.Errorf("store report: %w", err)
	}
	s.log.WithFields(logrus.Fields{"reportId": report.ID, "totalRequests": total}).
		Info("weekly report generated")
	return report, nil
}

// detectAnomalies flags volume spikes, high failure rates and model
// imbalance. Only the volume check needs last week's report as a baseline; a
// failed lookback is logged and treated as no prior data.
func (s *ReportService) detectAnomalies(ctx context.Context, total, failed int64, byModel map[string]int64, weekStart time.Time) []models.Anomaly {
	anomalies := []models.Anomaly{}

	prior, err := s.reports.GetByWeekStart(ctx, weekStart.AddDate(0, 0, -7))
	hasPrior := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.log.WithFields(logrus.Fields{"weekStart": weekStart}).
			Warnf("anomaly lookback failed: %v", err)
	}

	if hasPrior && prior.TotalRequests > 0 {
		change := percentOf(total-prior.TotalRequests, prior.TotalRequests)
		if change.Abs().GreaterThan(decimal.NewFromInt(50)) {
			severity := models.SeverityMedium
			if change.Abs().GreaterThan(decimal.NewFromInt(100)) {
				severity = models.SeverityHigh
			}
			current, previous := total, prior.TotalRequests
			anomalies = append(anomalies, models.Anomaly{
				Type:          "request_volume_spike",
				Description:   fmt.Sprintf("Request volume changed by %.1f%%", change.InexactFloat64()),
				Severity:      severity,
				CurrentValue:  &current,
				PreviousValue: &previous,
			})
		}
	}

	if total > 0 {
		rate := percentOf(failed, total)
		if rate.GreaterThan(decimal.NewFromInt(10)) {
			severity := models.SeverityMedium
			if rate.GreaterThan(decimal.NewFromInt(20)) {
				severity = models.SeverityHigh
			}
			value := rate.InexactFloat64()
			anomalies = append(anomalies, models.Anomaly{
				Type:        "high_failure_rate",
				Description: fmt.Sprintf("Failure rate is %.1f%%", value),
				Severity:    severity,
				FailureRate: &value,
			})
		}

		for model, count := range byModel {
			share := percentOf(count, total)
			if share.GreaterThan(decimal.NewFromInt(80)) {
				name := model
				percentage := share.InexactFloat64()
				anomalies = append(anomalies, models.Anomaly{
					Type:        "model_imbalance",
					Description: fmt.Sprintf("%s accounts for %.1f%% of requests", model, percentage),
					Severity:    models.SeverityLow,
					Model:       &name,
					Percentage:  &percentage,
				})
			}
		}
	}

	return anomalies
}

// ListReports returns stored reports whose week start falls inside
// [start, end], newest first.
func (s *ReportService) ListReports(ctx context.Context, start, end time.Time) ([]models.WeeklyReport, error) {
	return s.reports.ListByRange(ctx, start, end)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func percentOf(part, whole int64) decimal.Decimal {
	return decimal.NewFromInt(part).Div(decimal.NewFromInt(whole)).Mul(decimal.NewFromInt(100))
}

func bucket(value string) string {
	if value == "" {
		return "Unknown"
	}
	return value
}
