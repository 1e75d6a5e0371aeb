package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"

	"imagegen/internal/models"
)

var reportNow = time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)

func weekRequests() []models.GenerationRequest {
	return []models.GenerationRequest{
		{Model: "Model A", Size: "1024x1024", Style: "realistic", Color: "vibrant", Status: models.StatusCompleted, CreditsCharged: 3},
		{Model: "Model A", Size: "1024x1024", Style: "anime", Color: "pastel", Status: models.StatusCompleted, CreditsCharged: 3},
		{Model: "Model B", Size: "1024x1792", Style: "sketch", Color: "vibrant", Status: models.StatusCompleted, CreditsCharged: 4},
		{Model: "Model A", Size: "512x512", Style: "realistic", Color: "neon", Status: models.StatusFailed, CreditsCharged: 1},
		{Model: "Model B", Size: "1024x1024", Style: "anime", Color: "vibrant", Status: models.StatusFailed, CreditsCharged: 3},
		{Model: "Model A", Size: "512x512", Style: "cyberpunk", Color: "vintage", Status: models.StatusPending, CreditsCharged: 1},
	}
}

func TestGenerateWeeklyReport(t *testing.T) {
	var gotStart, gotEnd time.Time
	var inserted models.WeeklyReport
	service := NewReportService(stubRequestStore{
		listFn: func(_ context.Context, start, end time.Time) ([]models.GenerationRequest, error) {
			gotStart, gotEnd = start, end
			return weekRequests(), nil
		},
	}, stubTransactionStore{
		sumFn: func(_ context.Context, txType models.TransactionType, _, _ time.Time) (int64, error) {
			if txType == models.TransactionDeduction {
				return 15, nil
			}
			return 5, nil
		},
	}, stubReportStore{
		insertFn: func(_ context.Context, report models.WeeklyReport) error {
			inserted = report
			return nil
		},
	}, testLogger())

	report, err := service.GenerateWeeklyReport(context.Background(), reportNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantEnd := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	wantStart := wantEnd.AddDate(0, 0, -7)
	if !gotStart.Equal(wantStart) || !gotEnd.Equal(wantEnd) {
		t.Fatalf("expected window %v..%v, got %v..%v", wantStart, wantEnd, gotStart, gotEnd)
	}
	if !report.WeekStartDate.Equal(wantStart) || !report.WeekEndDate.Equal(wantEnd) {
		t.Fatalf("unexpected report window: %v..%v", report.WeekStartDate, report.WeekEndDate)
	}
	if report.TotalRequests != 6 || report.SuccessfulRequests != 3 || report.FailedRequests != 2 {
		t.Fatalf("unexpected counts: %d/%d/%d", report.TotalRequests, report.SuccessfulRequests, report.FailedRequests)
	}
	if report.SuccessRate != 50 {
		t.Fatalf("expected success rate 50, got %v", report.SuccessRate)
	}
	if report.TotalCreditsConsumed != 15 || report.TotalCreditsRefunded != 5 || report.NetCreditsUsed != 10 {
		t.Fatalf("unexpected credit totals: %d/%d/%d",
			report.TotalCreditsConsumed, report.TotalCreditsRefunded, report.NetCreditsUsed)
	}
	if report.RequestsByModel["Model A"] != 4 || report.RequestsByModel["Model B"] != 2 {
		t.Fatalf("unexpected model counts: %#v", report.RequestsByModel)
	}
	if report.RequestsBySize["1024x1024"] != 3 || report.RequestsBySize["512x512"] != 2 {
		t.Fatalf("unexpected size counts: %#v", report.RequestsBySize)
	}
	if report.CreditsBySize["1024x1024"] != 6 || report.CreditsBySize["1024x1792"] != 4 {
		t.Fatalf("completed requests only, got %#v", report.CreditsBySize)
	}
	if report.CreditsBySize["512x512"] != 0 {
		t.Fatalf("failed and pending requests must not count credits: %#v", report.CreditsBySize)
	}
	if len(report.Anomalies) != 1 {
		t.Fatalf("expected one anomaly, got %#v", report.Anomalies)
	}
	anomaly := report.Anomalies[0]
	if anomaly.Type != "high_failure_rate" || anomaly.Severity != models.SeverityHigh {
		t.Fatalf("unexpected anomaly: %#v", anomaly)
	}
	if anomaly.Description != "Failure rate is 33.3%" {
		t.Fatalf("unexpected description: %s", anomaly.Description)
	}
	if anomaly.FailureRate == nil {
		t.Fatalf("expected failure rate value")
	}
	if inserted.ID != report.ID {
		t.Fatalf("returned report must be the stored one")
	}
}

func TestGenerateWeeklyReportReturnsExisting(t *testing.T) {
	existing := models.WeeklyReport{ID: "report-1", TotalRequests: 9}
	service := NewReportService(stubRequestStore{
		listFn: func(context.Context, time.Time, time.Time) ([]models.GenerationRequest, error) {
			t.Fatalf("existing report must not be recomputed")
			return nil, nil
		},
	}, stubTransactionStore{}, stubReportStore{
		getByWeekStartFn: func(context.Context, time.Time) (models.WeeklyReport, error) {
			return existing, nil
		},
		insertFn: func(context.Context, models.WeeklyReport) error {
			t.Fatalf("no insert expected")
			return nil
		},
	}, testLogger())

	report, err := service.GenerateWeeklyReport(context.Background(), reportNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ID != "report-1" || report.TotalRequests != 9 {
		t.Fatalf("unexpected report: %#v", report)
	}
}

func TestGenerateWeeklyReportEmptyWindow(t *testing.T) {
	service := NewReportService(stubRequestStore{}, stubTransactionStore{}, stubReportStore{}, testLogger())

	report, err := service.GenerateWeeklyReport(context.Background(), reportNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalRequests != 0 || report.SuccessRate != 0 {
		t.Fatalf("unexpected totals: %#v", report)
	}
	if len(report.RequestsByModel) != 0 || len(report.CreditsBySize) != 0 {
		t.Fatalf("expected empty breakdowns: %#v", report)
	}
	if report.Anomalies == nil || len(report.Anomalies) != 0 {
		t.Fatalf("expected empty anomaly list, got %#v", report.Anomalies)
	}
}

func TestGenerateWeeklyReportVolumeSpike(t *testing.T) {
	weekStart := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	var requests []models.GenerationRequest
	for i := 0; i < 17; i++ {
		requests = append(requests, models.GenerationRequest{
			Model: "Model A", Size: "512x512", Status: models.StatusCompleted, CreditsCharged: 1,
		})
	}
	for i := 0; i < 3; i++ {
		requests = append(requests, models.GenerationRequest{
			Model: "Model B", Size: "512x512", Status: models.StatusCompleted, CreditsCharged: 1,
		})
	}
	service := NewReportService(stubRequestStore{
		listFn: func(context.Context, time.Time, time.Time) ([]models.GenerationRequest, error) {
			return requests, nil
		},
	}, stubTransactionStore{}, stubReportStore{
		getByWeekStartFn: func(_ context.Context, ws time.Time) (models.WeeklyReport, error) {
			if ws.Equal(weekStart.AddDate(0, 0, -7)) {
				return models.WeeklyReport{TotalRequests: 8}, nil
			}
			return models.WeeklyReport{}, sql.ErrNoRows
		},
	}, testLogger())

	report, err := service.GenerateWeeklyReport(context.Background(), reportNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Anomalies) != 2 {
		t.Fatalf("expected volume and imbalance anomalies, got %#v", report.Anomalies)
	}
	volume := report.Anomalies[0]
	if volume.Type != "request_volume_spike" || volume.Severity != models.SeverityHigh {
		t.Fatalf("unexpected anomaly: %#v", volume)
	}
	if volume.Description != "Request volume changed by 150.0%" {
		t.Fatalf("unexpected description: %s", volume.Description)
	}
	if volume.CurrentValue == nil || *volume.CurrentValue != 20 || volume.PreviousValue == nil || *volume.PreviousValue != 8 {
		t.Fatalf("unexpected values: %#v", volume)
	}
	imbalance := report.Anomalies[1]
	if imbalance.Type != "model_imbalance" || imbalance.Severity != models.SeverityLow {
		t.Fatalf("unexpected anomaly: %#v", imbalance)
	}
	if imbalance.Description != "Model A accounts for 85.0% of requests" {
		t.Fatalf("unexpected description: %s", imbalance.Description)
	}
}

func TestGenerateWeeklyReportVolumeDrop(t *testing.T) {
	weekStart := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	service := NewReportService(stubRequestStore{
		listFn: func(context.Context, time.Time, time.Time) ([]models.GenerationRequest, error) {
			return []models.GenerationRequest{
				{Model: "Model A", Size: "512x512", Status: models.StatusCompleted, CreditsCharged: 1},
				{Model: "Model A", Size: "512x512", Status: models.StatusCompleted, CreditsCharged: 1},
				{Model: "Model B", Size: "512x512", Status: models.StatusCompleted, CreditsCharged: 1},
				{Model: "Model B", Size: "512x512", Status: models.StatusCompleted, CreditsCharged: 1},
			}, nil
		},
	}, stubTransactionStore{}, stubReportStore{
		getByWeekStartFn: func(_ context.Context, ws time.Time) (models.WeeklyReport, error) {
			if ws.Equal(weekStart.AddDate(0, 0, -7)) {
				return models.WeeklyReport{TotalRequests: 20}, nil
			}
			return models.WeeklyReport{}, sql.ErrNoRows
		},
	}, testLogger())

	report, err := service.GenerateWeeklyReport(context.Background(), reportNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Anomalies) != 1 {
		t.Fatalf("expected one anomaly, got %#v", report.Anomalies)
	}
	volume := report.Anomalies[0]
	if volume.Severity != models.SeverityMedium {
		t.Fatalf("expected medium severity: %#v", volume)
	}
	if volume.Description != "Request volume changed by -80.0%" {
		t.Fatalf("unexpected description: %s", volume.Description)
	}
}

func TestGenerateWeeklyReportLookbackFailure(t *testing.T) {
	weekStart := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	service := NewReportService(stubRequestStore{
		listFn: func(context.Context, time.Time, time.Time) ([]models.GenerationRequest, error) {
			return weekRequests(), nil
		},
	}, stubTransactionStore{}, stubReportStore{
		getByWeekStartFn: func(_ context.Context, ws time.Time) (models.WeeklyReport, error) {
			if ws.Equal(weekStart.AddDate(0, 0, -7)) {
				return models.WeeklyReport{}, errors.New("connection refused")
			}
			return models.WeeklyReport{}, sql.ErrNoRows
		},
	}, testLogger())

	report, err := service.GenerateWeeklyReport(context.Background(), reportNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Anomalies) != 1 || report.Anomalies[0].Type != "high_failure_rate" {
		t.Fatalf("failure check must survive a failed lookback: %#v", report.Anomalies)
	}
}

func TestGenerateWeeklyReportDuplicateInsert(t *testing.T) {
	weekStart := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	calls := 0
	service := NewReportService(stubRequestStore{}, stubTransactionStore{}, stubReportStore{
		getByWeekStartFn: func(_ context.Context, ws time.Time) (models.WeeklyReport, error) {
			if !ws.Equal(weekStart) {
				return models.WeeklyReport{}, sql.ErrNoRows
			}
			calls++
			if calls == 1 {
				return models.WeeklyReport{}, sql.ErrNoRows
			}
			return models.WeeklyReport{ID: "winner"}, nil
		},
		insertFn: func(context.Context, models.WeeklyReport) error {
			return &pq.Error{Code: "23505"}
		},
	}, testLogger())

	report, err := service.GenerateWeeklyReport(context.Background(), reportNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ID != "winner" {
		t.Fatalf("expected the committed report, got %#v", report)
	}
}

func TestListReports(t *testing.T) {
	var gotStart, gotEnd time.Time
	service := NewReportService(stubRequestStore{}, stubTransactionStore{}, stubReportStore{
		listFn: func(_ context.Context, start, end time.Time) ([]models.WeeklyReport, error) {
			gotStart, gotEnd = start, end
			return []models.WeeklyReport{{ID: "report-2"}, {ID: "report-1"}}, nil
		},
	}, testLogger())

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	reports, err := service.ListReports(context.Background(), start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reports) != 2 || reports[0].ID != "report-2" {
		t.Fatalf("unexpected reports: %#v", reports)
	}
	if !gotStart.Equal(start) || !gotEnd.Equal(end) {
		t.Fatalf("unexpected range: %v..%v", gotStart, gotEnd)
	}
}
