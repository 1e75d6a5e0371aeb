package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"imagegen/internal/models"
)

type ReportStore struct {
	db DB
}

func NewReportStore(db DB) *ReportStore {
	return &ReportStore{db: db}
}

type reportRow struct {
	ID                   string    `db:"id"`
	WeekStart            time.Time `db:"week_start"`
	WeekEnd              time.Time `db:"week_end"`
	TotalRequests        int64     `db:"total_requests"`
	SuccessfulRequests   int64     `db:"successful_requests"`
	FailedRequests       int64     `db:"failed_requests"`
	SuccessRate          float64   `db:"success_rate"`
	TotalCreditsConsumed int64     `db:"total_credits_consumed"`
	TotalCreditsRefunded int64     `db:"total_credits_refunded"`
	NetCreditsUsed       int64     `db:"net_credits_used"`
	RequestsByModel      []byte    `db:"requests_by_model"`
	RequestsBySize       []byte    `db:"requests_by_size"`
	RequestsByStyle      []byte    `db:"requests_by_style"`
	RequestsByColor      []byte    `db:"requests_by_color"`
	CreditsBySize        []byte    `db:"credits_by_size"`
	Anomalies            []byte    `db:"anomalies"`
	CreatedAt            time.Time `db:"created_at"`
}

const reportColumns = `id, week_start, week_end, total_requests, successful_requests, failed_requests, success_rate,
		total_credits_consumed, total_credits_refunded, net_credits_used,
		requests_by_model, requests_by_size, requests_by_style, requests_by_color, credits_by_size, anomalies, created_at`

func (s *ReportStore) Insert(ctx context.Context, report models.WeeklyReport) error {
	byModel, err := json.Marshal(report.RequestsByModel)
	if err != nil {
		return err
	}
	bySize, err := json.Marshal(report.RequestsBySize)
	if err != nil {
		return err
	}
	byStyle, err := json.Marshal(report.RequestsByStyle)
	if err != nil {
		return err
	}
	byColor, err := json.Marshal(report.RequestsByColor)
	if err != nil {
		return err
	}
	creditsBySize, err := json.Marshal(report.CreditsBySize)
	if err != nil {
		return err
	}
	anomalies, err := json.Marshal(report.Anomalies)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO weekly_reports (id, week_start, week_end, total_requests, successful_requests, failed_requests, success_rate,
			total_credits_consumed, total_credits_refunded, net_credits_used,
			requests_by_model, requests_by_size, requests_by_style, requests_by_color, credits_by_size, anomalies, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		report.ID, report.WeekStartDate, report.WeekEndDate,
		report.TotalRequests, report.SuccessfulRequests, report.FailedRequests, report.SuccessRate,
		report.TotalCreditsConsumed, report.TotalCreditsRefunded, report.NetCreditsUsed,
		byModel, bySize, byStyle, byColor, creditsBySize, anomalies, report.CreatedAt,
	)
	return err
}

func (s *ReportStore) GetByWeekStart(ctx context.Context, weekStart time.Time) (models.WeeklyReport, error) {
	var row reportRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+reportColumns+`
		FROM weekly_reports
		WHERE week_start = $1
	`, weekStart)
	if err != nil {
		return models.WeeklyReport{}, err
	}
	return rowToReport(row)
}

// ListByRange returns reports whose week start falls in [start, end], newest first.
func (s *ReportStore) ListByRange(ctx context.Context, start, end time.Time) ([]models.WeeklyReport, error) {
	var rows []reportRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+reportColumns+`
		FROM weekly_reports
		WHERE week_start >= $1 AND week_start <= $2
		ORDER BY week_start DESC
	`, start, end)
	if err != nil {
		return nil, err
	}
	reports := make([]models.WeeklyReport, 0, len(rows))
	for _, row := range rows {
		report, err := rowToReport(row)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func rowToReport(row reportRow) (models.WeeklyReport, error) {
	report := models.WeeklyReport{
		ID:                   row.ID,
		WeekStartDate:        row.WeekStart,
		WeekEndDate:          row.WeekEnd,
		TotalRequests:        row.TotalRequests,
		SuccessfulRequests:   row.SuccessfulRequests,
		FailedRequests:       row.FailedRequests,
		SuccessRate:          row.SuccessRate,
		TotalCreditsConsumed: row.TotalCreditsConsumed,
		TotalCreditsRefunded: row.TotalCreditsRefunded,
		NetCreditsUsed:       row.NetCreditsUsed,
	}
	for _, field := range []struct {
		raw  []byte
		dest *map[string]int64
	}{
		{row.RequestsByModel, &report.RequestsByModel},
		{row.RequestsBySize, &report.RequestsBySize},
		{row.RequestsByStyle, &report.RequestsByStyle},
		{row.RequestsByColor, &report.RequestsByColor},
		{row.CreditsBySize, &report.CreditsBySize},
	} {
		if len(field.raw) == 0 {
			*field.dest = map[string]int64{}
			continue
		}
		if err := json.Unmarshal(field.raw, field.dest); err != nil {
			return models.WeeklyReport{}, fmt.Errorf("report %s: %w", row.ID, err)
		}
	}
	if len(row.Anomalies) > 0 {
		if err := json.Unmarshal(row.Anomalies, &report.Anomalies); err != nil {
			return models.WeeklyReport{}, fmt.Errorf("report %s anomalies: %w", row.ID, err)
		}
	}
	if report.Anomalies == nil {
		report.Anomalies = []models.Anomaly{}
	}
	report.CreatedAt = row.CreatedAt
	return report, nil
}
