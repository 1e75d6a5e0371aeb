package handlers

import (
	"context"
	"time"

	"imagegen/internal/models"
	"imagegen/internal/services"
)

type GenerationService interface {
	Create(ctx context.Context, params models.GenerationParams) (services.GenerationResult, error)
	Get(ctx context.Context, requestID string) (models.GenerationRequest, error)
}

type CreditService interface {
	GetBalance(ctx context.Context, userID string) (int64, error)
	History(ctx context.Context, userID string, limit int) ([]models.CreditTransaction, error)
	CreateAccount(ctx context.Context, userID string, email *string, credits int64) (models.User, error)
}

type ReportService interface {
	GenerateWeeklyReport(ctx context.Context, now time.Time) (models.WeeklyReport, error)
	ListReports(ctx context.Context, start, end time.Time) ([]models.WeeklyReport, error)
}
