package handlers

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"imagegen/internal/config"
	"imagegen/internal/models"
	"imagegen/internal/services"
	"imagegen/internal/websocket"
)

type stubGenerationService struct {
	createFn func(ctx context.Context, params models.GenerationParams) (services.GenerationResult, error)
	getFn    func(ctx context.Context, requestID string) (models.GenerationRequest, error)
}

func (s stubGenerationService) Create(ctx context.Context, params models.GenerationParams) (services.GenerationResult, error) {
	if s.createFn == nil {
		return services.GenerationResult{}, nil
	}
	return s.createFn(ctx, params)
}

func (s stubGenerationService) Get(ctx context.Context, requestID string) (models.GenerationRequest, error) {
	if s.getFn == nil {
		return models.GenerationRequest{}, nil
	}
	return s.getFn(ctx, requestID)
}

type stubCreditService struct {
	getBalanceFn    func(ctx context.Context, userID string) (int64, error)
	historyFn       func(ctx context.Context, userID string, limit int) ([]models.CreditTransaction, error)
	createAccountFn func(ctx context.Context, userID string, email *string, credits int64) (models.User, error)
}

func (s stubCreditService) GetBalance(ctx context.Context, userID string) (int64, error) {
	if s.getBalanceFn == nil {
		return 0, nil
	}
	return s.getBalanceFn(ctx, userID)
}

func (s stubCreditService) History(ctx context.Context, userID string, limit int) ([]models.CreditTransaction, error) {
	if s.historyFn == nil {
		return nil, nil
	}
	return s.historyFn(ctx, userID, limit)
}

func (s stubCreditService) CreateAccount(ctx context.Context, userID string, email *string, credits int64) (models.User, error) {
	if s.createAccountFn == nil {
		return models.User{}, nil
	}
	return s.createAccountFn(ctx, userID, email, credits)
}

type stubReportService struct {
	generateFn func(ctx context.Context, now time.Time) (models.WeeklyReport, error)
	listFn     func(ctx context.Context, start, end time.Time) ([]models.WeeklyReport, error)
}

func (s stubReportService) GenerateWeeklyReport(ctx context.Context, now time.Time) (models.WeeklyReport, error) {
	if s.generateFn == nil {
		return models.WeeklyReport{}, nil
	}
	return s.generateFn(ctx, now)
}

func (s stubReportService) ListReports(ctx context.Context, start, end time.Time) ([]models.WeeklyReport, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, start, end)
}

func newTestHandler(generations GenerationService, credits CreditService, reports ReportService) *Handler {
	cfg := config.Config{
		AppEnv:         "test",
		Port:           "0",
		AllowedOrigins: "*",
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(cfg, generations, credits, reports, websocket.NewHub(), log)
}

func stringPtr(value string) *string {
	return &value
}
