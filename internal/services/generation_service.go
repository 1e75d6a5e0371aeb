package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"imagegen/internal/db"
	"imagegen/internal/gateway"
	"imagegen/internal/metrics"
	"imagegen/internal/models"
	"imagegen/internal/store"
	"imagegen/internal/validator"
	"imagegen/internal/websocket"
)

type RequestStore interface {
	Create(ctx context.Context, tx store.Execer, input store.RequestInput) error
	GetByID(ctx context.Context, requestID string) (models.GenerationRequest, error)
	MarkCompleted(ctx context.Context, requestID, imageURL string) error
	MarkFailed(ctx context.Context, requestID, message string) error
	ListInWindow(ctx context.Context, start, end time.Time) ([]models.GenerationRequest, error)
}

type CreditLedger interface {
	GetBalance(ctx context.Context, userID string) (int64, error)
	Charge(ctx context.Context, tx store.Tx, userID string, amount int64, requestID string) (int64, error)
	Refund(ctx context.Context, userID string, amount int64, requestID string) (int64, error)
}

// GenerationFailedError reports a gateway failure whose charge has already
// been refunded.
type GenerationFailedError struct {
	RequestID       string
	Reason          string
	CreditsRefunded int64
}

func (e *GenerationFailedError) Error() string {
	return fmt.Sprintf("generation failed: %s", e.Reason)
}

type GenerationResult struct {
	RequestID       string
	DeductedCredits int64
	ImageURL        string
}

// GenerationService coordinates validate, charge, generate and
// finalize-or-refund for a single request.
type GenerationService struct {
	txRunner  db.TxRunner
	ledger    CreditLedger
	requests  RequestStore
	generator gateway.Generator
	hub       CreditHub
	log       *logrus.Logger
}

func NewGenerationService(txRunner db.TxRunner, ledger CreditLedger, requests RequestStore, generator gateway.Generator, hub CreditHub, log *logrus.Logger) *GenerationService {
	return &GenerationService{
		txRunner:  txRunner,
		ledger:    ledger,
		requests:  requests,
		generator: generator,
		hub:       hub,
		log:       log,
	}
}

func (s *GenerationService) Create(ctx context.Context, params models.GenerationParams) (GenerationResult, error) {
	if err := validator.ValidateGenerationRequest(params); err != nil {
		return GenerationResult{}, err
	}
	cost, ok := validator.CreditCost(params.Size)
	if !ok {
		return GenerationResult{}, fmt.Errorf("no credit cost for size %q", params.Size)
	}

	balance, err := s.ledger.GetBalance(ctx, params.UserID)
	if err != nil {
		return GenerationResult{}, err
	}
	if balance < cost {
		metrics.GenerationRequests.WithLabelValues("rejected").Inc()
		return GenerationResult{}, &InsufficientCreditsError{Required: cost, Available: balance}
	}

	requestID := uuid.NewString()
	var remaining int64
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		charged, err := s.ledger.Charge(ctx, tx, params.UserID, cost, requestID)
		if err != nil {
			return err
		}
		remaining = charged
		return s.requests.Create(ctx, tx, store.RequestInput{
			ID:             requestID,
			UserID:         params.UserID,
			Model:          params.Model,
			Style:          params.Style,
			Color:          params.Color,
			Size:           params.Size,
			Prompt:         params.Prompt,
			CreditsCharged: cost,
		})
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientCredits) {
			metrics.GenerationRequests.WithLabelValues("rejected").Inc()
		}
		return GenerationResult{}, err
	}
	metrics.CreditsCharged.Add(float64(cost))
	s.hub.BroadcastCredits(params.UserID, websocket.CreditUpdate{UserID: params.UserID, Credits: remaining})

	// The charge is committed. From here on the ledger must be reconciled
	// even if the caller goes away, so finalization ignores cancellation.
	finalizeCtx := context.WithoutCancel(ctx)

	request := models.GenerationRequest{
		ID:             requestID,
		UserID:         params.UserID,
		Model:          params.Model,
		Style:          params.Style,
		Color:          params.Color,
		Size:           params.Size,
		Prompt:         params.Prompt,
		CreditsCharged: cost,
		Status:         models.StatusPending,
	}
	timer := prometheus.NewTimer(metrics.GatewayLatency)
	result, genErr := s.generator.Generate(finalizeCtx, request)
	timer.ObserveDuration()

	if genErr != nil {
		s.log.WithFields(logrus.Fields{"requestId": requestID, "userId": params.UserID}).
			Errorf("generation failed: %v", genErr)
		if err := s.requests.MarkFailed(finalizeCtx, requestID, genErr.Error()); err != nil {
			return GenerationResult{}, err
		}
		if _, err := s.ledger.Refund(finalizeCtx, params.UserID, cost, requestID); err != nil {
			return GenerationResult{}, fmt.Errorf("refund after failed generation: %w", err)
		}
		metrics.CreditsRefunded.Add(float64(cost))
		metrics.GenerationRequests.WithLabelValues("failed").Inc()
		return GenerationResult{}, &GenerationFailedError{
			RequestID:       requestID,
			Reason:          genErr.Error(),
			CreditsRefunded: cost,
		}
	}

	if err := s.requests.MarkCompleted(finalizeCtx, requestID, result.ImageURL); err != nil {
		return GenerationResult{}, err
	}
	metrics.GenerationRequests.WithLabelValues("completed").Inc()
	return GenerationResult{
		RequestID:       requestID,
		DeductedCredits: cost,
		ImageURL:        result.ImageURL,
	}, nil
}

func (s *GenerationService) Get(ctx context.Context, requestID string) (models.GenerationRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GenerationRequest{}, ErrRequestNotFound
	}
	if err != nil {
		return models.GenerationRequest{}, err
	}
	return request, nil
}
