package store

import (
	"context"
	"fmt"
	"time"

	"imagegen/internal/models"
)

type RequestStore struct {
	db DB
}

func NewRequestStore(db DB) *RequestStore {
	return &RequestStore{db: db}
}

type RequestInput struct {
	ID             string
	UserID         string
	Model          string
	Style          string
	Color          string
	Size           string
	Prompt         string
	CreditsCharged int64
}

// Create inserts a pending request record inside the caller's transaction.
func (s *RequestStore) Create(ctx context.Context, tx Execer, input RequestInput) error {
	query := `
		INSERT INTO generation_requests (id, user_id, model, style, color, size, prompt, credits_charged, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending')
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.UserID, input.Model, input.Style, input.Color, input.Size, input.Prompt, input.CreditsCharged,
	)
	return err
}

func (s *RequestStore) GetByID(ctx context.Context, requestID string) (models.GenerationRequest, error) {
	var row models.GenerationRequest
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, model, style, color, size, prompt, credits_charged, status, image_url, error, created_at, completed_at
		FROM generation_requests
		WHERE id = $1
	`, requestID)
	if err != nil {
		return models.GenerationRequest{}, err
	}
	if _, err := models.ParseRequestStatus(string(row.Status)); err != nil {
		return models.GenerationRequest{}, fmt.Errorf("request %s: %w", row.ID, err)
	}
	return row, nil
}

func (s *RequestStore) MarkCompleted(ctx context.Context, requestID, imageURL string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE generation_requests
		SET status = 'completed', image_url = $1, completed_at = NOW()
		WHERE id = $2
	`, imageURL, requestID)
	return err
}

func (s *RequestStore) MarkFailed(ctx context.Context, requestID, message string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE generation_requests
		SET status = 'failed', error = $1, completed_at = NOW()
		WHERE id = $2
	`, message, requestID)
	return err
}

// ListInWindow returns requests created inside [start, end).
func (s *RequestStore) ListInWindow(ctx context.Context, start, end time.Time) ([]models.GenerationRequest, error) {
	var rows []models.GenerationRequest
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, model, style, color, size, prompt, credits_charged, status, image_url, error, created_at, completed_at
		FROM generation_requests
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at
	`, start, end)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if _, err := models.ParseRequestStatus(string(row.Status)); err != nil {
			return nil, fmt.Errorf("request %s: %w", row.ID, err)
		}
	}
	return rows, nil
}
