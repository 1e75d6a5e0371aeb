package store

import (
	"context"
	"fmt"
	"time"

	"imagegen/internal/models"
)

type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

type TransactionInput struct {
	ID                  string
	UserID              string
	Type                models.TransactionType
	Credits             int64
	Reason              string
	GenerationRequestID *string
}

func (s *TransactionStore) Create(ctx context.Context, tx Execer, input TransactionInput) error {
	query := `
		INSERT INTO credit_transactions (id, user_id, type, credits, reason, generation_request_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.UserID, string(input.Type), input.Credits, input.Reason, input.GenerationRequestID,
	)
	return err
}

func (s *TransactionStore) ListByUser(ctx context.Context, userID string, limit int) ([]models.CreditTransaction, error) {
	var rows []models.CreditTransaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, type, credits, reason, generation_request_id, created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if _, err := models.ParseTransactionType(string(row.Type)); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", row.ID, err)
		}
	}
	return rows, nil
}

// SumInWindow totals credits of one transaction type inside [start, end).
func (s *TransactionStore) SumInWindow(ctx context.Context, txType models.TransactionType, start, end time.Time) (int64, error) {
	var sum int64
	err := s.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(credits), 0)
		FROM credit_transactions
		WHERE type = $1 AND created_at >= $2 AND created_at < $3
	`, string(txType), start, end)
	return sum, err
}
