package store

import (
	"context"

	"imagegen/internal/models"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, tx Execer, id string, email *string, credits int64) error {
	query := `
		INSERT INTO users (id, email, credits)
		VALUES ($1, $2, $3)
	`
	_, err := tx.ExecContext(ctx, query, id, email, credits)
	return err
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, email, credits, created_at, updated_at
		FROM users
		WHERE id = $1
	`, userID)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

func (s *UserStore) GetForUpdate(ctx context.Context, tx Getter, userID string) (models.User, error) {
	var row models.User
	err := tx.GetContext(ctx, &row, `
		SELECT id, email, credits, created_at, updated_at
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, userID)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

func (s *UserStore) UpdateCredits(ctx context.Context, tx Execer, userID string, credits int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET credits = $1, updated_at = NOW()
		WHERE id = $2
	`, credits, userID)
	return err
}

