package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"imagegen/internal/db"
	"imagegen/internal/models"
	"imagegen/internal/store"
	"imagegen/internal/websocket"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountExists       = errors.New("account already exists")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrRequestNotFound     = errors.New("generation request not found")
)

// InsufficientCreditsError carries the amounts the rejection response needs.
type InsufficientCreditsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrInsufficientCredits
}

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id string, email *string, credits int64) error
	GetByID(ctx context.Context, userID string) (models.User, error)
	GetForUpdate(ctx context.Context, tx store.Getter, userID string) (models.User, error)
	UpdateCredits(ctx context.Context, tx store.Execer, userID string, credits int64) error
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.CreditTransaction, error)
	SumInWindow(ctx context.Context, txType models.TransactionType, start, end time.Time) (int64, error)
}

type CreditHub interface {
	BroadcastCredits(userID string, update websocket.CreditUpdate)
}

const maxHistoryLimit = 50

// CreditService owns balance mutation; nothing else writes users or
// credit_transactions.
type CreditService struct {
	txRunner       db.TxRunner
	users          UserStore
	transactions   TransactionStore
	hub            CreditHub
	initialCredits int64
	log            *logrus.Logger
}

func NewCreditService(txRunner db.TxRunner, users UserStore, transactions TransactionStore, hub CreditHub, initialCredits int64, log *logrus.Logger) *CreditService {
	return &CreditService{
		txRunner:       txRunner,
		users:          users,
		transactions:   transactions,
		hub:            hub,
		initialCredits: initialCredits,
		log:            log,
	}
}

// GetBalance returns 0 for unknown users. Infrastructure errors propagate
// instead of masquerading as an empty balance.
func (s *CreditService) GetBalance(ctx context.Context, userID string) (int64, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return user.Credits, nil
}

// Charge deducts amount inside the caller's transaction and records the
// deduction. The caller decides whether the surrounding work commits.
func (s *CreditService) Charge(ctx context.Context, tx store.Tx, userID string, amount int64, requestID string) (int64, error) {
	user, err := s.users.GetForUpdate(ctx, tx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, err
	}
	if user.Credits < amount {
		return 0, &InsufficientCreditsError{Required: amount, Available: user.Credits}
	}
	remaining := user.Credits - amount
	if err := s.users.UpdateCredits(ctx, tx, userID, remaining); err != nil {
		return 0, err
	}
	if err := s.transactions.Create(ctx, tx, store.TransactionInput{
		ID:                  uuid.NewString(),
		UserID:              userID,
		Type:                models.TransactionDeduction,
		Credits:             amount,
		Reason:              fmt.Sprintf("Image generation - %d credits", amount),
		GenerationRequestID: &requestID,
	}); err != nil {
		return 0, err
	}
	s.log.WithFields(logrus.Fields{"userId": userID, "credits": amount}).Info("deducted credits")
	return remaining, nil
}

// Refund returns amount to the user in its own transaction. A missing account
// is created with the refunded amount as its balance.
func (s *CreditService) Refund(ctx context.Context, userID string, amount int64, requestID string) (int64, error) {
	var balance int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		user, err := s.users.GetForUpdate(ctx, tx, userID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			balance = amount
			if err := s.users.Create(ctx, tx, userID, nil, amount); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			balance = user.Credits + amount
			if err := s.users.UpdateCredits(ctx, tx, userID, balance); err != nil {
				return err
			}
		}
		return s.transactions.Create(ctx, tx, store.TransactionInput{
			ID:                  uuid.NewString(),
			UserID:              userID,
			Type:                models.TransactionRefund,
			Credits:             amount,
			Reason:              fmt.Sprintf("Refund for failed generation - %d credits", amount),
			GenerationRequestID: &requestID,
		})
	})
	if err != nil {
		return 0, err
	}
	s.log.WithFields(logrus.Fields{"userId": userID, "credits": amount}).Info("refunded credits")
	s.hub.BroadcastCredits(userID, websocket.CreditUpdate{UserID: userID, Credits: balance})
	return balance, nil
}

// History returns the newest transactions first, capped at maxHistoryLimit.
func (s *CreditService) History(ctx context.Context, userID string, limit int) ([]models.CreditTransaction, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.transactions.ListByUser(ctx, userID, limit)
}

// CreateAccount provisions a user with an opening balance and its matching
// credit record. credits <= 0 falls back to the configured initial allocation.
func (s *CreditService) CreateAccount(ctx context.Context, userID string, email *string, credits int64) (models.User, error) {
	if credits <= 0 {
		credits = s.initialCredits
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.users.Create(ctx, tx, userID, email, credits); err != nil {
			return err
		}
		return s.transactions.Create(ctx, tx, store.TransactionInput{
			ID:      uuid.NewString(),
			UserID:  userID,
			Type:    models.TransactionCredit,
			Credits: credits,
			Reason:  fmt.Sprintf("Initial credit allocation - %d credits", credits),
		})
	})
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.User{}, ErrAccountExists
		}
		return models.User{}, err
	}
	s.log.WithFields(logrus.Fields{"userId": userID, "credits": credits}).Info("created account")
	s.hub.BroadcastCredits(userID, websocket.CreditUpdate{UserID: userID, Credits: credits})
	return s.users.GetByID(ctx, userID)
}
