package models

import (
	"fmt"
	"time"
)

type TransactionType string

const (
	TransactionDeduction TransactionType = "deduction"
	TransactionRefund    TransactionType = "refund"
	TransactionCredit    TransactionType = "credit"
)

func ParseTransactionType(value string) (TransactionType, error) {
	switch TransactionType(value) {
	case TransactionDeduction, TransactionRefund, TransactionCredit:
		return TransactionType(value), nil
	}
	return "", fmt.Errorf("unknown transaction type %q", value)
}

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusCompleted RequestStatus = "completed"
	StatusFailed    RequestStatus = "failed"
)

func ParseRequestStatus(value string) (RequestStatus, error) {
	switch RequestStatus(value) {
	case StatusPending, StatusCompleted, StatusFailed:
		return RequestStatus(value), nil
	}
	return "", fmt.Errorf("unknown request status %q", value)
}

type AnomalySeverity string

const (
	SeverityLow    AnomalySeverity = "low"
	SeverityMedium AnomalySeverity = "medium"
	SeverityHigh   AnomalySeverity = "high"
)

type User struct {
	ID        string    `db:"id" json:"userId"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Credits   int64     `db:"credits" json:"credits"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type CreditTransaction struct {
	ID                  string          `db:"id" json:"id"`
	UserID              string          `db:"user_id" json:"userId"`
	Type                TransactionType `db:"type" json:"type"`
	Credits             int64           `db:"credits" json:"credits"`
	Reason              string          `db:"reason" json:"reason"`
	GenerationRequestID *string         `db:"generation_request_id" json:"generationRequestId,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"timestamp"`
}

// GenerationParams is the client-supplied portion of a generation request.
type GenerationParams struct {
	UserID string `json:"userId"`
	Model  string `json:"model"`
	Style  string `json:"style"`
	Color  string `json:"color"`
	Size   string `json:"size"`
	Prompt string `json:"prompt"`
}

type GenerationRequest struct {
	ID             string        `db:"id" json:"id"`
	UserID         string        `db:"user_id" json:"userId"`
	Model          string        `db:"model" json:"model"`
	Style          string        `db:"style" json:"style"`
	Color          string        `db:"color" json:"color"`
	Size           string        `db:"size" json:"size"`
	Prompt         string        `db:"prompt" json:"prompt"`
	CreditsCharged int64         `db:"credits_charged" json:"creditsCharged"`
	Status         RequestStatus `db:"status" json:"status"`
	ImageURL       *string       `db:"image_url" json:"imageUrl,omitempty"`
	Error          *string       `db:"error" json:"error,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"createdAt"`
	CompletedAt    *time.Time    `db:"completed_at" json:"completedAt,omitempty"`
}

type Anomaly struct {
	Type          string          `json:"type"`
	Description   string          `json:"description"`
	Severity      AnomalySeverity `json:"severity"`
	CurrentValue  *int64          `json:"currentValue,omitempty"`
	PreviousValue *int64          `json:"previousValue,omitempty"`
	FailureRate   *float64        `json:"failureRate,omitempty"`
	Model         *string         `json:"model,omitempty"`
	Percentage    *float64        `json:"percentage,omitempty"`
}

type WeeklyReport struct {
	ID                   string           `json:"reportId"`
	WeekStartDate        time.Time        `json:"weekStartDate"`
	WeekEndDate          time.Time        `json:"weekEndDate"`
	TotalRequests        int64            `json:"totalRequests"`
	SuccessfulRequests   int64            `json:"successfulRequests"`
	FailedRequests       int64            `json:"failedRequests"`
	SuccessRate          float64          `json:"successRate"`
	TotalCreditsConsumed int64            `json:"totalCreditsConsumed"`
	TotalCreditsRefunded int64            `json:"totalCreditsRefunded"`
	NetCreditsUsed       int64            `json:"netCreditsUsed"`
	RequestsByModel      map[string]int64 `json:"requestsByModel"`
	RequestsBySize       map[string]int64 `json:"requestsBySize"`
	RequestsByStyle      map[string]int64 `json:"requestsByStyle"`
	RequestsByColor      map[string]int64 `json:"requestsByColor"`
	CreditsBySize        map[string]int64 `json:"creditsBySize"`
	Anomalies            []Anomaly        `json:"anomalies"`
	CreatedAt            time.Time        `json:"createdAt"`
}
