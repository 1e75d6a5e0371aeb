package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"imagegen/internal/models"
)

// ErrValidation matches every validation failure via errors.Is.
var ErrValidation = errors.New("validation failed")

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

var (
	ValidModels = []string{"Model A", "Model B"}
	ValidStyles = []string{"realistic", "anime", "oil painting", "sketch", "cyberpunk", "watercolor"}
	ValidColors = []string{"vibrant", "monochrome", "pastel", "neon", "vintage"}
	ValidSizes  = []string{"512x512", "1024x1024", "1024x1792"}
)

var creditCosts = map[string]int64{
	"512x512":   1,
	"1024x1024": 3,
	"1024x1792": 4,
}

const maxPromptLength = 1000

var userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateGenerationRequest returns the first violation as a *ValidationError.
// Fields are checked in a fixed order: required, userId, option sets, prompt.
func ValidateGenerationRequest(params models.GenerationParams) error {
	required := []struct {
		name     string
		value    string
		emptyMsg string
	}{
		{"userId", params.UserID, "userId cannot be empty"},
		{"model", params.Model, ""},
		{"style", params.Style, ""},
		{"color", params.Color, ""},
		{"size", params.Size, ""},
		{"prompt", params.Prompt, "Prompt cannot be empty"},
	}
	for _, field := range required {
		if field.value == "" {
			return &ValidationError{Field: field.name, Message: fmt.Sprintf("Missing required field: %s", field.name)}
		}
		if field.emptyMsg != "" && strings.TrimSpace(field.value) == "" {
			return &ValidationError{Field: field.name, Message: field.emptyMsg}
		}
	}

	if err := ValidateUserID(params.UserID); err != nil {
		return err
	}

	if !contains(ValidModels, params.Model) {
		return &ValidationError{Field: "model", Message: fmt.Sprintf("Invalid model. Must be one of: %s", strings.Join(ValidModels, ", "))}
	}
	if !contains(ValidStyles, params.Style) {
		return &ValidationError{Field: "style", Message: fmt.Sprintf("Invalid style. Must be one of: %s", strings.Join(ValidStyles, ", "))}
	}
	if !contains(ValidColors, params.Color) {
		return &ValidationError{Field: "color", Message: fmt.Sprintf("Invalid color. Must be one of: %s", strings.Join(ValidColors, ", "))}
	}
	if !contains(ValidSizes, params.Size) {
		return &ValidationError{Field: "size", Message: fmt.Sprintf("Invalid size. Must be one of: %s", strings.Join(ValidSizes, ", "))}
	}

	if utf8.RuneCountInString(strings.TrimSpace(params.Prompt)) > maxPromptLength {
		return &ValidationError{Field: "prompt", Message: "Prompt must be less than 1000 characters"}
	}

	return nil
}

// ValidateUserID accepts 1 to 128 characters of [a-zA-Z0-9_-] after trimming.
func ValidateUserID(userID string) error {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return &ValidationError{Field: "userId", Message: "userId cannot be empty"}
	}
	if len(trimmed) > 128 || !userIDRegex.MatchString(trimmed) {
		return &ValidationError{Field: "userId", Message: "Invalid userId format"}
	}
	return nil
}

// CreditCost returns the cost for a size; ok is false for unknown sizes.
func CreditCost(size string) (int64, bool) {
	cost, ok := creditCosts[size]
	return cost, ok
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
