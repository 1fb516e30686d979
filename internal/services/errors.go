package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/exam-reader-service/internal/errors"
	"github.com/SAP-F-2025/exam-reader-service/internal/repositories"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")

	// Sheet processing errors
	ErrOCRFailed       = errors.New("ocr processing failed")
	ErrSheetUnreadable = errors.New("answer sheet could not be read")
	ErrInvalidTemplate = errors.New("invalid answer sheet template")

	// Run errors
	ErrExamRunNotFound     = errors.New("exam run not found")
	ErrPersistenceDisabled = errors.New("run persistence is not configured")
	ErrCacheDisabled       = errors.New("analytics cache is not configured")
	ErrUnsupportedFormat   = errors.New("unsupported report format")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string         `json:"rule"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value any) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]any) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrExamRunNotFound) ||
		errors.Is(err, repositories.ErrRunNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrInvalidTemplate) || errors.Is(err, ErrUnsupportedFormat) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsUnavailable reports failures of an external dependency the caller may retry
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrOCRFailed) ||
		errors.Is(err, ErrPersistenceDisabled) ||
		errors.Is(err, ErrCacheDisabled)
}
