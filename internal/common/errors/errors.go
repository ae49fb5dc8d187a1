// Package errors provides standardized error handling for the query pipeline.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Pipeline error taxonomy. Nothing here is fatal on its own: every code maps
// to a degradation path (fallback provider, defaults, or generic response).
const (
	ErrCodeClassificationAmbiguous ErrorCode = "CLASSIFICATION_AMBIGUOUS"
	ErrCodeProviderUnavailable     ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrCodeProviderTimeout         ErrorCode = "PROVIDER_TIMEOUT"
	ErrCodeSchemaInvalid           ErrorCode = "SCHEMA_INVALID"
	ErrCodeSchemaEmpty             ErrorCode = "SCHEMA_EMPTY"
	ErrCodeValidationFailed        ErrorCode = "VALIDATION_FAILED"
	ErrCodeSubIntentFailed         ErrorCode = "SUB_INTENT_FAILED"
	ErrCodeConfigUnavailable       ErrorCode = "CONFIG_UNAVAILABLE"

	ErrCodeWebSearchTimeout   ErrorCode = "WEB_SEARCH_TIMEOUT"
	ErrCodeLLMTimeout         ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMSynthesisFailed ErrorCode = "LLM_SYNTHESIS_FAILED"

	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewClassificationAmbiguousError marks a query no category claimed with
// sufficient confidence. Non-fatal: the caller falls back to the LLM.
func NewClassificationAmbiguousError(query string) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassificationAmbiguous,
		Message:   "No intent category cleared its confidence threshold",
		Details:   fmt.Sprintf("query: %s", query),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderUnavailableError creates a non-fatal provider failure; the
// provider is excluded from fusion for this request.
func NewProviderUnavailableError(providerID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderUnavailable,
		Message:   "Search provider call failed",
		Details:   fmt.Sprintf("provider: %s, error: %s", providerID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderTimeoutError creates a non-fatal per-provider timeout.
func NewProviderTimeoutError(providerID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderTimeout,
		Message:   "Search provider exceeded its timeout",
		Details:   fmt.Sprintf("provider: %s", providerID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSchemaInvalidError marks a malformed RAG payload; triggers web-search fallback.
func NewSchemaInvalidError(category, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemaInvalid,
		Message:   "RAG payload failed schema validation",
		Details:   fmt.Sprintf("category: %s, %s", category, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSchemaEmptyError marks a well-formed RAG payload with no usable data.
func NewSchemaEmptyError(category string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemaEmpty,
		Message:   "RAG payload contained no data",
		Details:   fmt.Sprintf("category: %s", category),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError marks answer text that failed its must-contain
// rules after the single corrective retry.
func NewValidationFailedError(category string, violations []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Synthesized answer failed validation",
		Details:   fmt.Sprintf("category: %s, violations: %s", category, strings.Join(violations, ",")),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubIntentFailedError marks one sub-intent's failure; the chain continues.
func NewSubIntentFailedError(position int, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubIntentFailed,
		Message:   "Sub-intent handler failed",
		Details:   fmt.Sprintf("position: %d, error: %s", position, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigUnavailableError marks a failed remote configuration refresh;
// the last good snapshot (or compiled-in defaults) stays in effect.
func NewConfigUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigUnavailable,
		Message:   "Configuration service unavailable, using defaults",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWebSearchTimeoutError creates a non-retryable (returns empty) web search timeout error.
func NewWebSearchTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeWebSearchTimeout,
		Message:   "Web search API timeout",
		Details:   "Search call exceeded timeout threshold",
		Retryable: false, // return empty, don't retry
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMTimeoutError creates a retryable LLM timeout error.
func NewLLMTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "Text generation timeout",
		Details:   "LLM call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMSynthesisFailedError creates a retryable LLM synthesis error.
func NewLLMSynthesisFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMSynthesisFailed,
		Message:   "Text generation API error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError marks a cache read/write failure; degrades to a miss.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Response cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Retry Policy
// ==========================

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProviderUnavailable,
		ErrCodeLLMSynthesisFailed,
		ErrCodeConfigUnavailable:
		return 3 // Retryable technical errors

	case ErrCodeProviderTimeout,
		ErrCodeCacheUnavailable:
		return 2 // Partial retry for timeouts

	case ErrCodeLLMTimeout:
		return 1

	default:
		return 0 // Degradation-path errors: no retry
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CLASSIFICATION"):
		return "CLASSIFICATION"
	case strings.Contains(codeStr, "PROVIDER") || strings.Contains(codeStr, "SEARCH"):
		return "RETRIEVAL"
	case strings.Contains(codeStr, "SCHEMA") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "LLM"):
		return "GENERATION"
	case strings.Contains(codeStr, "CONFIG"):
		return "CONFIG"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	default:
		return "OTHER"
	}
}
