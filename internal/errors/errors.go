// Package errors defines stable error codes for the insight analysis core.
package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// StateCorrupt indicates the persisted learning state is unreadable or unparseable.
	// Callers treat it as an empty store; it is never fatal to an analysis run.
	StateCorrupt ErrorCode = "STATE_CORRUPT"
	// PatternNotFound indicates an update or correction referenced an unknown signature
	PatternNotFound ErrorCode = "PATTERN_NOT_FOUND"
	// FactsInvalid indicates an adjacency-facts document could not be parsed
	FactsInvalid ErrorCode = "FACTS_INVALID"
	// IndexMissing indicates a SCIP index was not found at the configured path
	IndexMissing ErrorCode = "INDEX_MISSING"
	// LayerRulesInvalid indicates a layer-rules file could not be parsed
	LayerRulesInvalid ErrorCode = "LAYER_RULES_INVALID"
	// HistoryUnavailable indicates the learning-event archive could not be opened
	HistoryUnavailable ErrorCode = "HISTORY_UNAVAILABLE"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// InsightError represents a core error with a stable code and optional cause
type InsightError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// New creates a new InsightError
func New(code ErrorCode, message string, cause error) *InsightError {
	return &InsightError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *InsightError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *InsightError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *InsightError) WithDetails(details interface{}) *InsightError {
	e.Details = details
	return e
}

// CodeOf returns the stable code of an error, or InternalError for
// errors that did not originate in this package.
func CodeOf(err error) ErrorCode {
	if ie, ok := err.(*InsightError); ok {
		return ie.Code
	}
	return InternalError
}
