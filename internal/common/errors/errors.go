// Package errors provides the error taxonomy shared by the source adapters,
// the retriever and the workflow worker.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeSourceRateLimited       ErrorCode = "SOURCE_RATE_LIMITED"
	ErrCodeSourceAuthFailed        ErrorCode = "SOURCE_AUTH_FAILED"
	ErrCodeSourceTimeout           ErrorCode = "SOURCE_TIMEOUT"
	ErrCodeSourceMalformedResponse ErrorCode = "SOURCE_MALFORMED_RESPONSE"
	ErrCodeSourceUnavailable       ErrorCode = "SOURCE_UNAVAILABLE"

	ErrCodeAllSourcesFailed ErrorCode = "ALL_SOURCES_FAILED"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"

	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
)

// AllSources is the source tag reported when the whole fallback chain failed.
const AllSources = "All Sources"

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
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Source returns the source name recorded on the error, if any.
func (e *StandardError) Source() string {
	if e.Metadata == nil {
		return ""
	}
	s, _ := e.Metadata["source"].(string)
	return s
}

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 2. Error Constructors
// ==========================

func sourceMeta(source string) map[string]interface{} {
	return map[string]interface{}{"source": source}
}

// NewRateLimitError reports an HTTP 429 from an upstream source.
func NewRateLimitError(source string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSourceRateLimited,
		Message:   fmt.Sprintf("%s: rate limit exceeded", source),
		Details:   "upstream responded with HTTP 429",
		Retryable: true,
		Metadata:  sourceMeta(source),
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthError reports a rejected or invalid API key.
func NewAuthError(source string, status int) *StandardError {
	return &StandardError{
		Code:      ErrCodeSourceAuthFailed,
		Message:   fmt.Sprintf("%s: authentication failed", source),
		Details:   fmt.Sprintf("upstream responded with HTTP %d", status),
		Retryable: false,
		Metadata:  sourceMeta(source),
		Timestamp: time.Now().UTC(),
	}
}

// NewTimeoutError reports an operation that exceeded its budget.
func NewTimeoutError(source string, timeout time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeSourceTimeout,
		Message:   fmt.Sprintf("%s timed out after %dms", source, timeout.Milliseconds()),
		Retryable: true,
		Metadata:  sourceMeta(source),
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedResponseError reports an upstream body that could not be parsed.
func NewMalformedResponseError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSourceMalformedResponse,
		Message:   fmt.Sprintf("%s: malformed response", source),
		Details:   err.Error(),
		Retryable: false,
		Metadata:  sourceMeta(source),
		Timestamp: time.Now().UTC(),
	}
}

// NewSourceUnavailableError wraps a transport-level failure.
func NewSourceUnavailableError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSourceUnavailable,
		Message:   fmt.Sprintf("%s: request failed", source),
		Details:   err.Error(),
		Retryable: true,
		Metadata:  sourceMeta(source),
		Timestamp: time.Now().UTC(),
	}
}

// NewAllSourcesFailedError summarises an exhausted fallback chain.
func NewAllSourcesFailedError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAllSourcesFailed,
		Message:   message,
		Details:   details,
		Retryable: false,
		Metadata:  sourceMeta(AllSources),
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError reports caller input that failed validation.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid retrieval input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError reports a cache backend failure.
func NewCacheUnavailableError(backend string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   fmt.Sprintf("cache backend '%s' unavailable", backend),
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"backend": backend},
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Inspection helpers
// ==========================

// AsStandard unwraps err into a *StandardError when possible.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

func hasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Code == code
}

// IsRateLimited reports whether err is a rate-limit failure.
func IsRateLimited(err error) bool { return hasCode(err, ErrCodeSourceRateLimited) }

// IsAuthFailure reports whether err is an authentication failure.
func IsAuthFailure(err error) bool { return hasCode(err, ErrCodeSourceAuthFailed) }

// IsTimeout reports whether err is a timeout.
func IsTimeout(err error) bool { return hasCode(err, ErrCodeSourceTimeout) }

// IsActionable reports whether an adapter must surface err rather than
// degrading it to "not found".
func IsActionable(err error) bool {
	return IsRateLimited(err) || IsAuthFailure(err)
}

// SourceOf returns the source recorded on err, or "".
func SourceOf(err error) string {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Source()
	}
	return ""
}

// MessageOf returns the human-readable message of err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Message
	}
	return err.Error()
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeSourceRateLimited:       "SOURCE_RATE_LIMITED",
	ErrCodeSourceAuthFailed:        "SOURCE_AUTH_FAILED",
	ErrCodeSourceTimeout:           "SOURCE_TIMEOUT",
	ErrCodeSourceMalformedResponse: "SOURCE_MALFORMED_RESPONSE",
	ErrCodeSourceUnavailable:       "SOURCE_UNAVAILABLE",
	ErrCodeAllSourcesFailed:        "FINANCIAL_DATA_UNAVAILABLE",
	ErrCodeInvalidInput:            "INVALID_INPUT",
	ErrCodeCacheUnavailable:        "CACHE_UNAVAILABLE",
}

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSourceUnavailable, ErrCodeCacheUnavailable:
		return 3
	case ErrCodeSourceTimeout, ErrCodeSourceRateLimited:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	if src := stdErr.Source(); src != "" {
		vars["source"] = src
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "SOURCE_"):
		return "SOURCE"
	case strings.HasPrefix(codeStr, "CACHE_"):
		return "CACHE"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case code == ErrCodeAllSourcesFailed:
		return "RETRIEVAL"
	default:
		return "OTHER"
	}
}
