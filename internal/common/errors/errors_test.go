package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateLimitError(t *testing.T) {
	err := NewRateLimitError("Search API")

	assert.Equal(t, ErrCodeSourceRateLimited, err.Code)
	assert.Contains(t, err.Message, "rate limit exceeded")
	assert.Equal(t, "Search API", err.Source())
	assert.True(t, IsRateLimited(err))
	assert.True(t, IsActionable(err))
	assert.False(t, IsAuthFailure(err))
}

func TestNewTimeoutError_Message(t *testing.T) {
	err := NewTimeoutError("Web Scraping", 1500*time.Millisecond)

	assert.Equal(t, "Web Scraping timed out after 1500ms", err.Message)
	assert.True(t, IsTimeout(err))
	assert.False(t, IsActionable(err))
}

func TestInspectionHelpers_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("attempt 2: %w", NewAuthError("People Enrichment", 401))

	assert.True(t, IsAuthFailure(wrapped))
	assert.Equal(t, "People Enrichment", SourceOf(wrapped))
	assert.Equal(t, "People Enrichment: authentication failed", MessageOf(wrapped))
}

func TestInspectionHelpers_PlainError(t *testing.T) {
	plain := fmt.Errorf("boom")

	assert.False(t, IsRateLimited(plain))
	assert.Equal(t, "", SourceOf(plain))
	assert.Equal(t, "boom", MessageOf(plain))
	assert.Equal(t, "", MessageOf(nil))
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantCode    string
		wantRetries int
	}{
		{"invalid input is terminal", NewInvalidInputError("companyOrUrl is required"), "INVALID_INPUT", 0},
		{"rate limit retries", NewRateLimitError("Search API"), "SOURCE_RATE_LIMITED", 2},
		{"cache outage retries", NewCacheUnavailableError("redis", fmt.Errorf("dial tcp")), "CACHE_UNAVAILABLE", 3},
		{"all sources failed", NewAllSourcesFailedError("no financial data found in any source", ""), "FINANCIAL_DATA_UNAVAILABLE", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			require.NotNil(t, bpmn)
			assert.Equal(t, tt.wantCode, bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)
			assert.Equal(t, string(tt.err.Code), bpmn.ErrorVariables["originalErrorCode"])

			vars := bpmn.ToErrorVariables()
			assert.Equal(t, tt.err.Message, vars["errorMessage"])
		})
	}
}

func TestConvertToBPMNError_CarriesSource(t *testing.T) {
	bpmn := ConvertToBPMNError(NewAllSourcesFailedError("x", ""))
	assert.Equal(t, AllSources, bpmn.ErrorVariables["source"])
}

func TestShouldRetry(t *testing.T) {
	assert.True(t, ShouldRetry(NewSourceUnavailableError("Search API", fmt.Errorf("reset")), 3))
	assert.False(t, ShouldRetry(NewSourceUnavailableError("Search API", fmt.Errorf("reset")), 0))
	assert.False(t, ShouldRetry(NewInvalidInputError("bad"), 3))
}

func TestRetriesFor(t *testing.T) {
	assert.Equal(t, int32(1), retriesFor(3, 1))
	assert.Equal(t, int32(3), retriesFor(3, 5))
}

func TestNormalize(t *testing.T) {
	std := Normalize(fmt.Errorf("kaboom"))
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), std.Code)
	assert.Equal(t, "kaboom", std.Details)

	orig := NewInvalidInputError("bad")
	assert.Same(t, orig, Normalize(fmt.Errorf("wrap: %w", orig)))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "SOURCE", GetErrorCategory(ErrCodeSourceTimeout))
	assert.Equal(t, "CACHE", GetErrorCategory(ErrCodeCacheUnavailable))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidInput))
	assert.Equal(t, "RETRIEVAL", GetErrorCategory(ErrCodeAllSourcesFailed))
	assert.Equal(t, "OTHER", GetErrorCategory("SOMETHING_ELSE"))
}
