package peopleenrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "findata-workers/internal/common/errors"
	httpclient "findata-workers/internal/common/http"
	"findata-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, baseURL, key string) *Client {
	t.Helper()
	return New(Config{BaseURL: baseURL, APIKey: key, Timeout: time.Second}, httpclient.NewClient(), logger.NewTestLogger(t))
}

func TestFetchFinancialData_MapsFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/company/enrich", r.URL.Path)
		assert.Equal(t, "acme.io", r.URL.Query().Get("website"))
		assert.Empty(t, r.URL.Query().Get("name"))
		assert.Equal(t, "pdl-key", r.Header.Get("X-Api-Key"))

		_, _ = w.Write([]byte(`{
			"status": 200,
			"name": "acme",
			"size": "51-200",
			"employee_count": 143,
			"founded": 2014,
			"industry": "computer software",
			"location": {"name": "austin, texas, united states"},
			"summary": "acme builds payment rails for online marketplaces",
			"total_funding_raised": 120000000,
			"latest_funding_stage": "series_b",
			"inferred_revenue": "$25M-$50M"
		}`))
	}))
	defer srv.Close()

	rec, err := newClient(t, srv.URL, "pdl-key").FetchFinancialData(context.Background(), "Acme", "acme.io")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "143", rec.EmployeeCount)
	assert.Equal(t, "2014", rec.FoundedYear)
	assert.Equal(t, "computer software", rec.Industry)
	assert.Equal(t, "austin, texas, united states", rec.Headquarters)
	assert.Equal(t, "$120M", rec.TotalFunding)
	assert.Equal(t, "Series B", rec.LastFundingRound)
	assert.Equal(t, "$25M-$50M", rec.Revenue)
	assert.Equal(t, "acme builds payment rails for online marketplaces", rec.Description)
}

func TestFetchFinancialData_EmployeePriority(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"exact count wins", `{"employee_count": 90, "estimated_num_employees": 120, "size": "51-200"}`, "90"},
		{"estimate next", `{"estimated_num_employees": "120", "size": "51-200"}`, "120"},
		{"size range last", `{"size": "51-200"}`, "125 (51-200)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			rec, err := newClient(t, srv.URL, "k").FetchFinancialData(context.Background(), "Acme", "")
			require.NoError(t, err)
			require.NotNil(t, rec)
			assert.Equal(t, tt.want, rec.EmployeeCount)
		})
	}
}

func TestFetchFinancialData_ByNameWithoutDomain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Acme Labs", r.URL.Query().Get("name"))
		assert.Empty(t, r.URL.Query().Get("website"))
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	rec, err := newClient(t, srv.URL, "k").FetchFinancialData(context.Background(), "Acme Labs", "")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFetchFinancialData_TypedErrors(t *testing.T) {
	for status, check := range map[int]func(error) bool{
		http.StatusTooManyRequests: apperrors.IsRateLimited,
		http.StatusUnauthorized:    apperrors.IsAuthFailure,
		http.StatusForbidden:       apperrors.IsAuthFailure,
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		_, err := newClient(t, srv.URL, "k").FetchFinancialData(context.Background(), "Acme", "acme.io")
		srv.Close()

		require.Error(t, err, "status %d", status)
		assert.True(t, check(err), "status %d", status)
		assert.Equal(t, "People Enrichment", apperrors.SourceOf(err))
	}
}

func TestFetchFinancialData_DegradesToNil(t *testing.T) {
	for name, handler := range map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
		"malformed":    func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`<html>`)) },
		"empty record": func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"status":200}`)) },
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			rec, err := newClient(t, srv.URL, "k").FetchFinancialData(context.Background(), "Acme", "acme.io")
			assert.NoError(t, err)
			assert.Nil(t, rec)
		})
	}
}

func TestFetchFinancialData_MissingKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	rec, err := newClient(t, srv.URL, " ").FetchFinancialData(context.Background(), "Acme", "acme.io")
	assert.NoError(t, err)
	assert.Nil(t, rec)
	assert.False(t, called)
}

func TestHumanizeStage(t *testing.T) {
	assert.Equal(t, "Series B", humanizeStage("series_b"))
	assert.Equal(t, "Seed", humanizeStage("seed"))
	assert.Equal(t, "", humanizeStage(""))
}
