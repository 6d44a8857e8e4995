package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "findata-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Get_SendsBrowserHeaders(t *testing.T) {
	var gotUA, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotKey = r.Header.Get("X-Api-Key")
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	resp, err := NewClient().Get(context.Background(), "Test", srv.URL, map[string]string{"X-Api-Key": "k"}, time.Second)
	require.NoError(t, err)

	assert.True(t, resp.OK())
	assert.Equal(t, "hello", string(resp.Body))
	assert.Equal(t, BrowserUserAgent, gotUA)
	assert.Equal(t, "k", gotKey)
}

func TestClient_Get_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := NewClient().Get(context.Background(), "Slow Source", srv.URL, nil, 50*time.Millisecond)

	require.Error(t, err)
	assert.True(t, apperrors.IsTimeout(err))
	assert.Equal(t, "Slow Source timed out after 50ms", apperrors.MessageOf(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClient_Get_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	resp, err := NewClient(WithMaxBodyBytes(4)).Get(context.Background(), "Test", srv.URL, nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(resp.Body))
}

func TestClient_Get_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient().Get(context.Background(), "Gone", url, nil, time.Second)
	require.Error(t, err)
	assert.Equal(t, "Gone", apperrors.SourceOf(err))
	assert.False(t, apperrors.IsTimeout(err))
}

func TestStatusError(t *testing.T) {
	assert.True(t, apperrors.IsRateLimited(StatusError("S", 429)))
	assert.True(t, apperrors.IsAuthFailure(StatusError("S", 401)))
	assert.True(t, apperrors.IsAuthFailure(StatusError("S", 403)))
	assert.NoError(t, StatusError("S", 404))
	assert.NoError(t, StatusError("S", 500))
}
