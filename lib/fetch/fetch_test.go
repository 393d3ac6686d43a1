package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"guaymallen-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestGetJSON(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:fetch")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "3", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`{"data": [{"id": "1"}], "paging": {"next": "x"}}`))
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL})
	res := client.Get(context.Background(), "/media", url.Values{"limit": {"3"}}, nil)

	require.True(t, res.OK())
	require.Nil(t, res.Failure())
	require.Equal(t, http.StatusOK, res.Status)
	require.NotNil(t, res.JSON)
	require.Contains(t, res.JSON, "data")
}

func TestGetHTMLHasNoJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><body><h1>Título</h1></body></html>`))
	}))
	defer server.Close()

	client := NewClient(Options{})
	res := client.Get(context.Background(), server.URL, nil, nil)

	require.True(t, res.OK())
	require.Nil(t, res.JSON)
	require.Contains(t, res.Text, "Título")
}

func TestGetUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "Invalid parameter"}}`))
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL})
	res := client.Get(context.Background(), "/insights", nil, nil)

	require.False(t, res.OK())
	failure := res.Failure()
	require.NotNil(t, failure)
	require.Equal(t, KindUpstreamError, failure.Kind)
	// the error payload stays readable for the audit log
	require.NotNil(t, res.JSON)
}

func TestGetConnectionFailure(t *testing.T) {
	client := NewClient(Options{Timeout: time.Second})
	res := client.Get(context.Background(), "http://127.0.0.1:1/unreachable", nil, nil)

	require.False(t, res.OK())
	require.NotNil(t, res.Err)
	require.Equal(t, KindConnectionFailure, res.Err.Kind)
	require.Equal(t, KindConnectionFailure, res.Failure().Kind)
}

func TestGetCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(Options{})
	res := client.Get(ctx, "http://example.com", nil, nil)

	require.NotNil(t, res.Err)
	require.Equal(t, KindConnectionFailure, res.Err.Kind)
}
