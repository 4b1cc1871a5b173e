package main

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/myrjola/whodunit/internal/e2etest"
	"github.com/stretchr/testify/require"
)

func testLookupEnv(key string) (string, bool) {
	switch key {
	case "WHODUNIT_ADDR":
		return "localhost:0", true
	case "WHODUNIT_SQLITE_URL":
		return ":memory:", true
	default:
		return "", false
	}
}

func startTestServer(t *testing.T) *e2etest.Server {
	t.Helper()
	server, err := e2etest.StartServer(context.Background(), io.Discard, testLookupEnv, run)
	require.NoError(t, err)
	return server
}

func TestHealthy(t *testing.T) {
	server := startTestServer(t)

	resp, err := server.Client().Get(context.Background(), "/api/healthy")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, e2etest.DecodeJSON(resp, &body))
	require.Equal(t, "ok", body["status"])
}

func TestUnknownResources(t *testing.T) {
	server := startTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		path string
	}{
		{name: "case", path: "/api/cases/nonexistent"},
		{name: "progress", path: "/api/cases/nonexistent/progress"},
		{name: "operation", path: "/api/operations/nonexistent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := server.Client().Get(ctx, tt.path)
			require.NoError(t, err)
			defer func() {
				_ = resp.Body.Close()
			}()
			require.Equal(t, http.StatusNotFound, resp.StatusCode)
		})
	}
}

func TestInterrogateValidation(t *testing.T) {
	server := startTestServer(t)
	ctx := context.Background()

	// Empty question is rejected before any lookups.
	resp, err := server.Client().PostJSON(ctx, "/api/cases/x/suspects/y/interrogate",
		map[string]string{"question": ""})
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// A well-formed question against an unknown case is a 404.
	resp, err = server.Client().PostJSON(ctx, "/api/cases/x/suspects/y/interrogate",
		map[string]string{"question": "Where were you?"})
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSecureHeaders(t *testing.T) {
	server := startTestServer(t)

	resp, err := server.Client().Get(context.Background(), "/api/healthy")
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	require.Equal(t, "deny", resp.Header.Get("X-Frame-Options"))
}
