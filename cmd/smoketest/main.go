package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/myrjola/whodunit/internal/e2etest"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/logging"
)

// TestAPI exercises the deployed JSON API without consuming any generation
// quota: health, not-found semantics, and request validation.
func TestAPI(client *e2etest.Client) error {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	if err := client.WaitForReady(ctx, "/api/healthy"); err != nil {
		return errors.Wrap(err, "wait for healthy")
	}

	resp, err := client.Get(ctx, "/api/cases/smoketest-nonexistent")
	if err != nil {
		return errors.Wrap(err, "get nonexistent case")
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		return errors.New("expected 404 for nonexistent case", slog.Int("status", resp.StatusCode))
	}

	resp, err = client.PostJSON(ctx, "/api/cases/smoketest-nonexistent/accuse", map[string]string{"suspect": ""})
	if err != nil {
		return errors.Wrap(err, "post empty accusation")
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		return errors.New("expected 400 for empty accusation", slog.Int("status", resp.StatusCode))
	}

	return nil
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		url      = "https://" + hostname
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", url))

	client := e2etest.NewClient(url)
	if err := TestAPI(client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing API", errors.SlogError(err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "smoke test passed")
}
