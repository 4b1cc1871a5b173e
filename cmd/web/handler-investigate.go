package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/investigation"
	"github.com/myrjola/whodunit/internal/models"
	"github.com/myrjola/whodunit/internal/operations"
)

// visitLocation spends the location's daily action and returns what it
// uncovered. Visits are synchronous; only generation-backed actions go
// through the operation tracker.
func (app *application) visitLocation(w http.ResponseWriter, r *http.Request) {
	var (
		caseID     = r.PathValue("caseID")
		locationID = r.PathValue("locationID")
	)

	result, err := app.investigations.VisitLocation(r.Context(), caseID, locationID)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, result)
}

const (
	interrogationTimeout = 2 * time.Minute
	// answerChannelBuffer holds a whole streamed answer in words.
	answerChannelBuffer = 512
)

type interrogateRequest struct {
	Question string `json:"question"`
}

// interrogateSuspect spends the suspect's daily action. The answer is
// generated asynchronously: the handler returns an operation id, the answer
// streams over the operation's channel, and the finished session lands in
// the persisted progress with synthesized audio attached best-effort.
func (app *application) interrogateSuspect(w http.ResponseWriter, r *http.Request) {
	var (
		caseID      = r.PathValue("caseID")
		suspectName = r.PathValue("suspectName")
	)

	var req interrogateRequest
	if !app.readJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		app.clientError(w, r, http.StatusBadRequest, "question must not be empty")
		return
	}

	// Reject unknown suspects and exhausted daily actions before admitting
	// the operation.
	if err := app.investigations.CheckInterrogation(r.Context(), caseID, suspectName); err != nil {
		app.handleError(w, r, err)
		return
	}

	operationID := app.tracker.Create(models.OperationTypeInterrogation, "interrogating "+suspectName)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), interrogationTimeout)
		defer cancel()

		// Buffered so the producer finishes even when no consumer ever
		// subscribes; the sweeper reclaims the operation either way.
		answerChannel := make(chan string, answerChannelBuffer)
		app.answers.Publish(operationID, answerChannel)
		defer app.answers.Unpublish(operationID)

		result, err := app.investigations.Interrogate(ctx, caseID, suspectName, req.Question)
		if err != nil {
			app.logger.LogAttrs(ctx, slog.LevelError, "interrogation failed", errors.SlogError(err))
			_ = app.tracker.Fail(operationID, err.Error())
			return
		}

		app.streamAnswer(ctx, operationID, answerChannel, result.Answer)
		close(answerChannel)
		app.attachAudio(ctx, caseID, result)

		_ = app.tracker.Complete(operationID, "interrogation finished", result)
	}()

	app.writeJSON(w, r, http.StatusAccepted, map[string]string{"operationId": operationID})
}

// streamAnswer feeds the answer word by word to the subscriber, if any. The
// channel buffer absorbs the whole answer when nobody subscribes.
func (app *application) streamAnswer(ctx context.Context, operationID string, channel chan string, answer string) {
	progress := 60
	message := "answer ready"
	_ = app.tracker.Update(operationID, operations.Update{Progress: &progress, Message: &message})

	for _, word := range strings.Fields(answer) {
		select {
		case channel <- word + " ":
		case <-ctx.Done():
			return
		}
	}
}

// attachAudio synthesizes the answer as speech and attaches its URL to the
// persisted session. Failures are logged and swallowed; the interrogation
// itself already succeeded.
func (app *application) attachAudio(ctx context.Context, caseID string, result *investigation.InterrogationResult) {
	blob, err := app.speech.GenerateAudio(ctx, result.Answer, []ai.Voice{{Name: result.Suspect}})
	if err != nil {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "audio synthesis failed", errors.SlogError(err))
		return
	}
	object, err := app.media.Upload(ctx, blob, result.Suspect, "interrogations")
	if err != nil {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "audio upload failed", errors.SlogError(err))
		return
	}
	if err = app.investigations.AttachSessionAudio(ctx, caseID, result.Suspect, result.Order, object.URL); err != nil {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "attach audio failed", errors.SlogError(err))
	}
}

type accuseRequest struct {
	Suspect string `json:"suspect"`
}

// accuseSuspect scores the final accusation. It does not consume a daily
// action and can be repeated; the verdict is computed, not stored.
func (app *application) accuseSuspect(w http.ResponseWriter, r *http.Request) {
	var req accuseRequest
	if !app.readJSON(w, r, &req) {
		return
	}
	if req.Suspect == "" {
		app.clientError(w, r, http.StatusBadRequest, "suspect must not be empty")
		return
	}

	verdict, err := app.investigations.Accuse(r.Context(), r.PathValue("caseID"), req.Suspect)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, verdict)
}
