package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/investigation"
	"github.com/myrjola/whodunit/internal/models"
	"github.com/myrjola/whodunit/internal/operations"
)

// generationTimeout bounds one full case generation including portraits.
const generationTimeout = 5 * time.Minute

type createCaseRequest struct {
	Hint string `json:"hint"`
}

// createCase kicks off asynchronous case generation and returns the
// operation to poll. The generated case is persisted together with its empty
// investigation progress before the operation completes.
func (app *application) createCase(w http.ResponseWriter, r *http.Request) {
	var req createCaseRequest
	if r.ContentLength > 0 && !app.readJSON(w, r, &req) {
		return
	}

	operationID := app.tracker.Create(models.OperationTypeCaseGeneration, "generating case")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
		defer cancel()

		progress := 50
		message := "assembling the crime scene"
		_ = app.tracker.Update(operationID, operations.Update{Progress: &progress, Message: &message})

		generated, err := app.orchestrator.Generate(ctx, req.Hint)
		if err != nil {
			app.logger.LogAttrs(ctx, slog.LevelError, "case generation failed", errors.SlogError(err))
			_ = app.tracker.Fail(operationID, err.Error())
			return
		}

		if err = app.cases.Create(ctx, generated, investigation.NewProgress(generated.ID)); err != nil {
			app.logger.LogAttrs(ctx, slog.LevelError, "persist case failed", errors.SlogError(err))
			_ = app.tracker.Fail(operationID, err.Error())
			return
		}

		_ = app.tracker.Complete(operationID, "case ready", map[string]string{"caseId": generated.ID})
	}()

	app.writeJSON(w, r, http.StatusAccepted, map[string]string{"operationId": operationID})
}

// caseView is the player-facing projection of a case. Solution fields such
// as the killer's identity and clue categories never leave the server here.
type caseView struct {
	ID       string                `json:"id"`
	Title    string                `json:"title"`
	Framing  string                `json:"framing,omitempty"`
	Setting  string                `json:"setting"`
	Victim   models.Victim         `json:"victim"`
	Suspects []suspectView         `json:"suspects"`
	Map      []models.LocationNode `json:"map"`
}

type suspectView struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Personality string `json:"personality"`
	Portrait    string `json:"portrait,omitempty"`
}

func newCaseView(c *models.Case) caseView {
	suspects := make([]suspectView, len(c.Story.Suspects))
	for i, suspect := range c.Story.Suspects {
		suspects[i] = suspectView{
			Name:        suspect.Name,
			Role:        suspect.Role,
			Personality: suspect.Personality,
			Portrait:    suspect.Portrait,
		}
	}
	return caseView{
		ID:       c.ID,
		Title:    c.Story.Title,
		Framing:  c.Framing,
		Setting:  c.Story.Setting,
		Victim:   c.Story.Victim,
		Suspects: suspects,
		Map:      c.Map,
	}
}

func (app *application) getCase(w http.ResponseWriter, r *http.Request) {
	c, err := app.cases.Get(r.Context(), r.PathValue("caseID"))
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, newCaseView(c))
}

func (app *application) getProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := app.investigations.Progress(r.Context(), r.PathValue("caseID"))
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, progress)
}
