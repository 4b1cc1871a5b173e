package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	// Generated media (portraits, interrogation audio) is served straight
	// from disk and safe to cache aggressively.
	fileServer := http.FileServer(http.Dir(app.mediaDir))
	mux.Handle("GET /media/", cacheForeverHeaders(http.StripPrefix("/media", fileServer)))

	api := alice.New()

	mux.Handle("POST /api/cases", api.ThenFunc(app.createCase))
	mux.Handle("GET /api/cases/{caseID}", api.ThenFunc(app.getCase))
	mux.Handle("GET /api/cases/{caseID}/progress", api.ThenFunc(app.getProgress))
	mux.Handle("POST /api/cases/{caseID}/locations/{locationID}/visit", api.ThenFunc(app.visitLocation))
	mux.Handle("POST /api/cases/{caseID}/suspects/{suspectName}/interrogate", api.ThenFunc(app.interrogateSuspect))
	mux.Handle("POST /api/cases/{caseID}/accuse", api.ThenFunc(app.accuseSuspect))

	mux.Handle("GET /api/operations/{operationID}", api.ThenFunc(app.getOperation))
	mux.Handle("GET /api/operations/{operationID}/stream", api.ThenFunc(app.streamOperation))

	mux.Handle("GET /api/healthy", api.ThenFunc(app.healthy))

	return app.recoverPanic(app.logRequest(secureHeaders(mux)))
}
