package main

import (
	"fmt"
	"net/http"
)

// getOperation polls an asynchronous operation. Finished operations linger
// in the tracker for an hour before the sweeper reclaims them, after which
// polling returns 404.
func (app *application) getOperation(w http.ResponseWriter, r *http.Request) {
	operation, err := app.tracker.Get(r.PathValue("operationID"))
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, operation)
}

// streamOperation streams an interrogation answer over Server-Sent Events as
// the producer emits it. When the producer hasn't published, or another
// consumer already drained the answer, the stream just ends; the full answer
// stays available on the polled operation.
func (app *application) streamOperation(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		app.clientError(w, r, http.StatusBadRequest, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	operationID := r.PathValue("operationID")
	answerChannel, ok := <-app.answers.Subscribe(operationID)
	if !ok {
		fmt.Fprint(w, "event: done\ndata: \n\n")
		flusher.Flush()
		return
	}

	for {
		select {
		case chunk, open := <-answerChannel:
			if !open {
				fmt.Fprint(w, "event: done\ndata: \n\n")
				flusher.Flush()
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", chunk)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
