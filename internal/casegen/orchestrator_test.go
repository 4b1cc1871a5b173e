package casegen_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/myrjola/whodunit/internal/casegen"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/locmap"
	"github.com/myrjola/whodunit/internal/models"
	"github.com/myrjola/whodunit/internal/storage"
	"github.com/myrjola/whodunit/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

// routedText answers each pipeline stage by matching a distinctive phrase in
// the prompt, standing in for the model backend.
type routedText struct {
	overrides map[string]string
}

var stageOutputs = map[string]string{
	"Invent an evocative setting": `{"setting":"A fog-bound research station off the Norwegian coast, winter 1983."}`,
	"Invent the victim": `{
		"name":"Elena Vasquez","profession":"marine biochemist",
		"lastKnownLocation":"Wet Lab","deathTimeEstimate":"23:40",
		"causeOfDeath":"poisoned with lab-grade tetrodotoxin"}`,
	"Invent four suspects": `[
		{"name":"Raj Malhotra","role":"security chief","alibi":"reviewing camera footage","motives":["blackmail"],"isKiller":true,"personality":"guarded"},
		{"name":"Mira Chen","role":"rival researcher","alibi":"asleep in her bunk","motives":["rivalry"],"isKiller":false,"personality":"ambitious"},
		{"name":"Theo Brandt","role":"station cook","alibi":"prepping breakfast dough","motives":["an old debt"],"isKiller":false,"personality":"jovial"},
		{"name":"Ingrid Sol","role":"station chief","alibi":"on the radio to the mainland","motives":["insurance money"],"isKiller":false,"personality":"severe"}]`,
	"Invent the investigation scene": `{
		"locations":["Wet Lab","Mess Hall","Radio Room"],
		"clues":{
			"Wet Lab":["Detective finds Raj Malhotra's bloodied knife","A vial missing from the toxin cabinet"],
			"Mess Hall":["Theo Brandt's apron stuffed behind the freezer"]},
		"witnesses":{
			"Radio Room":[{"name":"Priya Nair","role":"radio operator","background":"night shift","testimony":"I heard Raj Malhotra arguing with Elena around 23:40","reliability":"high","hiddenAgenda":"owes Raj money"}]}}`,
	"Reconstruct the night": `[
		{"time":"22:00","event":"Elena logs into the Wet Lab"},
		{"time":"23:40","event":"Estimated time of death"},
		{"time":"23:55","event":"Someone wipes the toxin cabinet log"}]`,
	"Give the case an evocative title": `{"title":"Cold Water, Colder Blood"}`,
	"Write the briefing":               `{"framing":"The station chief wants answers before the supply ship docks. You have until then."}`,
	"laying out the map": `[
		{"id":"L1","fullName":"Wet Lab","connections":["L2"]},
		{"id":"L2","fullName":"Mess Hall","connections":["L3"]},
		{"id":"L3","fullName":"Radio Room","connections":[]}]`,
}

func (r routedText) Generate(_ context.Context, prompt string) (string, error) {
	for phrase, output := range r.overrides {
		if strings.Contains(prompt, phrase) {
			return output, nil
		}
	}
	for phrase, output := range stageOutputs {
		if strings.Contains(prompt, phrase) {
			return output, nil
		}
	}
	return "I have no idea what you want.", nil
}

var errBackendDown = errors.NewSentinel("model backend down")

// failingText stands in for a backend that is down entirely.
type failingText struct{}

func (failingText) Generate(_ context.Context, _ string) (string, error) {
	return "", errBackendDown
}

type fakeImages struct {
	fail bool
}

func (f fakeImages) GenerateImage(_ context.Context, _ string) ([]byte, error) {
	if f.fail {
		return nil, errors.New("image backend down")
	}
	return []byte("png bytes"), nil
}

func newOrchestrator(t *testing.T, text routedText, images fakeImages) *casegen.Orchestrator {
	t.Helper()
	logger := testhelpers.NewLogger(io.Discard)
	media := storage.NewFilesystem(t.TempDir(), "http://localhost:4000/media", logger)
	o, err := casegen.NewOrchestrator(text, images, media, logger)
	require.NoError(t, err)
	return o
}

func TestGenerateAssemblesCase(t *testing.T) {
	o := newOrchestrator(t, routedText{}, fakeImages{})

	generated, err := o.Generate(context.Background(), "isolated research station")
	require.NoError(t, err)
	require.NotEmpty(t, generated.ID)

	story := generated.Story
	require.Equal(t, "Cold Water, Colder Blood", story.Title)
	require.Equal(t, "Elena Vasquez", story.Victim.Name)
	require.Len(t, story.Suspects, 4)

	killer, ok := story.KillerSuspect()
	require.True(t, ok, "exactly one suspect must be flagged killer and match Story.Killer")
	require.Equal(t, "Raj Malhotra", killer.Name)

	require.Equal(t, []string{"Wet Lab", "Mess Hall", "Radio Room"}, story.Locations)
	require.Len(t, story.Timeline, 3)

	// The knife clue classifies as a direct biological trace.
	wetLab := generated.ProcessedClues["Wet Lab"]
	require.Len(t, wetLab, 2)
	require.Equal(t, models.ClueCategoryDirect, wetLab[0].Category)
	require.Equal(t, models.ClueTypeBiologicalTrace, wetLab[0].Type)
	require.Equal(t, 5, wetLab[0].Discovery.Difficulty)

	// Witness testimony folds into the radio room's clues.
	require.Len(t, generated.ProcessedClues["Radio Room"], 1)
	require.Equal(t, models.ClueTypeWitnessTestimony, generated.ProcessedClues["Radio Room"][0].Type)

	require.Len(t, generated.Map, 3)
	require.True(t, locmap.Connected(generated.Map))

	require.Contains(t, generated.Framing, "supply ship")

	// Portraits were uploaded for the victim and all suspects.
	require.Contains(t, generated.Story.Victim.Portrait, "/media/portraits/")
	for _, suspect := range generated.Story.Suspects {
		require.Contains(t, suspect.Portrait, "/media/portraits/", "suspect %s", suspect.Name)
	}
}

func TestGenerateFailsWithoutKiller(t *testing.T) {
	o := newOrchestrator(t, routedText{overrides: map[string]string{
		"Invent four suspects": `[
			{"name":"Raj","role":"security chief","alibi":"footage","motives":["blackmail"],"isKiller":false,"personality":"guarded"},
			{"name":"Mira","role":"rival","alibi":"asleep","motives":["rivalry"],"isKiller":false,"personality":"ambitious"}]`,
	}}, fakeImages{})

	_, err := o.Generate(context.Background(), "")
	require.ErrorIs(t, err, casegen.ErrNoKiller)
}

func TestGenerateFailsWithMultipleKillers(t *testing.T) {
	o := newOrchestrator(t, routedText{overrides: map[string]string{
		"Invent four suspects": `[
			{"name":"Raj","role":"security chief","alibi":"footage","motives":["blackmail"],"isKiller":true,"personality":"guarded"},
			{"name":"Mira","role":"rival","alibi":"asleep","motives":["rivalry"],"isKiller":true,"personality":"ambitious"}]`,
	}}, fakeImages{})

	_, err := o.Generate(context.Background(), "")
	require.ErrorIs(t, err, casegen.ErrNoKiller)
}

func TestGeneratePortraitFailureIsNonFatal(t *testing.T) {
	o := newOrchestrator(t, routedText{}, fakeImages{fail: true})

	generated, err := o.Generate(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, generated.Story.Victim.Portrait)
	for _, suspect := range generated.Story.Suspects {
		require.Empty(t, suspect.Portrait)
	}
}

func TestGenerateMapFallsBackToChain(t *testing.T) {
	o := newOrchestrator(t, routedText{overrides: map[string]string{
		"laying out the map": "The map eludes me.",
	}}, fakeImages{})

	generated, err := o.Generate(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, []models.LocationNode{
		{ID: "L1", FullName: "Wet Lab", Connections: []string{"L2"}},
		{ID: "L2", FullName: "Mess Hall", Connections: []string{"L3"}},
		{ID: "L3", FullName: "Radio Room", Connections: []string{}},
	}, generated.Map)
}

func TestGenerateExhaustedStageKeepsCause(t *testing.T) {
	logger := testhelpers.NewLogger(io.Discard)
	o, err := casegen.NewOrchestrator(failingText{}, nil, nil, logger)
	require.NoError(t, err)

	_, err = o.Generate(context.Background(), "")
	require.ErrorIs(t, err, casegen.ErrStageExhausted)
	require.ErrorIs(t, err, errBackendDown, "the backend failure must stay in the chain")
}

func TestGenerateAcceptsBestEffortFlavorText(t *testing.T) {
	// A title that never validates is tolerated; it is flavor, not structure.
	o := newOrchestrator(t, routedText{overrides: map[string]string{
		"Give the case an evocative title": `{"title":""}`,
	}}, fakeImages{})

	generated, err := o.Generate(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, generated.Story.Title)
}
