// Package casegen turns generative-model output into a complete validated
// case. Generation is a sequential pipeline of stages (setting, victim,
// suspects, scene, timeline, title, portraits) where each stage's output
// becomes context for the next. Validation failures degrade gracefully
// through the retry budget. Structural invariant failures such as a missing
// killer or an empty location list are fatal since no playable case can
// exist without them.
package casegen

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/google/uuid"
	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/clues"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/generation"
	"github.com/myrjola/whodunit/internal/locmap"
	"github.com/myrjola/whodunit/internal/models"
	"github.com/myrjola/whodunit/internal/storage"
	"golang.org/x/sync/errgroup"
)

//go:embed prompts/*.txt
var promptFS embed.FS

var (
	ErrNoKiller       = errors.NewSentinel("generated story has no unambiguous killer")
	ErrNoLocations    = errors.NewSentinel("generated story has no locations")
	ErrStageExhausted = errors.NewSentinel("generation stage produced nothing parseable")
)

type Orchestrator struct {
	generator *generation.Generator
	images    ai.ImageGenerator
	media     storage.Store
	maps      *locmap.Builder
	logger    *slog.Logger
	templates *template.Template
}

// NewOrchestrator wires the generation pipeline. images and media may be nil,
// in which case portrait decoration is skipped entirely.
func NewOrchestrator(
	text ai.TextGenerator,
	images ai.ImageGenerator,
	media storage.Store,
	logger *slog.Logger,
) (*Orchestrator, error) {
	templates, err := template.New("prompts").Funcs(template.FuncMap{
		"json": func(v any) string {
			b, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return fmt.Sprintf("%v", v)
			}
			return string(b)
		},
	}).ParseFS(promptFS, "prompts/*.txt")
	if err != nil {
		return nil, errors.Wrap(err, "parse prompt templates")
	}

	return &Orchestrator{
		generator: generation.NewGenerator(text, logger),
		images:    images,
		media:     media,
		maps:      locmap.NewBuilder(text, logger),
		logger:    logger.With("source", "casegen.Orchestrator"),
		templates: templates,
	}, nil
}

type settingPayload struct {
	Setting string `json:"setting" validate:"required"`
}

type scenePayload struct {
	Locations []string                    `json:"locations" validate:"min=1,unique"`
	Clues     map[string][]string         `json:"clues"`
	Witnesses map[string][]models.Witness `json:"witnesses"`
}

type titlePayload struct {
	Title string `json:"title" validate:"required"`
}

type framingPayload struct {
	Framing string `json:"framing" validate:"required"`
}

// Generate runs the full pipeline and returns an immutable case. The hint
// nudges the setting generation and may be empty.
func (o *Orchestrator) Generate(ctx context.Context, hint string) (*models.Case, error) {
	story, err := o.generateStory(ctx, hint)
	if err != nil {
		return nil, err
	}

	graph, err := o.maps.BuildGraph(ctx, story.Locations, story.Timeline)
	if err != nil {
		return nil, errors.Wrap(err, "build location graph")
	}

	framing := o.generateFraming(ctx, story)

	// Portraits are decorative metadata keyed by character identity, so they
	// come last and their failures never sink the case.
	o.decoratePortraits(ctx, &story)

	return &models.Case{
		ID:             uuid.NewString(),
		Story:          story,
		ProcessedClues: clues.Process(story),
		Map:            graph,
		Framing:        framing,
	}, nil
}

func (o *Orchestrator) generateStory(ctx context.Context, hint string) (models.Story, error) {
	var story models.Story

	setting, _, err := stage(ctx, o, "setting.txt", map[string]string{"Hint": hint},
		func(p settingPayload) bool { return generation.ValidStruct(p) })
	if err != nil {
		return story, err
	}
	story.Setting = setting.Setting

	victim, _, err := stage(ctx, o, "victim.txt", story,
		func(v models.Victim) bool { return generation.ValidStruct(v) })
	if err != nil {
		return story, err
	}
	story.Victim = victim

	suspects, _, err := stage(ctx, o, "suspects.txt", story,
		func(candidates []models.Suspect) bool {
			return generation.ValidEach(candidates) && killerCount(candidates) == 1
		})
	if err != nil {
		return story, err
	}
	story.Suspects = suspects
	// Even a degraded candidate must name exactly one killer; nothing else in
	// the pipeline can repair a story without one.
	if killerCount(suspects) != 1 {
		return story, errors.Wrap(ErrNoKiller, "validate suspects", slog.Int("killer_count", killerCount(suspects)))
	}
	for _, suspect := range suspects {
		if suspect.IsKiller {
			story.Killer = suspect.Name
		}
	}

	scene, _, err := stage(ctx, o, "scene.txt", story,
		func(p scenePayload) bool { return validScene(p) })
	if err != nil {
		return story, err
	}
	if len(scene.Locations) == 0 {
		return story, errors.Wrap(ErrNoLocations, "validate scene")
	}
	story.Locations = scene.Locations
	story.Clues = scene.Clues
	story.Witnesses = scene.Witnesses

	timeline, _, err := stage(ctx, o, "timeline.txt", story,
		func(events []models.TimelineEvent) bool {
			return generation.ValidEach(events) && chronological(events)
		})
	if err != nil {
		return story, err
	}
	story.Timeline = timeline

	title, _, err := stage(ctx, o, "title.txt", story,
		func(p titlePayload) bool { return generation.ValidStruct(p) })
	if err != nil {
		return story, err
	}
	story.Title = title.Title

	return story, nil
}

// stage renders the named prompt with data and runs one validated generation.
// A missing parseable candidate is fatal; a candidate that merely failed
// validation within the budget is logged and accepted best-effort.
func stage[T any](ctx context.Context, o *Orchestrator, name string, data any, validate func(T) bool) (T, bool, error) {
	var zero T

	prompt, err := o.renderPrompt(name, data)
	if err != nil {
		return zero, false, err
	}

	value, ok, err := generation.Generate(ctx, o.generator, prompt, validate)
	if err != nil {
		return zero, false, errors.Wrap(errors.Join(ErrStageExhausted, err),
			"run generation stage", slog.String("stage", name))
	}
	if !ok {
		o.logger.LogAttrs(ctx, slog.LevelWarn, "stage accepted best-effort candidate", slog.String("stage", name))
	}
	return value, ok, nil
}

func (o *Orchestrator) renderPrompt(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := o.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", errors.Wrap(err, "render prompt", slog.String("template", name))
	}
	return buf.String(), nil
}

// generateFraming produces the narrative briefing shown before day one. It is
// flavor text: any failure leaves it empty.
func (o *Orchestrator) generateFraming(ctx context.Context, story models.Story) string {
	framing, _, err := stage(ctx, o, "framing.txt", story,
		func(p framingPayload) bool { return generation.ValidStruct(p) })
	if err != nil {
		o.logger.LogAttrs(ctx, slog.LevelWarn, "framing generation failed", errors.SlogError(err))
		return ""
	}
	return framing.Framing
}

// decoratePortraits generates and uploads portraits for the victim and every
// suspect. Suspects have no cross-dependency here so the uploads run
// concurrently. Failures leave the portrait unset.
func (o *Orchestrator) decoratePortraits(ctx context.Context, story *models.Story) {
	if o.images == nil || o.media == nil {
		return
	}

	var g errgroup.Group

	g.Go(func() error {
		url, err := o.portrait(ctx, story.Victim.Name,
			fmt.Sprintf("%s, %s, victim of a mystery set in %s",
				story.Victim.Name, story.Victim.Profession, story.Setting))
		if err != nil {
			o.logger.LogAttrs(ctx, slog.LevelWarn, "victim portrait failed", errors.SlogError(err))
			return nil
		}
		story.Victim.Portrait = url
		return nil
	})

	for i := range story.Suspects {
		g.Go(func() error {
			suspect := story.Suspects[i]
			url, err := o.portrait(ctx, suspect.Name,
				fmt.Sprintf("%s, %s, %s, suspect in a mystery set in %s",
					suspect.Name, suspect.Role, suspect.Personality, story.Setting))
			if err != nil {
				o.logger.LogAttrs(ctx, slog.LevelWarn, "suspect portrait failed",
					slog.String("suspect", suspect.Name), errors.SlogError(err))
				return nil
			}
			story.Suspects[i].Portrait = url
			return nil
		})
	}

	// The workers swallow their own errors, so Wait only synchronizes.
	_ = g.Wait()
}

func (o *Orchestrator) portrait(ctx context.Context, name, description string) (string, error) {
	blob, err := o.images.GenerateImage(ctx, "A moody noir character portrait: "+description)
	if err != nil {
		return "", errors.Wrap(err, "generate portrait image")
	}
	obj, err := o.media.Upload(ctx, blob, name+".png", "portraits")
	if err != nil {
		return "", errors.Wrap(err, "upload portrait")
	}
	return obj.URL, nil
}

func killerCount(suspects []models.Suspect) int {
	count := 0
	for _, suspect := range suspects {
		if suspect.IsKiller {
			count++
		}
	}
	return count
}

func validScene(p scenePayload) bool {
	if !generation.ValidStruct(p) {
		return false
	}
	known := make(map[string]bool, len(p.Locations))
	for _, location := range p.Locations {
		known[location] = true
	}
	for location := range p.Clues {
		if !known[location] {
			return false
		}
	}
	for location, witnesses := range p.Witnesses {
		if !known[location] || !generation.ValidEach(witnesses) {
			return false
		}
	}
	return true
}

// chronological checks that HH:MM timestamps never go backwards. Zero-padded
// 24-hour times compare correctly as strings.
func chronological(events []models.TimelineEvent) bool {
	for i := 1; i < len(events); i++ {
		if events[i].Time < events[i-1].Time {
			return false
		}
	}
	return true
}
