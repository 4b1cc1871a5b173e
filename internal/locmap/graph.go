// Package locmap derives a connected investigation map from the story's flat
// location list. Connection suggestions come from the generative model; a
// deterministic linear chain guarantees connectivity when the suggestions
// fail validation, since downstream navigation assumes full reachability.
package locmap

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/generation"
	"github.com/myrjola/whodunit/internal/models"
)

//go:embed prompts/connections.txt
var connectionsPrompt string

// NodeID returns the stable id for the i:th location (zero-based). Ids are
// assigned in input order and never renumbered.
func NodeID(i int) string {
	return fmt.Sprintf("L%d", i+1)
}

// LinearChain builds the deterministic fallback graph L1-L2-L3-... which is
// connected by construction when treated as undirected.
func LinearChain(names []string) []models.LocationNode {
	nodes := make([]models.LocationNode, len(names))
	for i, name := range names {
		node := models.LocationNode{
			ID:          NodeID(i),
			FullName:    name,
			Connections: []string{},
		}
		if i < len(names)-1 {
			node.Connections = []string{NodeID(i + 1)}
		}
		nodes[i] = node
	}
	return nodes
}

// Connected reports whether every node is reachable from the first one via
// undirected traversal of the connections.
func Connected(nodes []models.LocationNode) bool {
	if len(nodes) == 0 {
		return false
	}

	neighbours := make(map[string][]string, len(nodes))
	for _, node := range nodes {
		for _, conn := range node.Connections {
			neighbours[node.ID] = append(neighbours[node.ID], conn)
			neighbours[conn] = append(neighbours[conn], node.ID)
		}
	}

	visited := map[string]bool{nodes[0].ID: true}
	queue := []string{nodes[0].ID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range neighbours[id] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return len(visited) == len(nodes)
}

// Valid reports whether nodes is a usable graph for the given location names:
// ids L1..LN in input order, full names preserved, connections referencing
// only known ids, and the whole graph connected.
func Valid(nodes []models.LocationNode, names []string) bool {
	if len(nodes) != len(names) {
		return false
	}
	known := make(map[string]bool, len(nodes))
	for i, node := range nodes {
		if node.ID != NodeID(i) || node.FullName != names[i] {
			return false
		}
		known[node.ID] = true
	}
	for _, node := range nodes {
		for _, conn := range node.Connections {
			if !known[conn] || conn == node.ID {
				return false
			}
		}
	}
	return Connected(nodes)
}

type Builder struct {
	generator *generation.Generator
	logger    *slog.Logger
}

func NewBuilder(text ai.TextGenerator, logger *slog.Logger) *Builder {
	return &Builder{
		generator: generation.NewGenerator(text, logger),
		logger:    logger.With("source", "locmap.Builder"),
	}
}

// BuildGraph asks the model to suggest connections between the named
// locations, giving the story timeline as context. Any parse or validation
// failure engages the linear-chain fallback so the result is always a
// connected graph over ids L1..LN.
func (b *Builder) BuildGraph(
	ctx context.Context,
	names []string,
	timeline []models.TimelineEvent,
) ([]models.LocationNode, error) {
	if len(names) == 0 {
		return nil, errors.New("cannot build a map without locations")
	}

	prompt, err := renderConnectionsPrompt(names, timeline)
	if err != nil {
		return nil, err
	}

	nodes, ok, err := generation.Generate(ctx, b.generator, prompt, func(candidate []models.LocationNode) bool {
		return Valid(candidate, names)
	})
	if err != nil || !ok {
		if err != nil {
			b.logger.LogAttrs(ctx, slog.LevelWarn, "connection suggestion failed, falling back to linear chain",
				errors.SlogError(err))
		} else {
			b.logger.LogAttrs(ctx, slog.LevelWarn, "connection suggestion did not validate, falling back to linear chain")
		}
		return LinearChain(names), nil
	}
	return nodes, nil
}

func renderConnectionsPrompt(names []string, timeline []models.TimelineEvent) (string, error) {
	tmpl, err := template.New("connections").Parse(connectionsPrompt)
	if err != nil {
		return "", errors.Wrap(err, "parse connections prompt")
	}

	type location struct {
		ID   string
		Name string
	}
	locations := make([]location, len(names))
	for i, name := range names {
		locations[i] = location{ID: NodeID(i), Name: name}
	}

	var buf bytes.Buffer
	if err = tmpl.Execute(&buf, struct {
		Locations []location
		Timeline  []models.TimelineEvent
	}{Locations: locations, Timeline: timeline}); err != nil {
		return "", errors.Wrap(err, "render connections prompt")
	}
	return buf.String(), nil
}
