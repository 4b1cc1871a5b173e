package locmap_test

import (
	"context"
	"io"
	"testing"

	"github.com/myrjola/whodunit/internal/locmap"
	"github.com/myrjola/whodunit/internal/models"
	"github.com/myrjola/whodunit/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

type staticText struct {
	output string
	err    error
}

func (s staticText) Generate(_ context.Context, _ string) (string, error) {
	return s.output, s.err
}

func TestLinearChain(t *testing.T) {
	nodes := locmap.LinearChain([]string{"Lab", "Office", "Storage"})
	require.Equal(t, []models.LocationNode{
		{ID: "L1", FullName: "Lab", Connections: []string{"L2"}},
		{ID: "L2", FullName: "Office", Connections: []string{"L3"}},
		{ID: "L3", FullName: "Storage", Connections: []string{}},
	}, nodes)
	require.True(t, locmap.Connected(nodes))
}

func TestConnected(t *testing.T) {
	tests := []struct {
		name  string
		nodes []models.LocationNode
		want  bool
	}{
		{
			name: "single node",
			nodes: []models.LocationNode{
				{ID: "L1", FullName: "Lab"},
			},
			want: true,
		},
		{
			name: "chain is connected in both directions",
			nodes: []models.LocationNode{
				{ID: "L1", FullName: "Lab", Connections: []string{"L2"}},
				{ID: "L2", FullName: "Office"},
			},
			want: true,
		},
		{
			name: "island is disconnected",
			nodes: []models.LocationNode{
				{ID: "L1", FullName: "Lab", Connections: []string{"L2"}},
				{ID: "L2", FullName: "Office"},
				{ID: "L3", FullName: "Storage"},
			},
			want: false,
		},
		{
			name:  "empty graph",
			nodes: nil,
			want:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, locmap.Connected(tt.nodes))
		})
	}
}

func TestValid(t *testing.T) {
	names := []string{"Lab", "Office"}
	tests := []struct {
		name  string
		nodes []models.LocationNode
		want  bool
	}{
		{
			name: "valid graph",
			nodes: []models.LocationNode{
				{ID: "L1", FullName: "Lab", Connections: []string{"L2"}},
				{ID: "L2", FullName: "Office"},
			},
			want: true,
		},
		{
			name: "renumbered ids rejected",
			nodes: []models.LocationNode{
				{ID: "L2", FullName: "Lab", Connections: []string{"L1"}},
				{ID: "L1", FullName: "Office"},
			},
			want: false,
		},
		{
			name: "unknown connection id rejected",
			nodes: []models.LocationNode{
				{ID: "L1", FullName: "Lab", Connections: []string{"L9"}},
				{ID: "L2", FullName: "Office", Connections: []string{"L1"}},
			},
			want: false,
		},
		{
			name: "self connection rejected",
			nodes: []models.LocationNode{
				{ID: "L1", FullName: "Lab", Connections: []string{"L1", "L2"}},
				{ID: "L2", FullName: "Office"},
			},
			want: false,
		},
		{
			name: "wrong node count rejected",
			nodes: []models.LocationNode{
				{ID: "L1", FullName: "Lab"},
			},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, locmap.Valid(tt.nodes, names))
		})
	}
}

func TestBuildGraphUsesSuggestions(t *testing.T) {
	logger := testhelpers.NewLogger(io.Discard)
	builder := locmap.NewBuilder(staticText{
		output: `Here you go:
[
  {"id":"L1","fullName":"Lab","connections":["L2","L3"]},
  {"id":"L2","fullName":"Office","connections":[]},
  {"id":"L3","fullName":"Storage","connections":[]}
]`,
	}, logger)

	nodes, err := builder.BuildGraph(context.Background(), []string{"Lab", "Office", "Storage"}, nil)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	require.Equal(t, []string{"L2", "L3"}, nodes[0].Connections)
	require.True(t, locmap.Connected(nodes))
}

func TestBuildGraphFallsBackToChain(t *testing.T) {
	logger := testhelpers.NewLogger(io.Discard)
	tests := []struct {
		name   string
		output string
	}{
		{
			name:   "unparseable output",
			output: "I don't feel like drawing maps today.",
		},
		{
			name: "disconnected suggestion",
			output: `[
  {"id":"L1","fullName":"Lab","connections":[]},
  {"id":"L2","fullName":"Office","connections":[]},
  {"id":"L3","fullName":"Storage","connections":[]}
]`,
		},
		{
			name: "unknown ids in suggestion",
			output: `[
  {"id":"L1","fullName":"Lab","connections":["L7"]},
  {"id":"L2","fullName":"Office","connections":["L1"]},
  {"id":"L3","fullName":"Storage","connections":["L2"]}
]`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := locmap.NewBuilder(staticText{output: tt.output}, logger)
			nodes, err := builder.BuildGraph(context.Background(), []string{"Lab", "Office", "Storage"}, nil)
			require.NoError(t, err)
			require.Equal(t, []models.LocationNode{
				{ID: "L1", FullName: "Lab", Connections: []string{"L2"}},
				{ID: "L2", FullName: "Office", Connections: []string{"L3"}},
				{ID: "L3", FullName: "Storage", Connections: []string{}},
			}, nodes)
		})
	}
}

func TestBuildGraphEmptyLocations(t *testing.T) {
	logger := testhelpers.NewLogger(io.Discard)
	builder := locmap.NewBuilder(staticText{output: "[]"}, logger)
	_, err := builder.BuildGraph(context.Background(), nil, nil)
	require.Error(t, err)
}
