// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperwork/internal/profile"
	"github.com/pdiddy/paperwork/pkg/types"
)

func newLibrary(t *testing.T) *Library {
	t.Helper()
	return New(profile.NewProfile(profile.OpenMemory()), nil)
}

func titlesOf(papers []types.Paper) []string {
	out := make([]string, len(papers))
	for i, p := range papers {
		out[i] = p.Title
	}
	return out
}

func TestMergeUnique(t *testing.T) {
	existing := []types.Paper{{Title: "A", URL: "ua"}}
	incoming := []types.Paper{
		{Title: "A again", URL: "ua", Selected: true},
		{Title: "B", URL: "ub", Selected: true},
		{Title: "B dup", URL: "ub"},
		{Title: "No URL", URL: types.NotAvailable},
		{Title: "No URL", URL: types.NotAvailable},
	}

	got, added := MergeUnique(existing, incoming)

	assert.Equal(t, 2, added)
	assert.Equal(t, []string{"A", "B", "No URL"}, titlesOf(got))
	for i, p := range got {
		assert.Equal(t, i, p.ID)
		assert.False(t, p.Selected)
	}
	assert.True(t, incoming[1].Selected, "incoming must not be modified")
}

func TestArchive_DuplicateIsNoOp(t *testing.T) {
	ctx := context.Background()
	l := newLibrary(t)

	added, err := l.Archive(ctx, []types.Paper{{Title: "A", URL: "ua", Selected: true}})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	before := l.Papers()

	added, err = l.Archive(ctx, []types.Paper{{Title: "A renamed", URL: "ua", Selected: true}})
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, before, l.Papers())
	assert.True(t, l.Contains(types.Paper{URL: "ua"}))
}

func TestSelectionAndRemoval(t *testing.T) {
	ctx := context.Background()
	l := newLibrary(t)
	_, err := l.Archive(ctx, []types.Paper{{Title: "A", URL: "ua"}, {Title: "B", URL: "ub"}, {Title: "C", URL: "uc"}})
	require.NoError(t, err)

	require.NoError(t, l.SetSelected(ctx, []int{0, 2}, true))
	assert.Equal(t, []string{"A", "C"}, titlesOf(l.Selected()))

	removed, err := l.RemoveSelected(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	got := l.Papers()
	assert.Equal(t, []string{"B"}, titlesOf(got))
	assert.Equal(t, 0, got[0].ID)

	removed, err = l.Remove(ctx, []int{0})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Empty(t, l.Papers())
}

func TestClearSelection(t *testing.T) {
	ctx := context.Background()
	l := newLibrary(t)
	_, err := l.Archive(ctx, []types.Paper{{Title: "A", URL: "ua"}})
	require.NoError(t, err)
	require.NoError(t, l.SetSelected(ctx, []int{0}, true))

	require.NoError(t, l.ClearSelection(ctx))
	assert.Empty(t, l.Selected())
}

func TestMove(t *testing.T) {
	papers := []types.Paper{{Title: "A"}, {Title: "B"}, {Title: "C"}, {Title: "D"}}

	got, err := Move(papers, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "D", "B", "C"}, titlesOf(got))
	assert.Equal(t, 3, got[3].ID)

	got, err = Move(papers, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "D", "A"}, titlesOf(got))
	assert.Equal(t, []string{"A", "B", "C", "D"}, titlesOf(papers))

	_, err = Move(papers, 0, 4)
	assert.Error(t, err)
}

func TestLibraryMove(t *testing.T) {
	ctx := context.Background()
	l := newLibrary(t)
	_, err := l.Archive(ctx, []types.Paper{{Title: "A", URL: "ua"}, {Title: "B", URL: "ub"}})
	require.NoError(t, err)

	require.NoError(t, l.Move(ctx, 1, 0))
	assert.Equal(t, []string{"B", "A"}, titlesOf(l.Papers()))
	assert.Error(t, l.Move(ctx, 5, 0))
	assert.Equal(t, []string{"B", "A"}, titlesOf(l.Papers()))
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	l := newLibrary(t)
	_, err := l.Archive(ctx, []types.Paper{{
		Title:    "A",
		Author:   "Ada, Grace",
		URL:      "ua",
		Citation: types.SimulatedCitation(12),
		Analysis: &types.Analysis{Feasibility: &types.Facet{Rating: 6, Explanation: "doable"}},
	}})
	require.NoError(t, err)

	var y bytes.Buffer
	require.NoError(t, l.ExportYAML(&y))
	var fromYAML []ExportEntry
	require.NoError(t, yaml.Unmarshal(y.Bytes(), &fromYAML))
	require.Len(t, fromYAML, 1)
	assert.Equal(t, "12", fromYAML[0].Citations)
	assert.True(t, fromYAML[0].Simulated)
	assert.Equal(t, types.NotAvailable, fromYAML[0].Date)
	assert.Equal(t, 6, fromYAML[0].Analysis.Feasibility.Rating)

	var j bytes.Buffer
	require.NoError(t, l.ExportJSON(&j))
	var fromJSON []ExportEntry
	require.NoError(t, json.Unmarshal(j.Bytes(), &fromJSON))
	assert.Equal(t, "Ada, Grace", fromJSON[0].Authors)
}
