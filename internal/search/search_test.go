// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperwork/internal/backend"
	"github.com/pdiddy/paperwork/pkg/types"
)

// --- fake enricher ---

type fakeEnricher struct {
	mu        sync.Mutex
	citations map[string]int
	dates     map[string]time.Time
	failIDs   map[string]bool
	calls     int
}

func (f *fakeEnricher) CitationCount(_ context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failIDs[id] {
		return 0, errors.New("lookup failed")
	}
	return f.citations[id], nil
}

func (f *fakeEnricher) PaperMetadata(_ context.Context, id string) (backend.PaperMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failIDs[id] {
		return backend.PaperMetadata{}, errors.New("lookup failed")
	}
	t, ok := f.dates[id]
	if !ok {
		return backend.PaperMetadata{}, nil
	}
	return backend.PaperMetadata{PublicationDate: types.KnownDate(t)}, nil
}

func newProcessor(e Enricher) *Processor {
	return &Processor{
		Enricher: e,
		Simulate: true,
		Rand:     rand.New(rand.NewPCG(1, 2)),
		Now:      func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// rows builds n raw rows titled P0..Pn-1 with URLs u0..un-1.
func rows(n int) []backend.RawPaper {
	out := make([]backend.RawPaper, n)
	for i := range out {
		out[i] = backend.RawPaper{
			Title:   fmt.Sprintf("P%d", i),
			Authors: []string{"Ada", "Grace"},
			URL:     fmt.Sprintf("u%d", i),
		}
	}
	return out
}

func titles(papers []types.Paper) []string {
	out := make([]string, len(papers))
	for i, p := range papers {
		out[i] = p.Title
	}
	return out
}

// --- priority ---

func TestDetectPriority(t *testing.T) {
	tests := []struct {
		query string
		want  Priority
	}{
		{"latest CNN papers", Priority{Recency: true}},
		{"NEWEST results", Priority{Recency: true}},
		{"most cited transformers", Priority{Citation: true}},
		{"trending GANs", Priority{Citation: true}},
		{"recent popular papers", Priority{Recency: true, Citation: true}},
		{"best papers", Priority{}},
		{"", Priority{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectPriority(tt.query))
		})
	}
}

// --- normalisation ---

func TestNormalize(t *testing.T) {
	got := Normalize([]backend.RawPaper{
		{Title: "A", Authors: []string{"X", "Y"}, URL: "https://a", Summary: "s", RelatedTo: "B"},
		{Title: "B"},
	})

	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].ID)
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, "X, Y", got[0].Author)
	assert.Equal(t, "B", got[0].RelatedTo)
	assert.Equal(t, 1, got[1].ID)
	assert.Equal(t, types.NotAvailable, got[1].URL)
	assert.Equal(t, types.NotAvailable, got[1].Citation.String())
	assert.Equal(t, types.NotAvailable, got[1].Date.String())
}

// --- processing ---

func TestProcess_LengthAndDenseIDs(t *testing.T) {
	for _, n := range []int{0, 1, 3, 10, 15} {
		t.Run(fmt.Sprintf("%d rows", n), func(t *testing.T) {
			p := newProcessor(&fakeEnricher{})
			got := p.Process(context.Background(), backend.SearchResponse{Papers: rows(n)}, "graph networks")

			want := min(n, MaxDisplayed)
			require.Len(t, got, want)
			for i, paper := range got {
				assert.Equal(t, i, paper.ID)
			}
		})
	}
}

func TestProcess_LatestQuerySortsByDate(t *testing.T) {
	e := &fakeEnricher{dates: map[string]time.Time{}}
	for i := 0; i < 15; i++ {
		e.dates[fmt.Sprintf("u%d", i)] = day(2020, time.January, 1).AddDate(0, i*2, 0)
	}

	got := newProcessor(e).Process(context.Background(), backend.SearchResponse{Papers: rows(15)}, "latest CNN papers")

	require.Len(t, got, 10)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i-1].Date.Before(got[i].Date), "dates must be descending at %d", i)
	}
	assert.Equal(t, "P14", got[0].Title)
	assert.Equal(t, types.MetaKnown, got[0].Date.State)
}

func TestProcess_RecommendedPinnedFirst(t *testing.T) {
	e := &fakeEnricher{citations: map[string]int{"u0": 900, "u1": 800, "u2": 3}}
	resp := backend.SearchResponse{
		Papers: rows(3),
		Recommendations: &backend.Recommendations{
			MostCited: &backend.RecommendedEntry{Title: "P2", Reason: "widely cited"},
		},
	}

	got := newProcessor(e).Process(context.Background(), resp, "best papers")

	require.Len(t, got, 3)
	assert.Equal(t, "P2", got[0].Title)
	assert.True(t, got[0].IsRecommended)
	assert.Equal(t, &types.Recommendation{Type: types.MostCited, Reason: "widely cited"}, got[0].Recommendation)
	assert.Equal(t, []string{"P2", "P0", "P1"}, titles(got))
}

func TestProcess_RecommendationTypeRankWithoutPriority(t *testing.T) {
	resp := backend.SearchResponse{
		Papers: rows(4),
		Recommendations: &backend.Recommendations{
			MostRecent:   &backend.RecommendedEntry{Title: "P0"},
			MostCited:    &backend.RecommendedEntry{Title: "P1"},
			MostRelevant: &backend.RecommendedEntry{Title: "P2"},
		},
	}

	got := newProcessor(&fakeEnricher{}).Process(context.Background(), resp, "graph papers")

	assert.Equal(t, []string{"P2", "P1", "P0", "P3"}, titles(got))
}

func TestProcess_FirstMatchingRecommendationWins(t *testing.T) {
	resp := backend.SearchResponse{
		Papers: rows(1),
		Recommendations: &backend.Recommendations{
			MostRelevant: &backend.RecommendedEntry{Title: "P0", Reason: "relevant"},
			MostCited:    &backend.RecommendedEntry{Title: "P0", Reason: "cited"},
		},
	}

	got := newProcessor(&fakeEnricher{}).Process(context.Background(), resp, "x")

	require.Len(t, got, 1)
	assert.Equal(t, types.MostCited, got[0].Recommendation.Type)
}

func TestProcess_BothFlagsSortByDateWithRecommendedPinned(t *testing.T) {
	e := &fakeEnricher{
		citations: map[string]int{"u0": 5, "u1": 500, "u2": 50},
		dates: map[string]time.Time{
			"u0": day(2024, time.March, 1),
			"u1": day(2021, time.March, 1),
			"u2": day(2022, time.March, 1),
		},
	}
	resp := backend.SearchResponse{
		Papers:          rows(3),
		Recommendations: &backend.Recommendations{MostCited: &backend.RecommendedEntry{Title: "P1"}},
	}

	got := newProcessor(e).Process(context.Background(), resp, "recent popular work")

	assert.Equal(t, []string{"P1", "P0", "P2"}, titles(got))
}

func TestProcess_CitationQuerySortsByCitation(t *testing.T) {
	e := &fakeEnricher{citations: map[string]int{"u0": 5, "u1": 500, "u2": 50}}

	got := newProcessor(e).Process(context.Background(), backend.SearchResponse{Papers: rows(3)}, "most cited")

	assert.Equal(t, []string{"P1", "P2", "P0"}, titles(got))
}

func TestProcess_RelatedFirstWithoutPriority(t *testing.T) {
	e := &fakeEnricher{citations: map[string]int{"u0": 900, "u1": 10, "u2": 20}}
	raw := rows(3)
	raw[1].RelatedTo = "P0"

	got := newProcessor(e).Process(context.Background(), backend.SearchResponse{Papers: raw}, "graphs")

	assert.Equal(t, []string{"P1", "P0", "P2"}, titles(got))
}

func TestProcess_CapKeepsRecommended(t *testing.T) {
	resp := backend.SearchResponse{
		Papers: rows(14),
		Recommendations: &backend.Recommendations{
			MostCited:    &backend.RecommendedEntry{Title: "P11"},
			MostRelevant: &backend.RecommendedEntry{Title: "P12"},
			MostRecent:   &backend.RecommendedEntry{Title: "P13"},
		},
	}

	got := newProcessor(&fakeEnricher{}).Process(context.Background(), resp, "graphs")

	require.Len(t, got, 10)
	assert.Equal(t, []string{"P12", "P11", "P13"}, titles(got[:3]))
	for _, p := range got[3:] {
		assert.False(t, p.IsRecommended)
	}
}

func TestProcess_FallbackOnFailure(t *testing.T) {
	e := &fakeEnricher{
		citations: map[string]int{"u0": 10, "u1": 20},
		dates:     map[string]time.Time{"u0": day(2019, time.May, 5), "u1": day(2018, time.May, 5)},
		failIDs:   map[string]bool{"u1": true},
	}

	got := newProcessor(e).Process(context.Background(), backend.SearchResponse{Papers: rows(2)}, "graphs")

	byTitle := map[string]types.Paper{}
	for _, p := range got {
		byTitle[p.Title] = p
	}
	assert.Equal(t, types.KnownCitation(10), byTitle["P0"].Citation)
	assert.Equal(t, "2019.05.05", byTitle["P0"].Date.String())

	failed := byTitle["P1"]
	assert.Equal(t, types.MetaSimulated, failed.Citation.State)
	assert.GreaterOrEqual(t, failed.Citation.Count, 0)
	assert.LessOrEqual(t, failed.Citation.Count, 100)
	assert.Equal(t, types.MetaSimulated, failed.Date.State)
	assert.False(t, failed.Date.Time.Before(day(2023, time.January, 1)))
	assert.False(t, failed.Date.Time.After(day(2025, time.June, 1)))
}

func TestProcess_ZeroCitationFallsBackToPriorityRange(t *testing.T) {
	e := &fakeEnricher{}

	got := newProcessor(e).Process(context.Background(), backend.SearchResponse{Papers: rows(5), CitationPriority: true}, "x")

	for _, p := range got {
		assert.Equal(t, types.MetaSimulated, p.Citation.State)
		assert.GreaterOrEqual(t, p.Citation.Count, 50)
		assert.LessOrEqual(t, p.Citation.Count, 500)
	}
}

func TestProcess_NoSimulation(t *testing.T) {
	e := &fakeEnricher{failIDs: map[string]bool{"u0": true}, citations: map[string]int{"u1": 0}}
	p := newProcessor(e)
	p.Simulate = false

	got := p.Process(context.Background(), backend.SearchResponse{Papers: rows(2)}, "x")

	byTitle := map[string]types.Paper{}
	for _, paper := range got {
		byTitle[paper.Title] = paper
	}
	assert.Equal(t, types.NotAvailable, byTitle["P0"].Citation.String())
	assert.Equal(t, types.NotAvailable, byTitle["P0"].Date.String())
	assert.Equal(t, types.KnownCitation(0), byTitle["P1"].Citation)
}

func TestProcess_SkipsRowsWithoutURLOrWithValues(t *testing.T) {
	e := &fakeEnricher{}
	raw := []backend.RawPaper{
		{Title: "no url"},
		{Title: "has both", URL: "u1", Citation: types.KnownCitation(7), Date: types.KnownDate(day(2020, 1, 1))},
		{Title: "needs date", URL: "u2", Citation: types.KnownCitation(3)},
	}

	got := newProcessor(e).Process(context.Background(), backend.SearchResponse{Papers: raw}, "x")

	assert.Equal(t, 1, e.calls)
	require.Len(t, got, 3)
	for _, p := range got {
		if p.Title == "no url" {
			assert.Equal(t, types.NotAvailable, p.Citation.String())
		}
	}
}

func TestProcess_NilEnricherSimulates(t *testing.T) {
	p := newProcessor(nil)

	got := p.Process(context.Background(), backend.SearchResponse{Papers: rows(2)}, "x")

	for _, paper := range got {
		assert.Equal(t, types.MetaSimulated, paper.Citation.State)
		assert.Equal(t, types.MetaSimulated, paper.Date.State)
	}
}

func TestOrder_DoesNotMutateInput(t *testing.T) {
	in := Normalize(rows(3))
	in[2].IsRecommended = true
	before := types.ClonePapers(in)

	_ = Order(in, Priority{})

	if diff := cmp.Diff(before, in); diff != "" {
		t.Errorf("input mutated (-want +got):\n%s", diff)
	}
}

// --- ranking ---

func TestRankBy(t *testing.T) {
	papers := []types.Paper{
		{Title: "A", Citation: types.KnownCitation(5), Date: types.KnownDate(day(2020, 1, 1)),
			Analysis: &types.Analysis{Relevance: &types.Facet{Rating: 3}, Feasibility: &types.Facet{Rating: 9}}},
		{Title: "B", Citation: types.KnownCitation(50), Date: types.KnownDate(day(2024, 1, 1)),
			Analysis: &types.Analysis{Relevance: &types.Facet{Rating: 8}}},
		{Title: "C", Date: types.PubDate{}},
	}

	tests := []struct {
		c    Criterion
		want []string
	}{
		{ByRelevance, []string{"B", "A", "C"}},
		{ByFeasibility, []string{"A", "B", "C"}},
		{ByTechnicalInnovation, []string{"A", "B", "C"}},
		{ByCitation, []string{"B", "A", "C"}},
		{ByTime, []string{"B", "A", "C"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.c), func(t *testing.T) {
			got := RankBy(papers, tt.c)
			assert.Equal(t, tt.want, titles(got))
			for i, p := range got {
				assert.Equal(t, i, p.ID)
			}
		})
	}
	assert.Equal(t, []string{"A", "B", "C"}, titles(papers))
}

func TestParseCriterion(t *testing.T) {
	c, err := ParseCriterion("citation")
	require.NoError(t, err)
	assert.Equal(t, ByCitation, c)

	_, err = ParseCriterion("stars")
	assert.Error(t, err)
}

// --- formatting ---

func TestFormatTable(t *testing.T) {
	papers := []types.Paper{
		{ID: 0, Title: "Pinned", Authors: []string{"Ada", "Grace"}, IsRecommended: true,
			Recommendation: &types.Recommendation{Type: types.MostCited, Reason: "classic"},
			Citation:       types.SimulatedCitation(12), Date: types.KnownDate(day(2024, 2, 3))},
		{ID: 1, Title: strings.Repeat("x", 80), Selected: true},
	}

	var buf bytes.Buffer
	FormatTable(papers, &buf)
	out := buf.String()

	assert.Contains(t, out, "* Pinned")
	assert.Contains(t, out, "Ada et al.")
	assert.Contains(t, out, "12~")
	assert.Contains(t, out, "2024.02.03")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "2 papers (1 recommended)")
	assert.Contains(t, out, "[most_cited]: classic")
}

func TestFormatTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(nil, &buf)
	assert.Equal(t, "No papers found.\n", buf.String())
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON([]types.Paper{{Title: "A", URL: "u", Citation: types.KnownCitation(4)}}, &buf))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, float64(4), decoded[0]["citation"])
	assert.Equal(t, types.NotAvailable, decoded[0]["date"])
}
