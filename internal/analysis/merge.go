// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analysis merges batch paper analyses into URL-keyed results
// without discarding analyses computed earlier.
package analysis

import (
	"context"

	"go.uber.org/zap"

	"github.com/pdiddy/paperwork/internal/backend"
	"github.com/pdiddy/paperwork/pkg/types"
)

// BatchAnalyzer runs the backend batch analysis. *backend.Client
// satisfies it.
type BatchAnalyzer interface {
	AnalyzePapersBatch(ctx context.Context, papers []types.Paper, query *string) (backend.BatchAnalysisResponse, error)
}

// Result holds the analyses produced by Merge, keyed by paper URL. When
// the batch call fails Error is set and Analyses is nil; callers must then
// leave paper state untouched.
type Result struct {
	Analyses map[string]types.Analysis
	Error    string
}

// Failed reports whether the merge produced no analyses because of an error.
func (r Result) Failed() bool { return r.Error != "" }

// Merger sends unanalysed papers to the backend and merges the response
// with existing analyses.
type Merger struct {
	Analyzer BatchAnalyzer
	Logger   *zap.Logger
}

// NewMerger returns a Merger backed by a.
func NewMerger(a BatchAnalyzer, logger *zap.Logger) *Merger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{Analyzer: a, Logger: logger}
}

// Merge returns analyses for papers keyed by URL. Papers that already
// carry an analysis are passed through; only the rest are sent to the
// backend, always with an explicit query field (null when query is nil).
// If every paper is already analysed no call is made.
func (m *Merger) Merge(ctx context.Context, papers []types.Paper, query *string) Result {
	existing := make(map[string]types.Analysis)
	var pending []types.Paper
	for _, p := range papers {
		if p.Analysis != nil {
			existing[p.URL] = p.Analysis.Clone()
			continue
		}
		pending = append(pending, p)
	}

	if len(pending) == 0 {
		return Result{Analyses: existing}
	}

	log := m.Logger
	if log == nil {
		log = zap.NewNop()
	}

	resp, err := m.Analyzer.AnalyzePapersBatch(ctx, pending, query)
	if err != nil {
		log.Warn("batch analysis failed", zap.Int("papers", len(pending)), zap.Error(err))
		return Result{Error: err.Error()}
	}

	sent := make(map[string]bool, len(pending))
	for _, p := range pending {
		sent[p.URL] = true
	}
	titleToURL := make(map[string]string, len(papers))
	for _, p := range papers {
		if _, ok := titleToURL[p.Title]; !ok {
			titleToURL[p.Title] = p.URL
		}
	}

	merged := make(map[string]types.Analysis, len(existing)+len(resp.Papers))
	for url, a := range existing {
		merged[url] = a
	}
	for _, item := range resp.Papers {
		if item.Analysis == nil {
			continue
		}
		url := item.URL
		if url == "" {
			url = titleToURL[item.Title]
		}
		if url == "" {
			log.Debug("dropping analysis without URL", zap.String("title", item.Title))
			continue
		}
		if _, had := existing[url]; had && !sent[url] {
			continue
		}
		merged[url] = item.Analysis.Clone()
	}

	log.Debug("batch analysis merged",
		zap.Int("sent", len(pending)),
		zap.Int("returned", len(resp.Papers)),
		zap.Int("total", len(merged)))
	return Result{Analyses: merged}
}

// Apply returns a copy of papers with analyses attached by URL. Papers
// whose URL is not in analyses keep their current analysis.
func Apply(papers []types.Paper, analyses map[string]types.Analysis) []types.Paper {
	out := types.ClonePapers(papers)
	for i := range out {
		if !out[i].HasURL() {
			continue
		}
		if a, ok := analyses[out[i].URL]; ok {
			c := a.Clone()
			out[i].Analysis = &c
		}
	}
	return out
}
