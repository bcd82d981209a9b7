// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search turns raw backend search rows into a display-ready paper
// list: normalised, enriched with citation and date metadata, ordered by
// the query's priority and capped with recommended papers pinned first.
package search

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paperwork/internal/backend"
	"github.com/pdiddy/paperwork/pkg/types"
)

// MaxDisplayed is the maximum number of non-recommended papers in a
// processed list, counting recommended ones against it.
const MaxDisplayed = 10

const defaultConcurrency = 8

// Citation fallback ranges. Backends that prioritise citations report
// larger counts, so their placeholders are drawn from a higher range.
const (
	fallbackCitationMin         = 0
	fallbackCitationMax         = 100
	fallbackCitationPriorityMin = 50
	fallbackCitationPriorityMax = 500
)

var errNoEnricher = errors.New("no metadata source configured")

// fallbackDateStart is the earliest simulated publication date.
var fallbackDateStart = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	recencyKeywords  = []string{"newest", "latest", "recent", "new"}
	citationKeywords = []string{"citation", "cited", "popular", "trending", "cite"}
)

// Priority holds the ordering flags derived from a query.
type Priority struct {
	Recency  bool
	Citation bool
}

// DetectPriority matches the query, case-insensitively, against the
// recency and citation keyword sets. Both flags may be set.
func DetectPriority(query string) Priority {
	q := strings.ToLower(query)
	return Priority{
		Recency:  containsAny(q, recencyKeywords),
		Citation: containsAny(q, citationKeywords),
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// Enricher fetches per-paper metadata. *backend.Client satisfies it.
type Enricher interface {
	CitationCount(ctx context.Context, paperID string) (int, error)
	PaperMetadata(ctx context.Context, paperID string) (backend.PaperMetadata, error)
}

// Normalize converts backend rows into papers. IDs follow input order,
// Author joins the author list, Name copies Title and a missing URL
// becomes types.NotAvailable.
func Normalize(rows []backend.RawPaper) []types.Paper {
	papers := make([]types.Paper, len(rows))
	for i, r := range rows {
		url := strings.TrimSpace(r.URL)
		if url == "" {
			url = types.NotAvailable
		}
		var authors []string
		if len(r.Authors) > 0 {
			authors = append([]string(nil), r.Authors...)
		}
		papers[i] = types.Paper{
			ID:        i,
			Title:     r.Title,
			Name:      r.Title,
			Authors:   authors,
			Author:    strings.Join(r.Authors, ", "),
			Summary:   r.Summary,
			URL:       url,
			Date:      r.Date,
			Citation:  r.Citation,
			RelatedTo: r.RelatedTo,
		}
	}
	return papers
}

// markRecommendations flags rows whose title exactly matches a
// recommendation entry. Entries are checked in most_cited, most_relevant,
// most_recent order and the first match wins.
func markRecommendations(papers []types.Paper, recs *backend.Recommendations) {
	if recs == nil {
		return
	}
	entries := []struct {
		kind  types.RecommendationType
		entry *backend.RecommendedEntry
	}{
		{types.MostCited, recs.MostCited},
		{types.MostRelevant, recs.MostRelevant},
		{types.MostRecent, recs.MostRecent},
	}
	for i := range papers {
		for _, e := range entries {
			if e.entry == nil || e.entry.Title != papers[i].Title {
				continue
			}
			papers[i].IsRecommended = true
			papers[i].Recommendation = &types.Recommendation{Type: e.kind, Reason: e.entry.Reason}
			break
		}
	}
}

// Processor produces display-ready paper lists from search responses.
type Processor struct {
	// Enricher supplies citation counts and publication dates. When nil
	// every row falls back.
	Enricher Enricher

	// Concurrency bounds in-flight enrichment calls (default 8).
	Concurrency int

	// Simulate fills missing metadata with random values flagged as
	// simulated. When false missing values stay unknown.
	Simulate bool

	// Rand draws simulated values. Nil uses the global source.
	Rand *rand.Rand

	// Now returns the current time. Nil uses time.Now.
	Now func() time.Time

	// Logger receives enrichment diagnostics. Nil disables logging.
	Logger *zap.Logger
}

// NewProcessor builds a Processor from configuration.
func NewProcessor(enricher Enricher, cfg types.SearchConfig, logger *zap.Logger) *Processor {
	return &Processor{
		Enricher:    enricher,
		Concurrency: cfg.EnrichConcurrency,
		Simulate:    cfg.SimulateMissingMetadata,
		Logger:      logger,
	}
}

// Process normalises, enriches, orders and caps a search response. The
// priority flags come from originalQuery, the text the user typed before
// any keyword expansion.
func (p *Processor) Process(ctx context.Context, resp backend.SearchResponse, originalQuery string) []types.Paper {
	papers := Normalize(resp.Papers)
	markRecommendations(papers, resp.Recommendations)
	p.enrich(ctx, papers, resp.CitationPriority)
	return Order(papers, DetectPriority(originalQuery))
}

func (p *Processor) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// enrich fetches citation counts and dates for every row with a real URL.
// Each row issues two independent calls; a failure affects only that
// value of that row.
func (p *Processor) enrich(ctx context.Context, papers []types.Paper, citationPriority bool) {
	counts := make([]int, len(papers))
	countErrs := make([]error, len(papers))
	dates := make([]types.PubDate, len(papers))
	dateErrs := make([]error, len(papers))

	if p.Enricher != nil {
		limit := p.Concurrency
		if limit <= 0 {
			limit = defaultConcurrency
		}
		var eg errgroup.Group
		eg.SetLimit(limit)

		for i := range papers {
			if !papers[i].HasURL() {
				continue
			}
			id := backend.PaperID(papers[i].URL)
			if !papers[i].Citation.Valid() {
				eg.Go(func() error {
					counts[i], countErrs[i] = p.Enricher.CitationCount(ctx, id)
					return nil
				})
			}
			if !papers[i].Date.Valid() {
				eg.Go(func() error {
					md, err := p.Enricher.PaperMetadata(ctx, id)
					dates[i], dateErrs[i] = md.PublicationDate, err
					return nil
				})
			}
		}
		eg.Wait()
	} else {
		for i := range papers {
			countErrs[i], dateErrs[i] = errNoEnricher, errNoEnricher
		}
	}

	log := p.logger()
	for i := range papers {
		if !papers[i].HasURL() {
			continue
		}
		if !papers[i].Citation.Valid() {
			switch {
			case countErrs[i] == nil && (counts[i] > 0 || !p.Simulate):
				papers[i].Citation = types.KnownCitation(counts[i])
			case p.Simulate:
				if countErrs[i] != nil {
					log.Debug("citation lookup failed", zap.String("url", papers[i].URL), zap.Error(countErrs[i]))
				}
				papers[i].Citation = types.SimulatedCitation(p.randomCitation(citationPriority))
			default:
				papers[i].Citation = types.Citation{}
			}
		}
		if !papers[i].Date.Valid() {
			switch {
			case dateErrs[i] == nil && dates[i].Valid():
				papers[i].Date = types.KnownDate(dates[i].Time)
			case p.Simulate:
				if dateErrs[i] != nil {
					log.Debug("metadata lookup failed", zap.String("url", papers[i].URL), zap.Error(dateErrs[i]))
				}
				papers[i].Date = types.SimulatedDate(p.randomDate())
			default:
				papers[i].Date = types.PubDate{}
			}
		}
	}
}

func (p *Processor) intN(n int) int {
	if p.Rand != nil {
		return p.Rand.IntN(n)
	}
	return rand.IntN(n)
}

func (p *Processor) int64N(n int64) int64 {
	if p.Rand != nil {
		return p.Rand.Int64N(n)
	}
	return rand.Int64N(n)
}

func (p *Processor) randomCitation(citationPriority bool) int {
	lo, hi := fallbackCitationMin, fallbackCitationMax
	if citationPriority {
		lo, hi = fallbackCitationPriorityMin, fallbackCitationPriorityMax
	}
	return lo + p.intN(hi-lo+1)
}

func (p *Processor) randomDate() time.Time {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	span := now().Sub(fallbackDateStart)
	if span <= 0 {
		return fallbackDateStart
	}
	d := fallbackDateStart.Add(time.Duration(p.int64N(int64(span))))
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// Order sorts papers by pr, trims the non-recommended tail so that at most
// MaxDisplayed papers remain (recommended papers are always kept) and
// renumbers IDs by final position. The input slice is not modified.
func Order(papers []types.Paper, pr Priority) []types.Paper {
	sorted := types.ClonePapers(papers)
	if sorted == nil {
		sorted = []types.Paper{}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j], pr)
	})

	recommended := 0
	for _, p := range sorted {
		if p.IsRecommended {
			recommended++
		}
	}
	keep := recommended + max(MaxDisplayed-recommended, 0)
	if len(sorted) > keep {
		sorted = sorted[:keep]
	}
	types.Renumber(sorted)
	return sorted
}

func less(a, b types.Paper, pr Priority) bool {
	if a.IsRecommended != b.IsRecommended {
		return a.IsRecommended
	}
	if a.IsRecommended && !pr.Recency && !pr.Citation {
		ra, rb := recommendationRank(a), recommendationRank(b)
		if ra != rb {
			return ra < rb
		}
	}
	switch {
	case pr.Recency:
		return b.Date.Before(a.Date)
	case pr.Citation:
		return a.Citation.Value() > b.Citation.Value()
	default:
		ar, br := a.RelatedTo != "", b.RelatedTo != ""
		if ar != br {
			return ar
		}
		return a.Citation.Value() > b.Citation.Value()
	}
}

func recommendationRank(p types.Paper) int {
	if p.Recommendation == nil {
		return types.RecommendationType("").Rank()
	}
	return p.Recommendation.Type.Rank()
}
