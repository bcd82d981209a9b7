// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"sort"

	"github.com/pdiddy/paperwork/pkg/types"
)

// Criterion selects the field RankBy sorts on.
type Criterion string

const (
	ByRelevance           Criterion = "relevance"
	ByTechnicalInnovation Criterion = "technical_innovation"
	ByFeasibility         Criterion = "feasibility"
	ByTime                Criterion = "time"
	ByCitation            Criterion = "citation"
)

// Criteria lists every supported criterion.
var Criteria = []Criterion{ByRelevance, ByTechnicalInnovation, ByFeasibility, ByTime, ByCitation}

// ParseCriterion validates a criterion name.
func ParseCriterion(s string) (Criterion, error) {
	for _, c := range Criteria {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown ranking criterion %q (want one of %v)", s, Criteria)
}

// RankBy returns a copy of papers sorted by c in descending order and
// renumbered. Missing ratings and citation counts count as zero; unknown
// dates sort last. Ties keep their current order.
func RankBy(papers []types.Paper, c Criterion) []types.Paper {
	out := types.ClonePapers(papers)
	sort.SliceStable(out, func(i, j int) bool {
		if c == ByTime {
			return out[j].Date.Before(out[i].Date)
		}
		return score(out[i], c) > score(out[j], c)
	})
	types.Renumber(out)
	return out
}

func score(p types.Paper, c Criterion) int {
	switch c {
	case ByCitation:
		return p.Citation.Value()
	case ByRelevance, ByTechnicalInnovation, ByFeasibility:
		if p.Analysis == nil {
			return 0
		}
		var f *types.Facet
		switch c {
		case ByRelevance:
			f = p.Analysis.Relevance
		case ByTechnicalInnovation:
			f = p.Analysis.TechnicalInnovation
		default:
			f = p.Analysis.Feasibility
		}
		if f == nil {
			return 0
		}
		return f.Rating
	default:
		return 0
	}
}
