// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/paperwork/pkg/types"
)

// FormatTable writes papers as a human-readable table to w. Recommended
// papers are marked with '*' and simulated metadata with '~'.
func FormatTable(papers []types.Paper, w io.Writer) {
	if len(papers) == 0 {
		fmt.Fprintln(w, "No papers found.")
		return
	}

	fmt.Fprintf(w, "%-3s  %-1s  %-56s  %-20s  %-11s  %-7s  %s\n",
		"ID", "", "Title", "Authors", "Date", "Cites", "Analysis")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for _, p := range papers {
		mark := ""
		if p.Selected {
			mark = "x"
		}
		title := p.Title
		if p.IsRecommended {
			title = "* " + title
		}
		fmt.Fprintf(w, "%-3d  %-1s  %-56s  %-20s  %-11s  %-7s  %s\n",
			p.ID, mark, truncate(title, 56), formatAuthors(p.Authors, p.Author),
			metaCell(p.Date.String(), p.Date.State), metaCell(p.Citation.String(), p.Citation.State),
			formatAnalysis(p.Analysis))
	}

	fmt.Fprintf(w, "\n%d papers", len(papers))
	if n := countRecommended(papers); n > 0 {
		fmt.Fprintf(w, " (%d recommended)", n)
	}
	fmt.Fprintln(w)
	for _, p := range papers {
		if p.Recommendation != nil && p.Recommendation.Reason != "" {
			fmt.Fprintf(w, "  * %s [%s]: %s\n", truncate(p.Title, 60), p.Recommendation.Type, p.Recommendation.Reason)
		}
	}
}

// FormatJSON writes papers as indented JSON to w.
func FormatJSON(papers []types.Paper, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(papers)
}

func metaCell(s string, state types.MetaState) string {
	if state == types.MetaSimulated {
		return s + "~"
	}
	return s
}

func formatAnalysis(a *types.Analysis) string {
	if a == nil {
		return ""
	}
	rating := func(f *types.Facet) string {
		if f == nil {
			return "-"
		}
		return fmt.Sprintf("%d", f.Rating)
	}
	return fmt.Sprintf("R%s I%s F%s", rating(a.Relevance), rating(a.TechnicalInnovation), rating(a.Feasibility))
}

func countRecommended(papers []types.Paper) int {
	n := 0
	for _, p := range papers {
		if p.IsRecommended {
			n++
		}
	}
	return n
}

func formatAuthors(authors []string, joined string) string {
	switch len(authors) {
	case 0:
		return truncate(joined, 20)
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
