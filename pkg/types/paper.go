// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared records exchanged between the search,
// analysis, library, knowledge-profile and conversation packages.
package types

import "encoding/json"

// NotAvailable is the sentinel used for a missing URL, date or citation count.
const NotAvailable = "N/A"

// Loading is the sentinel shown while a metadata value is being fetched.
const Loading = "Loading..."

// RecommendationType names the backend category that flagged a paper.
type RecommendationType string

const (
	MostRelevant RecommendationType = "most_relevant"
	MostCited    RecommendationType = "most_cited"
	MostRecent   RecommendationType = "most_recent"
)

// Rank orders recommendation types when no query priority applies:
// most_relevant first, then most_cited, then most_recent. Unknown types
// sort last.
func (t RecommendationType) Rank() int {
	switch t {
	case MostRelevant:
		return 0
	case MostCited:
		return 1
	case MostRecent:
		return 2
	default:
		return 3
	}
}

// Recommendation explains why the backend pinned a paper.
type Recommendation struct {
	Type   RecommendationType `json:"type" yaml:"type"`
	Reason string             `json:"reason" yaml:"reason"`
}

// Paper is one search result or library entry. It is the only paper shape
// used after ingestion; raw backend rows are converted by search.Normalize.
type Paper struct {
	// ID is the position of the paper in the list it was rendered in.
	// It is unique only within that list.
	ID int `json:"id" yaml:"id"`

	// Title is the paper title as returned by the backend.
	Title string `json:"title" yaml:"title"`

	// Name mirrors Title.
	Name string `json:"name" yaml:"name"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Author is Authors joined with ", ".
	Author string `json:"author" yaml:"author"`

	// Summary is the abstract or backend summary.
	Summary string `json:"summary" yaml:"summary"`

	// URL is the durable identity of the paper across batches, or
	// NotAvailable when the backend had none.
	URL string `json:"url" yaml:"url"`

	// Date is the publication date.
	Date PubDate `json:"date" yaml:"date"`

	// Citation is the citation count.
	Citation Citation `json:"citation" yaml:"citation"`

	// Selected is a transient selection flag.
	Selected bool `json:"selected,omitempty" yaml:"selected,omitempty"`

	// Analysis holds backend scoring, nil until analysed.
	Analysis *Analysis `json:"analysis,omitempty" yaml:"analysis,omitempty"`

	// IsRecommended marks a paper pinned by the backend's recommendations.
	IsRecommended bool `json:"isRecommended,omitempty" yaml:"is_recommended,omitempty"`

	// Recommendation is set together with IsRecommended.
	Recommendation *Recommendation `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`

	// RelatedTo is an optional back-reference to the paper this one was
	// found through.
	RelatedTo string `json:"relatedTo,omitempty" yaml:"related_to,omitempty"`
}

// HasURL reports whether the paper carries a real URL.
func (p Paper) HasURL() bool {
	return p.URL != "" && p.URL != NotAvailable
}

// Clone returns a deep copy of p.
func (p Paper) Clone() Paper {
	c := p
	if p.Authors != nil {
		c.Authors = append([]string(nil), p.Authors...)
	}
	if p.Analysis != nil {
		a := p.Analysis.Clone()
		c.Analysis = &a
	}
	if p.Recommendation != nil {
		r := *p.Recommendation
		c.Recommendation = &r
	}
	return c
}

// ClonePapers deep-copies a paper list. A nil list stays nil.
func ClonePapers(papers []Paper) []Paper {
	if papers == nil {
		return nil
	}
	out := make([]Paper, len(papers))
	for i, p := range papers {
		out[i] = p.Clone()
	}
	return out
}

// Renumber sets each paper's ID to its position in the list.
func Renumber(papers []Paper) {
	for i := range papers {
		papers[i].ID = i
	}
}

// simulatedFields names the metadata fields holding placeholder values.
func (p Paper) simulatedFields() []string {
	var out []string
	if p.Date.State == MetaSimulated {
		out = append(out, "date")
	}
	if p.Citation.State == MetaSimulated {
		out = append(out, "citation")
	}
	return out
}

// MarshalJSON adds a "simulated" list naming placeholder metadata so
// the flag survives persistence.
func (p Paper) MarshalJSON() ([]byte, error) {
	type alias Paper
	return json.Marshal(struct {
		alias
		Simulated []string `json:"simulated,omitempty"`
	}{alias(p), p.simulatedFields()})
}

// UnmarshalJSON restores the simulated state written by MarshalJSON.
func (p *Paper) UnmarshalJSON(data []byte) error {
	type alias Paper
	aux := struct {
		*alias
		Simulated []string `json:"simulated"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	for _, field := range aux.Simulated {
		switch field {
		case "date":
			if p.Date.Valid() {
				p.Date.State = MetaSimulated
			}
		case "citation":
			if p.Citation.Valid() {
				p.Citation.State = MetaSimulated
			}
		}
	}
	return nil
}
