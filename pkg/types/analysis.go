// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Facet is one scored dimension of an Analysis.
type Facet struct {
	// Rating is a score between 0 and 10.
	Rating int `json:"rating" yaml:"rating"`

	// Explanation is the backend's justification for the rating.
	Explanation string `json:"explanation" yaml:"explanation"`
}

// Analysis is the backend's scoring of a paper against a query. Any facet
// may be nil.
type Analysis struct {
	Relevance           *Facet `json:"relevance,omitempty" yaml:"relevance,omitempty"`
	TechnicalInnovation *Facet `json:"technical_innovation,omitempty" yaml:"technical_innovation,omitempty"`
	Feasibility         *Facet `json:"feasibility,omitempty" yaml:"feasibility,omitempty"`
}

// Empty reports whether no facet is set.
func (a Analysis) Empty() bool {
	return a.Relevance == nil && a.TechnicalInnovation == nil && a.Feasibility == nil
}

// Clone returns a deep copy of a.
func (a Analysis) Clone() Analysis {
	return Analysis{
		Relevance:           cloneFacet(a.Relevance),
		TechnicalInnovation: cloneFacet(a.TechnicalInnovation),
		Feasibility:         cloneFacet(a.Feasibility),
	}
}

func cloneFacet(f *Facet) *Facet {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}
