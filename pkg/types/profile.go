// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// UnderstandingLevel is a self-reported comprehension tier for a concept.
type UnderstandingLevel string

const (
	NoIdea             UnderstandingLevel = "No Idea"
	HeardOfIt          UnderstandingLevel = "Heard of It"
	SomewhatUnderstand UnderstandingLevel = "Somewhat Understand"
	FullyUnderstand    UnderstandingLevel = "Fully Understand"
)

// UnderstandingLevels lists the levels from lowest to highest.
var UnderstandingLevels = []UnderstandingLevel{NoIdea, HeardOfIt, SomewhatUnderstand, FullyUnderstand}

// Score maps the level onto 0..3. Unknown levels score 0.
func (l UnderstandingLevel) Score() int {
	switch l {
	case HeardOfIt:
		return 1
	case SomewhatUnderstand:
		return 2
	case FullyUnderstand:
		return 3
	default:
		return 0
	}
}

// Valid reports whether l is one of the four known levels.
func (l UnderstandingLevel) Valid() bool {
	for _, v := range UnderstandingLevels {
		if l == v {
			return true
		}
	}
	return false
}

// ParseUnderstandingLevel accepts a level name or its 0..3 index.
func ParseUnderstandingLevel(s string) (UnderstandingLevel, error) {
	for i, v := range UnderstandingLevels {
		if s == string(v) || s == fmt.Sprint(i) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown understanding level %q", s)
}

// UnderstandingRecord maps a question or concept, verbatim, to the level
// the user reported for it.
type UnderstandingRecord map[string]UnderstandingLevel

// Clone returns a copy of r.
func (r UnderstandingRecord) Clone() UnderstandingRecord {
	out := make(UnderstandingRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Ability level bounds.
const (
	MinAbilityLevel     = 1
	MaxAbilityLevel     = 10
	DefaultAbilityLevel = 5
)

// KnowledgeArea tracks how often a topic came up and how well the user
// understood it.
type KnowledgeArea struct {
	// Count is the number of feedback events that touched the topic.
	Count int `json:"count" yaml:"count"`

	// Understanding is a 1..10 score.
	Understanding int `json:"understanding" yaml:"understanding"`
}

// KnowledgeAreas maps a topic label to its counters.
type KnowledgeAreas map[string]KnowledgeArea

// Clone returns a copy of a.
func (a KnowledgeAreas) Clone() KnowledgeAreas {
	out := make(KnowledgeAreas, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
