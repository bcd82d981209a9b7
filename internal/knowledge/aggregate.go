// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package knowledge classifies a user's understanding answers and topic
// counters into research domains and scores each domain.
package knowledge

import (
	"sort"
	"strings"

	"github.com/pdiddy/paperwork/pkg/types"
)

// Domain labels.
const (
	MachineLearning           = "Machine Learning"
	ComputerVision            = "Computer Vision"
	NaturalLanguageProcessing = "Natural Language Processing"
	DeepLearning              = "Deep Learning"
	ReinforcementLearning     = "Reinforcement Learning"
	Other                     = "Other"
)

// MaxDomainScore caps every domain score so no bar is shown as saturated.
const MaxDomainScore = 80.0

// maxItemScore is the contribution of a fully understood item.
const maxItemScore = 3.0

// taxonomy is checked in order; the first domain with a matching keyword
// claims the item.
var taxonomy = []struct {
	domain   string
	keywords []string
}{
	{MachineLearning, []string{"algorithm", "model", "feature", "classification", "regression", "clustering", "svm", "random forest"}},
	{ComputerVision, []string{"image", "vision", "cnn", "convolutional", "object detection", "segmentation", "recognition"}},
	{NaturalLanguageProcessing, []string{"nlp", "language", "text", "transformer", "bert", "gpt", "token", "embedding"}},
	{DeepLearning, []string{"neural network", "deep", "backpropagation", "gradient descent", "activation", "layer"}},
	{ReinforcementLearning, []string{"reinforcement", "reward", "policy", "agent", "environment", "q-learning"}},
}

// Domains lists every domain label in taxonomy order, Other last.
func Domains() []string {
	out := make([]string, 0, len(taxonomy)+1)
	for _, t := range taxonomy {
		out = append(out, t.domain)
	}
	return append(out, Other)
}

// Classify returns the first domain whose keywords occur in text,
// case-insensitively, or Other.
func Classify(text string) string {
	lower := strings.ToLower(text)
	for _, t := range taxonomy {
		for _, k := range t.keywords {
			if strings.Contains(lower, k) {
				return t.domain
			}
		}
	}
	return Other
}

// DetectTopics returns the taxonomy keywords that occur in text, in
// taxonomy order without duplicates.
func DetectTopics(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, t := range taxonomy {
		for _, k := range t.keywords {
			if strings.Contains(lower, k) {
				out = append(out, k)
			}
		}
	}
	return out
}

// Concept is an understanding answer assigned to a domain.
type Concept struct {
	Concept string                   `json:"concept" yaml:"concept"`
	Level   types.UnderstandingLevel `json:"level" yaml:"level"`
}

// Area is a knowledge area assigned to a domain.
type Area struct {
	Topic         string `json:"topic" yaml:"topic"`
	Count         int    `json:"count" yaml:"count"`
	Understanding int    `json:"understanding" yaml:"understanding"`
}

// DomainScore is the aggregate for one domain.
type DomainScore struct {
	Domain         string    `json:"domain" yaml:"domain"`
	Score          float64   `json:"score" yaml:"score"`
	Concepts       []Concept `json:"concepts,omitempty" yaml:"concepts,omitempty"`
	KnowledgeAreas []Area    `json:"knowledgeAreas,omitempty" yaml:"knowledge_areas,omitempty"`
}

// Items returns the number of classified items.
func (d DomainScore) Items() int {
	return len(d.Concepts) + len(d.KnowledgeAreas)
}

// Aggregate groups understanding answers and knowledge areas by domain.
// Answers score 0..3 by level and areas score understanding/10*3. Each
// domain's score is its raw total as a percentage of count*3, capped at
// MaxDomainScore. Domains without items are omitted and the rest are
// sorted by score, highest first, ties in taxonomy order. Inputs are
// visited in sorted key order so the output is deterministic.
func Aggregate(understanding types.UnderstandingRecord, areas types.KnowledgeAreas) []DomainScore {
	order := Domains()
	byDomain := make(map[string]*DomainScore, len(order))
	raw := make(map[string]float64, len(order))
	for _, d := range order {
		byDomain[d] = &DomainScore{Domain: d}
	}

	for _, concept := range sortedKeys(understanding) {
		level := understanding[concept]
		d := byDomain[Classify(concept)]
		d.Concepts = append(d.Concepts, Concept{Concept: concept, Level: level})
		raw[d.Domain] += float64(level.Score())
	}

	for _, topic := range sortedKeys(areas) {
		a := areas[topic]
		d := byDomain[Classify(topic)]
		d.KnowledgeAreas = append(d.KnowledgeAreas, Area{Topic: topic, Count: a.Count, Understanding: a.Understanding})
		u := min(max(a.Understanding, 0), types.MaxAbilityLevel)
		raw[d.Domain] += float64(u) / 10 * maxItemScore
	}

	var out []DomainScore
	for _, name := range order {
		d := byDomain[name]
		n := d.Items()
		if n == 0 {
			continue
		}
		d.Score = min(raw[name]/(float64(n)*maxItemScore)*100, MaxDomainScore)
		out = append(out, *d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// topAreasLimit is the number of areas shown in each ranking.
const topAreasLimit = 5

// TopAreasByCount returns the five most frequently touched areas.
func TopAreasByCount(areas types.KnowledgeAreas) []Area {
	return topAreas(areas, func(a, b Area) bool { return a.Count > b.Count })
}

// TopAreasByUnderstanding returns the five best understood areas.
func TopAreasByUnderstanding(areas types.KnowledgeAreas) []Area {
	return topAreas(areas, func(a, b Area) bool { return a.Understanding > b.Understanding })
}

func topAreas(areas types.KnowledgeAreas, better func(a, b Area) bool) []Area {
	out := make([]Area, 0, len(areas))
	for _, topic := range sortedKeys(areas) {
		a := areas[topic]
		out = append(out, Area{Topic: topic, Count: a.Count, Understanding: a.Understanding})
	}
	sort.SliceStable(out, func(i, j int) bool { return better(out[i], out[j]) })
	if len(out) > topAreasLimit {
		out = out[:topAreasLimit]
	}
	return out
}
