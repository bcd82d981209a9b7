// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"

	"go.uber.org/zap"

	"github.com/pdiddy/paperwork/internal/backend"
	"github.com/pdiddy/paperwork/pkg/types"
)

// insightsMaxAbility caps the ability level reported to the insights
// generator.
const insightsMaxAbility = 8

// Generator produces insights for a profile. *backend.Client satisfies it.
type Generator interface {
	GenerateKnowledgeInsights(ctx context.Context, profile backend.UserProfile) (types.Insights, error)
}

// BeginnerInsights is returned without a backend call for an empty profile.
func BeginnerInsights() types.Insights {
	return types.Insights{
		Strengths:  []string{},
		Weaknesses: []string{},
		LearningPath: types.LearningPath{
			Title: "Beginner's Path to AI & ML",
			Steps: []string{
				"Start with basic Python programming",
				"Learn fundamental statistics concepts",
				"Explore introductory machine learning courses",
			},
		},
	}
}

func personalizedPath() types.LearningPath {
	return types.LearningPath{
		Title: "Personalized Learning Path",
		Steps: []string{"Continue interacting with papers to receive a customized learning path."},
	}
}

// PlaceholderInsights is shown when the generator fails.
func PlaceholderInsights() types.Insights {
	return types.Insights{
		Strengths:    []string{"Continue interacting with papers to reveal your strengths."},
		Weaknesses:   []string{"More interactions needed to identify areas for improvement."},
		LearningPath: personalizedPath(),
		Placeholder:  true,
	}
}

// Snapshot is a read-only view of the knowledge profile.
type Snapshot struct {
	AbilityLevel   int
	Understanding  types.UnderstandingRecord
	KnowledgeAreas types.KnowledgeAreas
}

// Empty reports whether the user has neither answered a question nor
// produced a knowledge area.
func (s Snapshot) Empty() bool {
	return len(s.Understanding) == 0 && len(s.KnowledgeAreas) == 0
}

// ToSummaries flattens domain scores into the insights payload shape.
func ToSummaries(scores []DomainScore) []backend.DomainSummary {
	out := make([]backend.DomainSummary, 0, len(scores))
	for _, d := range scores {
		s := backend.DomainSummary{
			Domain:         d.Domain,
			Score:          d.Score,
			Concepts:       make([]string, 0, len(d.Concepts)),
			KnowledgeAreas: make([]string, 0, len(d.KnowledgeAreas)),
		}
		for _, c := range d.Concepts {
			s.Concepts = append(s.Concepts, c.Concept)
		}
		for _, a := range d.KnowledgeAreas {
			s.KnowledgeAreas = append(s.KnowledgeAreas, a.Topic)
		}
		out = append(out, s)
	}
	return out
}

// Request builds the insights payload for s.
func Request(s Snapshot) backend.UserProfile {
	understanding := s.Understanding
	if understanding == nil {
		understanding = types.UnderstandingRecord{}
	}
	areas := s.KnowledgeAreas
	if areas == nil {
		areas = types.KnowledgeAreas{}
	}
	return backend.UserProfile{
		AbilityLevel:   min(s.AbilityLevel, insightsMaxAbility),
		Understanding:  understanding,
		KnowledgeAreas: areas,
		DomainAnalysis: ToSummaries(Aggregate(understanding, areas)),
	}
}

// Insights asks gen for insights about s. It never fails: an empty profile
// yields BeginnerInsights and a generator error yields PlaceholderInsights.
func Insights(ctx context.Context, gen Generator, s Snapshot, logger *zap.Logger) types.Insights {
	if logger == nil {
		logger = zap.NewNop()
	}
	if s.Empty() {
		return BeginnerInsights()
	}
	if gen == nil {
		return PlaceholderInsights()
	}
	got, err := gen.GenerateKnowledgeInsights(ctx, Request(s))
	if err != nil {
		logger.Warn("knowledge insights unavailable", zap.Error(err))
		return PlaceholderInsights()
	}
	if got.LearningPath.Title == "" && len(got.LearningPath.Steps) == 0 {
		got.LearningPath = personalizedPath()
	}
	if got.Strengths == nil {
		got.Strengths = []string{}
	}
	if got.Weaknesses == nil {
		got.Weaknesses = []string{}
	}
	got.Placeholder = false
	return got
}
