// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// LearningPath is an ordered list of suggested study steps.
type LearningPath struct {
	Title string   `json:"title" yaml:"title"`
	Steps []string `json:"steps" yaml:"steps"`
}

// Insights is advisory text about a user's knowledge profile.
type Insights struct {
	Strengths    []string     `json:"strengths" yaml:"strengths"`
	Weaknesses   []string     `json:"weaknesses" yaml:"weaknesses"`
	LearningPath LearningPath `json:"learningPath" yaml:"learning_path"`

	// Placeholder is true when the text is fixed fallback copy rather
	// than backend output.
	Placeholder bool `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
}

// Comparison is the backend's side-by-side assessment of several papers.
type Comparison struct {
	OverallComparison   string            `json:"overall_comparison" yaml:"overall_comparison"`
	StrengthsWeaknesses []PaperAssessment `json:"strengths_weaknesses" yaml:"strengths_weaknesses"`
	Synthesis           string            `json:"synthesis" yaml:"synthesis"`
}

// PaperAssessment lists strengths and weaknesses of one compared paper.
type PaperAssessment struct {
	PaperTitle string   `json:"paper_title" yaml:"paper_title"`
	Strengths  []string `json:"strengths" yaml:"strengths"`
	Weaknesses []string `json:"weaknesses" yaml:"weaknesses"`
}
