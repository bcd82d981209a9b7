// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperwork/pkg/types"
)

// ExportEntry is one archived paper as written by the exporters.
type ExportEntry struct {
	Title     string          `json:"title" yaml:"title"`
	Authors   string          `json:"authors,omitempty" yaml:"authors,omitempty"`
	URL       string          `json:"url" yaml:"url"`
	Date      string          `json:"date" yaml:"date"`
	Citations string          `json:"citations" yaml:"citations"`
	Simulated bool            `json:"simulated,omitempty" yaml:"simulated,omitempty"`
	Summary   string          `json:"summary,omitempty" yaml:"summary,omitempty"`
	Analysis  *types.Analysis `json:"analysis,omitempty" yaml:"analysis,omitempty"`
}

func exportEntries(papers []types.Paper) []ExportEntry {
	entries := make([]ExportEntry, len(papers))
	for i, p := range papers {
		entries[i] = ExportEntry{
			Title:     p.Title,
			Authors:   p.Author,
			URL:       p.URL,
			Date:      p.Date.String(),
			Citations: p.Citation.String(),
			Simulated: p.Date.State == types.MetaSimulated || p.Citation.State == types.MetaSimulated,
			Summary:   p.Summary,
			Analysis:  p.Analysis,
		}
	}
	return entries
}

// ExportYAML writes the archive to w as YAML.
func (l *Library) ExportYAML(w io.Writer) error {
	data, err := yaml.Marshal(exportEntries(l.Papers()))
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportJSON writes the archive to w as indented JSON.
func (l *Library) ExportJSON(w io.Writer) error {
	data, err := json.MarshalIndent(exportEntries(l.Papers()), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
