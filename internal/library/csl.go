// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperwork/internal/backend"
	"github.com/pdiddy/paperwork/pkg/types"
)

// CSLItem is a bibliographic entry in CSL (Citation Style Language)
// format. Field names follow the CSL-YAML schema so that output is
// consumable by Pandoc and reference managers.
type CSLItem struct {
	ID       string    `yaml:"id"`
	Type     string    `yaml:"type"`
	Title    string    `yaml:"title"`
	Author   []CSLName `yaml:"author,omitempty"`
	Abstract string    `yaml:"abstract,omitempty"`
	Issued   *CSLDate  `yaml:"issued,omitempty"`
	URL      string    `yaml:"URL,omitempty"`
	DOI      string    `yaml:"DOI,omitempty"`
}

// CSLName is a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate is a date in CSL date-parts form.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// ExportCSL writes the archive to w as a CSL-YAML list.
func (l *Library) ExportCSL(w io.Writer) error {
	papers := l.Papers()
	items := make([]CSLItem, len(papers))
	for i, p := range papers {
		items[i] = toCSLItem(p)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("marshaling CSL: %w", err)
	}
	return nil
}

// toCSLItem converts a paper. Only known publication dates are exported;
// simulated ones are left out.
func toCSLItem(p types.Paper) CSLItem {
	item := CSLItem{
		ID:       cslID(p),
		Type:     "article",
		Title:    p.Title,
		Abstract: p.Summary,
	}
	if p.HasURL() {
		item.URL = p.URL
		if i := strings.Index(p.URL, "doi.org/"); i >= 0 {
			item.DOI = p.URL[i+len("doi.org/"):]
		}
	}

	authors := p.Authors
	if len(authors) == 0 && p.Author != "" {
		authors = strings.Split(p.Author, ",")
	}
	for _, a := range authors {
		if n := parseAuthorName(a); n != (CSLName{}) {
			item.Author = append(item.Author, n)
		}
	}

	if p.Date.State == types.MetaKnown {
		d := p.Date.Time
		item.Issued = &CSLDate{DateParts: [][]int{{d.Year(), int(d.Month()), d.Day()}}}
	}
	return item
}

// cslID is the arXiv identifier for arXiv papers, the URL for other
// papers and a slug of the title for papers without one.
func cslID(p types.Paper) string {
	if p.HasURL() {
		return backend.PaperID(p.URL)
	}
	return strings.ToLower(strings.Join(strings.Fields(p.Title), "-"))
}

// parseAuthorName splits a full name into CSL family/given parts on the
// last space. Single-token names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
