// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paperwork/internal/backend"
	"github.com/pdiddy/paperwork/internal/httputil"
	"github.com/pdiddy/paperwork/pkg/types"
)

// arxivAPIBase is the arXiv query endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivMetadata reads publication metadata for arXiv papers straight from
// the arXiv API.
type ArxivMetadata struct {
	Client    *http.Client
	UserAgent string
	Logger    *zap.Logger
}

// PaperMetadata returns the title, authors and first-version date of the
// arXiv paper id.
func (a *ArxivMetadata) PaperMetadata(ctx context.Context, id string) (backend.PaperMetadata, error) {
	if !backend.IsArxivID(id) {
		return backend.PaperMetadata{}, fmt.Errorf("%q is not an arXiv identifier", id)
	}

	u := fmt.Sprintf("%s?id_list=%s&max_results=1", arxivAPIBase, url.QueryEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return backend.PaperMetadata{}, fmt.Errorf("creating request: %w", err)
	}
	if a.UserAgent != "" {
		req.Header.Set("User-Agent", a.UserAgent)
	}

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, httputil.Policy{Transient: true, Logger: a.Logger})
	if err != nil {
		return backend.PaperMetadata{}, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return backend.PaperMetadata{}, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return backend.PaperMetadata{}, fmt.Errorf("parsing arXiv response: %w", err)
	}
	if len(feed.Entries) == 0 {
		return backend.PaperMetadata{}, fmt.Errorf("arXiv has no entry for %s", id)
	}

	entry := feed.Entries[0]
	md := backend.PaperMetadata{
		Title: strings.Join(strings.Fields(entry.Title), " "),
		Venue: "arXiv",
	}
	for _, au := range entry.Authors {
		md.Authors = append(md.Authors, strings.TrimSpace(au.Name))
	}
	if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
		md.PublicationDate = types.KnownDate(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
	}
	return md, nil
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// arxivFallback asks the primary enricher first and consults arXiv for
// the publication date of arXiv papers the primary could not date.
type arxivFallback struct {
	Enricher
	arxiv *ArxivMetadata
}

// WithArxivFallback wraps primary so that missing publication dates of
// arXiv papers are looked up on arXiv before any simulated value is used.
// Citation counts still come from primary only.
func WithArxivFallback(primary Enricher, arxiv *ArxivMetadata) Enricher {
	return arxivFallback{Enricher: primary, arxiv: arxiv}
}

func (f arxivFallback) PaperMetadata(ctx context.Context, id string) (backend.PaperMetadata, error) {
	md, err := f.Enricher.PaperMetadata(ctx, id)
	if err == nil && md.PublicationDate.Valid() {
		return md, nil
	}
	if !backend.IsArxivID(id) {
		return md, err
	}
	amd, aerr := f.arxiv.PaperMetadata(ctx, id)
	if aerr != nil {
		return md, errors.Join(err, aerr)
	}
	return amd, nil
}
