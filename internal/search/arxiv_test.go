// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperwork/internal/backend"
	"github.com/pdiddy/paperwork/pkg/types"
)

const arxivFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <title>Attention Is All
      You Need</title>
    <published>2017-06-12T17:57:34Z</published>
    <author><name>Ashish Vaswani</name></author>
    <author><name> Noam Shazeer </name></author>
  </entry>
</feed>`

// withArxivServer points the arXiv client at a test server for the
// duration of the test and counts requests.
func withArxivServer(t *testing.T, handler http.HandlerFunc) *atomic.Int32 {
	t.Helper()
	var n atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	orig := arxivAPIBase
	arxivAPIBase = srv.URL
	t.Cleanup(func() { arxivAPIBase = orig })
	return &n
}

func TestArxivMetadata(t *testing.T) {
	withArxivServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1706.03762", r.URL.Query().Get("id_list"))
		assert.Equal(t, "paperwork-test", r.Header.Get("User-Agent"))
		fmt.Fprint(w, arxivFeedXML)
	})

	a := &ArxivMetadata{UserAgent: "paperwork-test"}
	md, err := a.PaperMetadata(context.Background(), "1706.03762")
	require.NoError(t, err)
	assert.Equal(t, "Attention Is All You Need", md.Title)
	assert.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer"}, md.Authors)
	assert.Equal(t, types.KnownDate(day(2017, time.June, 12)), md.PublicationDate)
}

func TestArxivMetadataErrors(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	n := withArxivServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
		fmt.Fprint(w, `<feed xmlns="http://www.w3.org/2005/Atom"></feed>`)
	})
	a := &ArxivMetadata{}
	ctx := context.Background()

	_, err := a.PaperMetadata(ctx, "https://example.com/paper")
	require.Error(t, err)
	assert.Equal(t, int32(0), n.Load(), "non-arXiv ids are not looked up")

	_, err = a.PaperMetadata(ctx, "2401.00001")
	assert.ErrorContains(t, err, "no entry")

	status.Store(http.StatusNotFound)
	_, err = a.PaperMetadata(ctx, "2401.00001")
	assert.ErrorContains(t, err, "HTTP 404")
}

type primaryStub struct {
	md  backend.PaperMetadata
	err error
}

func (p primaryStub) CitationCount(context.Context, string) (int, error) { return 42, nil }

func (p primaryStub) PaperMetadata(context.Context, string) (backend.PaperMetadata, error) {
	return p.md, p.err
}

func TestWithArxivFallback(t *testing.T) {
	n := withArxivServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, arxivFeedXML)
	})
	ctx := context.Background()
	arxiv := &ArxivMetadata{}

	t.Run("primary date wins", func(t *testing.T) {
		n.Store(0)
		want := types.KnownDate(day(2020, time.January, 2))
		e := WithArxivFallback(primaryStub{md: backend.PaperMetadata{PublicationDate: want}}, arxiv)
		md, err := e.PaperMetadata(ctx, "1706.03762")
		require.NoError(t, err)
		assert.Equal(t, want, md.PublicationDate)
		assert.Equal(t, int32(0), n.Load())
	})

	t.Run("primary failure falls back", func(t *testing.T) {
		n.Store(0)
		e := WithArxivFallback(primaryStub{err: errors.New("down")}, arxiv)
		md, err := e.PaperMetadata(ctx, "1706.03762")
		require.NoError(t, err)
		assert.Equal(t, 2017, md.PublicationDate.Time.Year())
		assert.Equal(t, int32(1), n.Load())
	})

	t.Run("non-arXiv ids keep the primary error", func(t *testing.T) {
		e := WithArxivFallback(primaryStub{err: errors.New("down")}, arxiv)
		_, err := e.PaperMetadata(ctx, "https://example.com/p")
		assert.EqualError(t, err, "down")
	})

	t.Run("citations come from primary", func(t *testing.T) {
		e := WithArxivFallback(primaryStub{}, arxiv)
		c, err := e.CitationCount(ctx, "1706.03762")
		require.NoError(t, err)
		assert.Equal(t, 42, c)
	})

	t.Run("processor uses the fallback date", func(t *testing.T) {
		p := newProcessor(WithArxivFallback(primaryStub{}, arxiv))
		resp := backend.SearchResponse{Papers: []backend.RawPaper{{
			Title: "Attention", URL: "https://arxiv.org/abs/1706.03762v7",
		}}}
		papers := p.Process(ctx, resp, "attention")
		require.Len(t, papers, 1)
		assert.Equal(t, types.MetaKnown, papers[0].Date.State)
		assert.Equal(t, types.KnownCitation(42), papers[0].Citation)
	})
}
