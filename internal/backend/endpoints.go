// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/paperwork/pkg/types"
)

// Endpoint names.
const (
	EndpointSearch              = "search"
	EndpointSimilar             = "similar"
	EndpointChat                = "chat"
	EndpointAnalyzeBatch        = "analyze-papers-batch"
	EndpointAnalyzePaper        = "analyze-paper"
	EndpointComparePapers       = "compare-papers"
	EndpointExtractPDFText      = "extract-pdf-text"
	EndpointGenerateQuestions   = "generate-questions"
	EndpointExpandKeywords      = "expand-keywords"
	EndpointUpdateUnderstanding = "update-understanding"
	EndpointKnowledgeInsights   = "generate-knowledge-insights"
	EndpointCitationCount       = "get-citation-count"
	EndpointPaperMetadata       = "get-paper-metadata"
	EndpointGenerateSurvey      = "generate-survey"
)

// RawPaper is one search row as the backend returns it.
type RawPaper struct {
	Title     string         `json:"title"`
	Authors   []string       `json:"authors"`
	Summary   string         `json:"summary"`
	URL       string         `json:"url"`
	Date      types.PubDate  `json:"date"`
	Citation  types.Citation `json:"citation"`
	RelatedTo string         `json:"related_to,omitempty"`
}

// RecommendedEntry names the paper the backend recommends for one category.
type RecommendedEntry struct {
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// Recommendations is the optional recommendation block of a search response.
type Recommendations struct {
	MostCited    *RecommendedEntry `json:"most_cited,omitempty"`
	MostRelevant *RecommendedEntry `json:"most_relevant,omitempty"`
	MostRecent   *RecommendedEntry `json:"most_recent,omitempty"`
}

// SearchRequest is the body of a search call.
type SearchRequest struct {
	Query              string `json:"query"`
	PrioritizeRecency  bool   `json:"prioritize_recency"`
	PrioritizeCitation bool   `json:"prioritize_citation"`
	MaxResults         int    `json:"max_results"`
}

// SearchResponse is the decoded search result.
type SearchResponse struct {
	Papers           []RawPaper       `json:"papers"`
	CitationPriority bool             `json:"citation_priority"`
	Recommendations  *Recommendations `json:"recommendations,omitempty"`
	Error            string           `json:"error,omitempty"`
}

// UnmarshalJSON accepts both the object form and a bare array of rows.
func (r *SearchResponse) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []RawPaper
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return err
		}
		*r = SearchResponse{Papers: rows}
		return nil
	}
	type plain SearchResponse
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = SearchResponse(p)
	return nil
}

// Search runs a backend search.
func (c *Client) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	var resp SearchResponse
	if err := c.post(ctx, EndpointSearch, req, &resp, false); err != nil {
		return SearchResponse{}, err
	}
	if resp.Error != "" {
		return SearchResponse{}, &APIError{Endpoint: EndpointSearch, Message: resp.Error}
	}
	return resp, nil
}

// Similar returns papers close to query in the backend's vector index.
func (c *Client) Similar(ctx context.Context, query string) ([]RawPaper, error) {
	var resp SearchResponse
	if err := c.post(ctx, EndpointSimilar, map[string]string{"query": query}, &resp, false); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &APIError{Endpoint: EndpointSimilar, Message: resp.Error}
	}
	return resp.Papers, nil
}

// ChatRequest is the body of a chat call. Optional context is omitted
// from the payload when empty.
type ChatRequest struct {
	Query             string                    `json:"query"`
	SelectedPapers    []types.Paper             `json:"selected_papers,omitempty"`
	PDFTextContent    string                    `json:"pdf_text_content,omitempty"`
	UserUnderstanding types.UnderstandingRecord `json:"user_understanding,omitempty"`
}

type chatResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Chat sends a chat message and returns the AI's reply.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	var resp chatResponse
	if err := c.post(ctx, EndpointChat, req, &resp, false); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", &APIError{Endpoint: EndpointChat, Message: resp.Error}
	}
	return resp.Response, nil
}

// BatchAnalysisRequest is the body of an analyze-papers-batch call. Query
// is always encoded, as null when absent.
type BatchAnalysisRequest struct {
	Papers []types.Paper `json:"papers"`
	Query  *string       `json:"query"`
}

// AnalyzedPaper is one item of a batch analysis response.
type AnalyzedPaper struct {
	Title    string          `json:"title"`
	URL      string          `json:"url"`
	Analysis *types.Analysis `json:"analysis"`
}

// BatchAnalysisResponse is the decoded analyze-papers-batch result.
type BatchAnalysisResponse struct {
	Papers []AnalyzedPaper `json:"papers"`
	Error  string          `json:"error,omitempty"`
}

// UnmarshalJSON accepts the {papers: [...]} form as well as the older
// url-to-analysis object, optionally wrapped as {errors, results}.
func (r *BatchAnalysisResponse) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	_, hasPapers := fields["papers"]
	_, hasError := fields["error"]
	if hasPapers || hasError {
		type plain BatchAnalysisResponse
		var p plain
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*r = BatchAnalysisResponse(p)
		return nil
	}

	results := fields
	out := BatchAnalysisResponse{}
	if raw, ok := fields["results"]; ok {
		results = map[string]json.RawMessage{}
		if err := json.Unmarshal(raw, &results); err != nil {
			return err
		}
		if rawErrs, ok := fields["errors"]; ok {
			failed, err := decodeBatchErrors(rawErrs)
			if err != nil {
				return fmt.Errorf("decoding batch errors: %w", err)
			}
			for _, f := range failed {
				delete(results, f.url)
			}
			out.Error = joinBatchErrors(failed)
		}
	}

	urls := make([]string, 0, len(results))
	for u := range results {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	for _, u := range urls {
		var a types.Analysis
		if err := json.Unmarshal(results[u], &a); err != nil {
			continue
		}
		out.Papers = append(out.Papers, AnalyzedPaper{URL: u, Analysis: &a})
	}
	*r = out
	return nil
}

type batchError struct {
	url     string
	message string
}

// decodeBatchErrors reads the errors member of a legacy batch response:
// either an object mapping URL to the failed result ({"error": "..."}), or
// a plain list of messages.
func decodeBatchErrors(raw json.RawMessage) ([]batchError, error) {
	var byURL map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byURL); err == nil {
		urls := make([]string, 0, len(byURL))
		for u := range byURL {
			urls = append(urls, u)
		}
		sort.Strings(urls)
		failed := make([]batchError, len(urls))
		for i, u := range urls {
			var result struct {
				Error string `json:"error"`
			}
			// A result that is not an object still names the failed URL.
			_ = json.Unmarshal(byURL[u], &result)
			failed[i] = batchError{url: u, message: result.Error}
		}
		return failed, nil
	}
	var messages []string
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, err
	}
	failed := make([]batchError, len(messages))
	for i, m := range messages {
		failed[i] = batchError{message: m}
	}
	return failed, nil
}

func joinBatchErrors(failed []batchError) string {
	parts := make([]string, 0, len(failed))
	for _, f := range failed {
		switch {
		case f.url == "":
			parts = append(parts, f.message)
		case f.message == "":
			parts = append(parts, f.url)
		default:
			parts = append(parts, f.url+": "+f.message)
		}
	}
	return strings.Join(parts, "; ")
}

// AnalyzePapersBatch analyses several papers against an optional query.
// A body-level error is returned as an *APIError.
func (c *Client) AnalyzePapersBatch(ctx context.Context, papers []types.Paper, query *string) (BatchAnalysisResponse, error) {
	var resp BatchAnalysisResponse
	req := BatchAnalysisRequest{Papers: papers, Query: query}
	if err := c.post(ctx, EndpointAnalyzeBatch, req, &resp, false); err != nil {
		return BatchAnalysisResponse{}, err
	}
	if resp.Error != "" {
		return resp, &APIError{Endpoint: EndpointAnalyzeBatch, Message: resp.Error}
	}
	return resp, nil
}

type analyzePaperRequest struct {
	Article types.Paper `json:"article"`
	Query   *string     `json:"query,omitempty"`
}

// AnalyzePaper analyses a single paper.
func (c *Client) AnalyzePaper(ctx context.Context, paper types.Paper, query *string) (types.Analysis, error) {
	var resp struct {
		types.Analysis
		Error string `json:"error,omitempty"`
	}
	if err := c.post(ctx, EndpointAnalyzePaper, analyzePaperRequest{Article: paper, Query: query}, &resp, false); err != nil {
		return types.Analysis{}, err
	}
	if resp.Error != "" {
		return types.Analysis{}, &APIError{Endpoint: EndpointAnalyzePaper, Message: resp.Error}
	}
	return resp.Analysis, nil
}

type comparePapersRequest struct {
	Articles []types.Paper `json:"articles"`
	Query    *string       `json:"query,omitempty"`
}

// ComparePapers asks for a comparative analysis of two or more papers.
func (c *Client) ComparePapers(ctx context.Context, papers []types.Paper, query *string) (types.Comparison, error) {
	var resp struct {
		types.Comparison
		Error string `json:"error,omitempty"`
	}
	if err := c.post(ctx, EndpointComparePapers, comparePapersRequest{Articles: papers, Query: query}, &resp, false); err != nil {
		return types.Comparison{}, err
	}
	if resp.Error != "" {
		return types.Comparison{}, &APIError{Endpoint: EndpointComparePapers, Message: resp.Error}
	}
	return resp.Comparison, nil
}

// ExtractPDFText returns the text of the PDF behind paperURL. arXiv
// abstract links are rewritten to their PDF form first.
func (c *Client) ExtractPDFText(ctx context.Context, paperURL string) (string, error) {
	var resp struct {
		TextContent string `json:"text_content"`
		Error       string `json:"error,omitempty"`
	}
	if err := c.post(ctx, EndpointExtractPDFText, map[string]string{"pdf_url": PDFURL(paperURL)}, &resp, false); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", &APIError{Endpoint: EndpointExtractPDFText, Message: resp.Error}
	}
	return resp.TextContent, nil
}

// questionList decodes either {questions: [...]} or a bare array, where
// each item is a string or {question: string}.
type questionList []string

func (q *questionList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	var items []json.RawMessage
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Questions []json.RawMessage `json:"questions"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return err
		}
		items = wrapped.Questions
	} else if err := json.Unmarshal(trimmed, &items); err != nil {
		return fmt.Errorf("unexpected questions shape: %w", err)
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
			continue
		}
		var obj struct {
			Question string `json:"question"`
		}
		if err := json.Unmarshal(item, &obj); err == nil {
			if s := strings.TrimSpace(obj.Question); s != "" {
				out = append(out, s)
			}
		}
	}
	*q = out
	return nil
}

// GenerateQuestions asks for clarifying understanding questions.
func (c *Client) GenerateQuestions(ctx context.Context, query string) ([]string, error) {
	var resp questionList
	if err := c.post(ctx, EndpointGenerateQuestions, map[string]string{"query": query}, &resp, false); err != nil {
		return nil, err
	}
	return []string(resp), nil
}

// ExpandKeywords returns related search keywords for query.
func (c *Client) ExpandKeywords(ctx context.Context, query string) ([]string, error) {
	var resp struct {
		Keywords []string `json:"keywords"`
	}
	if err := c.post(ctx, EndpointExpandKeywords, map[string]string{"query": query}, &resp, false); err != nil {
		return nil, err
	}
	return resp.Keywords, nil
}

// UpdateUnderstanding pushes the user's understanding record.
func (c *Client) UpdateUnderstanding(ctx context.Context, record types.UnderstandingRecord) error {
	body := map[string]types.UnderstandingRecord{"understanding": record}
	return c.post(ctx, EndpointUpdateUnderstanding, body, nil, false)
}

// DomainSummary is one aggregated domain as sent to the insights endpoint.
type DomainSummary struct {
	Domain         string   `json:"domain"`
	Score          float64  `json:"score"`
	Concepts       []string `json:"concepts"`
	KnowledgeAreas []string `json:"knowledgeAreas"`
}

// UserProfile is the payload of generate-knowledge-insights.
type UserProfile struct {
	AbilityLevel   int                       `json:"abilityLevel"`
	Understanding  types.UnderstandingRecord `json:"understanding"`
	KnowledgeAreas types.KnowledgeAreas      `json:"knowledgeAreas"`
	DomainAnalysis []DomainSummary           `json:"domainAnalysis"`
}

// GenerateKnowledgeInsights asks for strengths, weaknesses and a learning
// path for profile.
func (c *Client) GenerateKnowledgeInsights(ctx context.Context, profile UserProfile) (types.Insights, error) {
	var resp struct {
		types.Insights
		Error string `json:"error,omitempty"`
	}
	body := map[string]UserProfile{"userProfile": profile}
	if err := c.post(ctx, EndpointKnowledgeInsights, body, &resp, false); err != nil {
		return types.Insights{}, err
	}
	if resp.Error != "" {
		return types.Insights{}, &APIError{Endpoint: EndpointKnowledgeInsights, Message: resp.Error}
	}
	return resp.Insights, nil
}

// CitationCount returns the citation count for a paper ID. Transient
// failures are retried.
func (c *Client) CitationCount(ctx context.Context, paperID string) (int, error) {
	var resp struct {
		CitationCount types.Citation `json:"citation_count"`
		Error         string         `json:"error,omitempty"`
	}
	if err := c.post(ctx, EndpointCitationCount, map[string]string{"paper_id": paperID}, &resp, true); err != nil {
		return 0, err
	}
	if resp.Error != "" {
		return 0, &APIError{Endpoint: EndpointCitationCount, Message: resp.Error}
	}
	return resp.CitationCount.Value(), nil
}

// PaperMetadata is the decoded get-paper-metadata result.
type PaperMetadata struct {
	PublicationDate types.PubDate `json:"publication_date"`
	Title           string        `json:"title,omitempty"`
	Authors         []string      `json:"authors,omitempty"`
	Venue           string        `json:"venue,omitempty"`
}

// PaperMetadata returns publication metadata for a paper ID. Transient
// failures are retried.
func (c *Client) PaperMetadata(ctx context.Context, paperID string) (PaperMetadata, error) {
	var resp struct {
		PaperMetadata
		Error string `json:"error,omitempty"`
	}
	if err := c.post(ctx, EndpointPaperMetadata, map[string]string{"paper_id": paperID}, &resp, true); err != nil {
		return PaperMetadata{}, err
	}
	if resp.Error != "" {
		return PaperMetadata{}, &APIError{Endpoint: EndpointPaperMetadata, Message: resp.Error}
	}
	return resp.PaperMetadata, nil
}

// GenerateSurvey asks for a literature survey over the given papers.
func (c *Client) GenerateSurvey(ctx context.Context, papers []types.Paper) (string, error) {
	var resp struct {
		Survey string `json:"survey"`
		Error  string `json:"error,omitempty"`
	}
	body := map[string][]types.Paper{"selected_articles": papers}
	if err := c.post(ctx, EndpointGenerateSurvey, body, &resp, false); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", &APIError{Endpoint: EndpointGenerateSurvey, Message: resp.Error}
	}
	return resp.Survey, nil
}
