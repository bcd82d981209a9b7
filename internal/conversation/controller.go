// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package conversation drives one research conversation: clarifying
// questions, the initial search and answer, follow-up messages and the
// intents that edit the session's paper list.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paperwork/internal/analysis"
	"github.com/pdiddy/paperwork/internal/backend"
	"github.com/pdiddy/paperwork/internal/knowledge"
	"github.com/pdiddy/paperwork/internal/library"
	"github.com/pdiddy/paperwork/internal/profile"
	"github.com/pdiddy/paperwork/internal/search"
	"github.com/pdiddy/paperwork/pkg/types"
)

var (
	// ErrEmptyQuery is returned for blank queries and messages.
	ErrEmptyQuery = errors.New("empty query")

	// ErrSuperseded is returned when a newer search started before the
	// operation finished. Its results were discarded.
	ErrSuperseded = errors.New("superseded by a newer search")

	// ErrNotReady is returned when an operation is not valid in the
	// current state.
	ErrNotReady = errors.New("conversation not ready")
)

// State is the conversation phase.
type State int

const (
	Idle State = iota
	AwaitingUnderstanding
	Searching
	AnsweringInitial
	ReadyForFollowUp
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingUnderstanding:
		return "awaiting-understanding"
	case Searching:
		return "searching"
	case AnsweringInitial:
		return "answering"
	case ReadyForFollowUp:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Transcript text.
const (
	SearchingText    = "Searching for relevant papers..."
	NoPapersText     = "No papers found for this query. Try rephrasing or broadening it."
	ChatFallbackText = "I found some relevant papers, but I couldn't generate a response. You can select papers to ask specific questions about them."
	SendFailedText   = "Fetching AI response failed."
	PDFNoteText      = "Using the content from the currently viewed PDF as reference for this query."
)

var surveyKeywords = []string{"survey", "literature", "review"}

// IsSurveyQuery reports whether query asks for a literature survey. Such
// queries skip clarifying questions and do not send the understanding
// record with the initial answer.
func IsSurveyQuery(query string) bool {
	q := strings.ToLower(query)
	for _, k := range surveyKeywords {
		if strings.Contains(q, k) {
			return true
		}
	}
	return false
}

func selectedNote(n int) string {
	noun := "paper"
	if n > 1 {
		noun = "papers"
	}
	return fmt.Sprintf("Including %d selected %s with summaries and analysis in this query.", n, noun)
}

// Backend is the set of backend calls the controller makes.
// *backend.Client satisfies it.
type Backend interface {
	analysis.BatchAnalyzer
	GenerateQuestions(ctx context.Context, query string) ([]string, error)
	UpdateUnderstanding(ctx context.Context, record types.UnderstandingRecord) error
	ExpandKeywords(ctx context.Context, query string) ([]string, error)
	Search(ctx context.Context, req backend.SearchRequest) (backend.SearchResponse, error)
	Chat(ctx context.Context, req backend.ChatRequest) (string, error)
	ExtractPDFText(ctx context.Context, paperURL string) (string, error)
}

// Options configures a Controller.
type Options struct {
	Chat types.ChatConfig

	// MaxResults is sent with every search (default 20).
	MaxResults int

	// Now stamps transcript turns. Nil uses time.Now.
	Now func() time.Time

	Logger *zap.Logger
}

// Controller owns the state of one conversation. All methods are safe for
// concurrent use. The mutex is never held across backend calls; results
// of a search that has been superseded by a newer one are dropped.
type Controller struct {
	backend   Backend
	processor *search.Processor
	merger    *analysis.Merger
	profile   *profile.Profile
	library   *library.Library
	now       func() time.Time
	log       *zap.Logger

	maxResults int

	// gen identifies the current search. Submit advances it.
	gen atomic.Uint64

	// analyses tracks background batch analyses.
	analyses sync.WaitGroup

	mu             sync.Mutex
	state          State
	query          string
	questions      []string
	transcript     []types.DialogTurn
	papers         []types.Paper
	pdfURL         string
	pdfText        string
	expandKeywords bool
	paperReference bool
}

// New returns an idle controller.
func New(b Backend, proc *search.Processor, p *profile.Profile, opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = types.DefaultConfig().Search.MaxResults
	}
	return &Controller{
		backend:        b,
		processor:      proc,
		merger:         analysis.NewMerger(b, log),
		profile:        p,
		library:        library.New(p, log),
		now:            now,
		log:            log,
		maxResults:     maxResults,
		papers:         []types.Paper{},
		expandKeywords: opts.Chat.ExpandKeywords,
		paperReference: opts.Chat.PaperReference,
	}
}

// State returns the current phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Query returns the query of the current search.
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Questions returns the pending clarifying questions.
func (c *Controller) Questions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.questions...)
}

// Transcript returns a copy of the conversation so far.
func (c *Controller) Transcript() []types.DialogTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.DialogTurn(nil), c.transcript...)
}

// Papers returns a copy of the session's paper list.
func (c *Controller) Papers() []types.Paper {
	c.mu.Lock()
	defer c.mu.Unlock()
	return types.ClonePapers(c.papers)
}

// SetExpandKeywords toggles keyword expansion before searching.
func (c *Controller) SetExpandKeywords(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expandKeywords = on
}

// SetPaperReference toggles attaching selected papers to follow-ups.
func (c *Controller) SetPaperReference(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paperReference = on
}

func (c *Controller) turn(sender types.Sender, text string) types.DialogTurn {
	return types.NewTurn(sender, text, c.now())
}

func (c *Controller) current(gen uint64) bool {
	return c.gen.Load() == gen
}

// Submit starts a new search for query, superseding any search in
// flight. Unless query is a survey request, clarifying questions are
// requested first; if there are any Submit returns in
// AwaitingUnderstanding and the search starts on Answer or Skip.
// Otherwise Submit runs the search and the initial answer to completion.
func (c *Controller) Submit(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return ErrEmptyQuery
	}
	gen := c.gen.Add(1)

	c.mu.Lock()
	c.query = query
	c.questions = nil
	c.mu.Unlock()

	if IsSurveyQuery(query) {
		return c.runSearch(ctx, gen)
	}

	questions, err := c.backend.GenerateQuestions(ctx, query)
	if err != nil {
		c.log.Warn("clarifying questions unavailable", zap.Error(err))
		questions = nil
	}
	if !c.current(gen) {
		return ErrSuperseded
	}
	if len(questions) == 0 {
		return c.runSearch(ctx, gen)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(gen) {
		return ErrSuperseded
	}
	c.questions = questions
	c.state = AwaitingUnderstanding
	return nil
}

// Answer records the user's levels for the clarifying questions and runs
// the search. Invalid levels are ignored.
func (c *Controller) Answer(ctx context.Context, answers map[string]types.UnderstandingLevel) error {
	gen, err := c.leaveQuestions()
	if err != nil {
		return err
	}

	valid := make(types.UnderstandingRecord, len(answers))
	for q, level := range answers {
		if strings.TrimSpace(q) != "" && level.Valid() {
			valid[q] = level
		}
	}
	if len(valid) > 0 {
		var record types.UnderstandingRecord
		err := c.profile.Understanding.Update(ctx, func(r types.UnderstandingRecord) types.UnderstandingRecord {
			if r == nil {
				r = types.UnderstandingRecord{}
			}
			for q, level := range valid {
				r[q] = level
			}
			record = r.Clone()
			return r
		})
		if err != nil {
			c.log.Warn("saving understanding failed", zap.Error(err))
		} else if err := c.backend.UpdateUnderstanding(ctx, record); err != nil {
			c.log.Warn("pushing understanding failed", zap.Error(err))
		}
	}
	return c.runSearch(ctx, gen)
}

// Skip runs the search without recording any answers.
func (c *Controller) Skip(ctx context.Context) error {
	gen, err := c.leaveQuestions()
	if err != nil {
		return err
	}
	return c.runSearch(ctx, gen)
}

func (c *Controller) leaveQuestions() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != AwaitingUnderstanding {
		return 0, fmt.Errorf("answering questions in state %s: %w", c.state, ErrNotReady)
	}
	c.questions = nil
	return c.gen.Load(), nil
}

// runSearch performs the search for generation gen and the initial
// answer. The batch analysis of the results runs in the background and is
// merged when it returns; the reply does not wait for it.
func (c *Controller) runSearch(ctx context.Context, gen uint64) error {
	c.mu.Lock()
	if !c.current(gen) {
		c.mu.Unlock()
		return ErrSuperseded
	}
	query := c.query
	expand := c.expandKeywords
	c.state = Searching
	c.papers = []types.Paper{}
	c.transcript = []types.DialogTurn{
		c.turn(types.SenderUser, query),
		c.turn(types.SenderSystem, SearchingText),
	}
	c.mu.Unlock()

	searchQuery := query
	if expand {
		keywords, err := c.backend.ExpandKeywords(ctx, query)
		if err != nil {
			c.log.Warn("keyword expansion failed", zap.Error(err))
		} else if len(keywords) > 0 {
			searchQuery = strings.Join(append([]string{query}, keywords...), " ")
		}
	}

	pr := search.DetectPriority(query)
	resp, err := c.backend.Search(ctx, backend.SearchRequest{
		Query:              searchQuery,
		PrioritizeRecency:  pr.Recency,
		PrioritizeCitation: pr.Citation,
		MaxResults:         c.maxResults,
	})
	if err != nil {
		c.log.Warn("search failed", zap.String("query", searchQuery), zap.Error(err))
		resp = backend.SearchResponse{}
	}
	if !c.current(gen) {
		return ErrSuperseded
	}

	papers := c.processor.Process(ctx, resp, query)
	c.log.Info("search complete", zap.String("query", query), zap.Int("papers", len(papers)))

	c.mu.Lock()
	if !c.current(gen) {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.papers = types.ClonePapers(papers)
	if len(papers) == 0 {
		c.transcript[1] = c.turn(types.SenderSystem, NoPapersText)
		c.state = ReadyForFollowUp
		c.mu.Unlock()
		return nil
	}
	c.state = AnsweringInitial
	c.mu.Unlock()

	c.analyses.Go(func() {
		c.applyAnalyses(gen, c.merger.Merge(ctx, papers, &query))
	})

	req := backend.ChatRequest{Query: query, SelectedPapers: papers}
	if !IsSurveyQuery(query) {
		req.UserUnderstanding = c.profile.Understanding.Get()
	}
	reply, err := c.backend.Chat(ctx, req)
	if err != nil || strings.TrimSpace(reply) == "" {
		c.log.Warn("initial answer unavailable", zap.Error(err))
		reply = ChatFallbackText
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(gen) {
		return ErrSuperseded
	}
	c.transcript[1] = c.turn(types.SenderAI, reply)
	c.state = ReadyForFollowUp
	return nil
}

// applyAnalyses attaches a batch result to the session papers unless a
// newer search has replaced them. Papers are matched by URL, so intents
// applied in the meantime are kept.
func (c *Controller) applyAnalyses(gen uint64, res analysis.Result) {
	if res.Failed() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(gen) {
		return
	}
	c.papers = analysis.Apply(c.papers, res.Analyses)
}

// Wait blocks until every batch analysis started by a search has been
// applied or dropped. It must not be called concurrently with Submit,
// Answer or Skip.
func (c *Controller) Wait() {
	c.analyses.Wait()
}

// Send posts a follow-up message and appends the reply. Selected papers
// are attached when paper reference is on and the open PDF's text when
// one is open. A failed call appends SendFailedText instead of an error.
func (c *Controller) Send(ctx context.Context, message string) (types.DialogTurn, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return types.DialogTurn{}, ErrEmptyQuery
	}

	c.mu.Lock()
	if c.state != ReadyForFollowUp && c.state != AnsweringInitial {
		state := c.state
		c.mu.Unlock()
		return types.DialogTurn{}, fmt.Errorf("sending in state %s: %w", state, ErrNotReady)
	}
	gen := c.gen.Load()
	req := backend.ChatRequest{
		Query:             message,
		UserUnderstanding: c.profile.Understanding.Get(),
	}
	c.transcript = append(c.transcript, c.turn(types.SenderUser, message))
	if c.paperReference {
		for _, p := range c.papers {
			if p.Selected {
				req.SelectedPapers = append(req.SelectedPapers, p.Clone())
			}
		}
		if n := len(req.SelectedPapers); n > 0 {
			c.transcript = append(c.transcript, c.turn(types.SenderSystem, selectedNote(n)))
		}
	}
	if c.pdfURL != "" && c.pdfText != "" {
		req.PDFTextContent = c.pdfText
		c.transcript = append(c.transcript, c.turn(types.SenderSystem, PDFNoteText))
	}
	c.mu.Unlock()

	reply, err := c.backend.Chat(ctx, req)
	if err != nil {
		c.log.Warn("follow-up failed", zap.Error(err))
		reply = SendFailedText
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(gen) {
		return types.DialogTurn{}, ErrSuperseded
	}
	t := c.turn(types.SenderAI, reply)
	c.transcript = append(c.transcript, t)
	return t, nil
}

// OpenPDF extracts the text of the paper at paperURL for use in
// follow-ups.
func (c *Controller) OpenPDF(ctx context.Context, paperURL string) error {
	if !backend.IsPDFURL(paperURL) {
		return fmt.Errorf("%s is not a PDF link", paperURL)
	}
	text, err := c.backend.ExtractPDFText(ctx, paperURL)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", paperURL, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pdfURL, c.pdfText = paperURL, text
	return nil
}

// ClosePDF stops attaching PDF text.
func (c *Controller) ClosePDF() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pdfURL, c.pdfText = "", ""
}

// PDF returns the open PDF's URL, or "".
func (c *Controller) PDF() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pdfURL
}

// Feedback records whether the user understood the last AI reply. The
// ability level moves by one within [1,10] and every topic detected in
// the reply has its count bumped and its understanding moved by one.
func (c *Controller) Feedback(ctx context.Context, understood bool) error {
	c.mu.Lock()
	var last string
	for i := len(c.transcript) - 1; i >= 0; i-- {
		if c.transcript[i].Sender == types.SenderAI {
			last = c.transcript[i].Text
			break
		}
	}
	c.mu.Unlock()
	if last == "" {
		return fmt.Errorf("feedback without an answer: %w", ErrNotReady)
	}

	delta := -1
	if understood {
		delta = 1
	}
	err := c.profile.AbilityLevel.Update(ctx, func(level int) int {
		return clampLevel(level + delta)
	})
	if err != nil {
		return fmt.Errorf("updating ability level: %w", err)
	}

	topics := knowledge.DetectTopics(last)
	if len(topics) == 0 {
		return nil
	}
	err = c.profile.KnowledgeAreas.Update(ctx, func(areas types.KnowledgeAreas) types.KnowledgeAreas {
		if areas == nil {
			areas = types.KnowledgeAreas{}
		}
		for _, t := range topics {
			a, ok := areas[t]
			if !ok {
				a.Understanding = types.DefaultAbilityLevel
			}
			a.Count++
			a.Understanding = clampLevel(a.Understanding + delta)
			areas[t] = a
		}
		return areas
	})
	if err != nil {
		return fmt.Errorf("updating knowledge areas: %w", err)
	}
	c.log.Debug("feedback recorded", zap.Bool("understood", understood), zap.Strings("topics", topics))
	return nil
}

func clampLevel(v int) int {
	return min(max(v, types.MinAbilityLevel), types.MaxAbilityLevel)
}
