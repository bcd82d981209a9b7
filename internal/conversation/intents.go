// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package conversation

import (
	"context"
	"fmt"

	"github.com/pdiddy/paperwork/internal/analysis"
	"github.com/pdiddy/paperwork/internal/library"
	"github.com/pdiddy/paperwork/internal/search"
	"github.com/pdiddy/paperwork/pkg/types"
)

// Each intent replaces the session list with a new snapshot.

// Select sets the selection flag of the session papers with the given IDs.
func (c *Controller) Select(ids []int, selected bool) {
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	next := types.ClonePapers(c.papers)
	for i := range next {
		if want[next[i].ID] {
			next[i].Selected = selected
		}
	}
	c.papers = next
}

// Reorder moves the paper at index from to index to.
func (c *Controller) Reorder(from, to int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := library.Move(c.papers, from, to)
	if err != nil {
		return err
	}
	c.papers = next
	return nil
}

// RankBy sorts the session list by criterion, highest first.
func (c *Controller) RankBy(criterion search.Criterion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.papers = search.RankBy(c.papers, criterion)
}

// RemoveSelected drops the selected papers and returns how many were
// removed.
func (c *Controller) RemoveSelected() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := make([]types.Paper, 0, len(c.papers))
	for _, p := range c.papers {
		if !p.Selected {
			kept = append(kept, p.Clone())
		}
	}
	removed := len(c.papers) - len(kept)
	types.Renumber(kept)
	c.papers = kept
	return removed
}

// ArchiveSelected adds the selected session papers to the library and
// clears their selection. It returns the number of papers newly archived.
func (c *Controller) ArchiveSelected(ctx context.Context) (int, error) {
	c.mu.Lock()
	var selected []types.Paper
	for _, p := range c.papers {
		if p.Selected {
			selected = append(selected, p.Clone())
		}
	}
	c.mu.Unlock()
	if len(selected) == 0 {
		return 0, nil
	}

	added, err := c.library.Archive(ctx, selected)
	if err != nil {
		return 0, err
	}

	archived := make(map[string]bool, len(selected))
	for _, p := range selected {
		archived[library.Key(p)] = true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	next := types.ClonePapers(c.papers)
	for i := range next {
		if archived[library.Key(next[i])] {
			next[i].Selected = false
		}
	}
	c.papers = next
	return added, nil
}

// AskLibrarySelection brings the selected library papers into the
// conversation. Papers without an analysis are analysed first and the
// analyses are saved to the library; the papers then move to the front
// of the session list, replacing session copies with the same identity.
func (c *Controller) AskLibrarySelection(ctx context.Context) (int, error) {
	selected := c.library.Selected()
	if len(selected) == 0 {
		return 0, fmt.Errorf("no library papers selected: %w", ErrNotReady)
	}

	res := c.merger.Merge(ctx, selected, nil)
	if !res.Failed() {
		selected = analysis.Apply(selected, res.Analyses)
		if err := c.library.Replace(ctx, analysis.Apply(c.library.Papers(), res.Analyses)); err != nil {
			return 0, fmt.Errorf("saving analyses: %w", err)
		}
	}

	front := make(map[string]bool, len(selected))
	for _, p := range selected {
		front[library.Key(p)] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	next := types.ClonePapers(selected)
	for _, p := range c.papers {
		if !front[library.Key(p)] {
			next = append(next, p.Clone())
		}
	}
	types.Renumber(next)
	c.papers = next
	if c.state == Idle {
		c.state = ReadyForFollowUp
	}
	return len(selected), nil
}
