// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library manages the user's archived papers. Papers are
// identified by URL; papers without one are identified by title.
package library

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/paperwork/internal/profile"
	"github.com/pdiddy/paperwork/pkg/types"
)

// Key returns the identity used for de-duplication.
func Key(p types.Paper) string {
	if p.HasURL() {
		return "url:" + p.URL
	}
	return "title:" + p.Title
}

// MergeUnique appends the papers in incoming whose key is not already in
// existing (or earlier in incoming). Appended copies have Selected reset.
// It returns the merged list, renumbered, and the number of papers added.
func MergeUnique(existing, incoming []types.Paper) ([]types.Paper, int) {
	out := types.ClonePapers(existing)
	if out == nil {
		out = []types.Paper{}
	}
	seen := make(map[string]bool, len(out)+len(incoming))
	for _, p := range out {
		seen[Key(p)] = true
	}
	added := 0
	for _, p := range incoming {
		k := Key(p)
		if seen[k] {
			continue
		}
		seen[k] = true
		c := p.Clone()
		c.Selected = false
		out = append(out, c)
		added++
	}
	types.Renumber(out)
	return out, added
}

// Library is the persisted archive.
type Library struct {
	slot   profile.Slot[[]types.Paper]
	logger *zap.Logger
}

// New returns the library stored in p.
func New(p *profile.Profile, logger *zap.Logger) *Library {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Library{slot: p.Library, logger: logger}
}

// Papers returns a snapshot of the archive.
func (l *Library) Papers() []types.Paper {
	return l.slot.Get()
}

// Selected returns the selected papers in archive order.
func (l *Library) Selected() []types.Paper {
	var out []types.Paper
	for _, p := range l.slot.Get() {
		if p.Selected {
			out = append(out, p)
		}
	}
	return out
}

// Contains reports whether a paper with the same identity is archived.
func (l *Library) Contains(p types.Paper) bool {
	k := Key(p)
	for _, q := range l.slot.Get() {
		if Key(q) == k {
			return true
		}
	}
	return false
}

// Archive adds papers that are not yet archived. Duplicates are ignored.
func (l *Library) Archive(ctx context.Context, papers []types.Paper) (int, error) {
	var added int
	err := l.slot.Update(ctx, func(current []types.Paper) []types.Paper {
		var merged []types.Paper
		merged, added = MergeUnique(current, papers)
		return merged
	})
	if err != nil {
		return 0, fmt.Errorf("archiving papers: %w", err)
	}
	l.logger.Info("papers archived", zap.Int("offered", len(papers)), zap.Int("added", added))
	return added, nil
}

// Remove deletes the papers with the given IDs.
func (l *Library) Remove(ctx context.Context, ids []int) (int, error) {
	drop := make(map[int]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	return l.removeWhere(ctx, func(p types.Paper) bool { return drop[p.ID] })
}

// RemoveSelected deletes every selected paper.
func (l *Library) RemoveSelected(ctx context.Context) (int, error) {
	return l.removeWhere(ctx, func(p types.Paper) bool { return p.Selected })
}

func (l *Library) removeWhere(ctx context.Context, drop func(types.Paper) bool) (int, error) {
	removed := 0
	err := l.slot.Update(ctx, func(current []types.Paper) []types.Paper {
		kept := make([]types.Paper, 0, len(current))
		for _, p := range current {
			if drop(p) {
				removed++
				continue
			}
			kept = append(kept, p)
		}
		types.Renumber(kept)
		return kept
	})
	if err != nil {
		return 0, fmt.Errorf("removing papers: %w", err)
	}
	return removed, nil
}

// SetSelected sets the selection flag of the papers with the given IDs.
func (l *Library) SetSelected(ctx context.Context, ids []int, selected bool) error {
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return l.slot.Update(ctx, func(current []types.Paper) []types.Paper {
		for i := range current {
			if want[current[i].ID] {
				current[i].Selected = selected
			}
		}
		return current
	})
}

// ClearSelection unselects every paper.
func (l *Library) ClearSelection(ctx context.Context) error {
	return l.slot.Update(ctx, func(current []types.Paper) []types.Paper {
		for i := range current {
			current[i].Selected = false
		}
		return current
	})
}

// Move relocates the paper at index from to index to and renumbers.
func (l *Library) Move(ctx context.Context, from, to int) error {
	var moveErr error
	err := l.slot.Update(ctx, func(current []types.Paper) []types.Paper {
		var moved []types.Paper
		moved, moveErr = Move(current, from, to)
		if moveErr != nil {
			return current
		}
		return moved
	})
	if moveErr != nil {
		return moveErr
	}
	return err
}

// Replace overwrites the archive, for example after attaching analyses.
func (l *Library) Replace(ctx context.Context, papers []types.Paper) error {
	out := types.ClonePapers(papers)
	if out == nil {
		out = []types.Paper{}
	}
	types.Renumber(out)
	return l.slot.Set(ctx, out)
}

// Move returns a copy of papers with the element at from moved to to,
// renumbered by position.
func Move(papers []types.Paper, from, to int) ([]types.Paper, error) {
	if from < 0 || from >= len(papers) || to < 0 || to >= len(papers) {
		return nil, fmt.Errorf("move %d -> %d out of range for %d papers", from, to, len(papers))
	}
	out := types.ClonePapers(papers)
	p := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]types.Paper{p}, out[to:]...)...)
	types.Renumber(out)
	return out, nil
}
