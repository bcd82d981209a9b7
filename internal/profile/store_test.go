// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package profile

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperwork/pkg/types"
)

func TestDefaultsOnFirstAccess(t *testing.T) {
	p := NewProfile(OpenMemory())

	assert.Equal(t, types.DefaultAbilityLevel, p.AbilityLevel.Get())
	assert.Empty(t, p.Library.Get())
	assert.NotNil(t, p.Understanding.Get())
	assert.NotNil(t, p.KnowledgeAreas.Get())
}

func TestSetPersistsThroughBackend(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	s, err := Open(ctx, b, nil)
	require.NoError(t, err)
	p := NewProfile(s)

	require.NoError(t, p.AbilityLevel.Set(ctx, 7))
	require.NoError(t, p.Understanding.Set(ctx, types.UnderstandingRecord{"What is a CNN?": types.HeardOfIt}))

	reopened, err := Open(ctx, b, nil)
	require.NoError(t, err)
	p2 := NewProfile(reopened)
	assert.Equal(t, 7, p2.AbilityLevel.Get())
	assert.Equal(t, types.HeardOfIt, p2.Understanding.Get()["What is a CNN?"])
	assert.Equal(t, []string{KeyAbilityLevel, KeyUnderstanding}, reopened.Keys())
}

func TestGetReturnsIndependentCopies(t *testing.T) {
	ctx := context.Background()
	p := NewProfile(OpenMemory())
	require.NoError(t, p.KnowledgeAreas.Set(ctx, types.KnowledgeAreas{"cnn": {Count: 1, Understanding: 5}}))

	areas := p.KnowledgeAreas.Get()
	areas["cnn"] = types.KnowledgeArea{Count: 99}

	assert.Equal(t, 1, p.KnowledgeAreas.Get()["cnn"].Count)
}

func TestUpdateIsAtomic(t *testing.T) {
	ctx := context.Background()
	p := NewProfile(OpenMemory())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.AbilityLevel.Update(ctx, func(n int) int { return n + 1 }))
		}()
	}
	wg.Wait()

	assert.Equal(t, types.DefaultAbilityLevel+20, p.AbilityLevel.Get())
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	p := NewProfile(OpenMemory())

	var seen []int
	unsubscribe := p.AbilityLevel.Subscribe(func(n int) { seen = append(seen, n) })

	require.NoError(t, p.AbilityLevel.Set(ctx, 3))
	require.NoError(t, p.AbilityLevel.Set(ctx, 4))
	unsubscribe()
	require.NoError(t, p.AbilityLevel.Set(ctx, 9))

	assert.Equal(t, []int{3, 4}, seen)
}

func TestResetRestoresDefault(t *testing.T) {
	ctx := context.Background()
	p := NewProfile(OpenMemory())
	require.NoError(t, p.AbilityLevel.Set(ctx, 2))

	var notified []int
	p.AbilityLevel.Subscribe(func(n int) { notified = append(notified, n) })
	require.NoError(t, p.Store.Reset(ctx, KeyAbilityLevel))

	assert.Equal(t, types.DefaultAbilityLevel, p.AbilityLevel.Get())
	assert.Equal(t, []int{types.DefaultAbilityLevel}, notified)
}

func TestUnreadableSlotFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	require.NoError(t, b.Save(ctx, KeyAbilityLevel, []byte(`"not a number"`)))
	s, err := Open(ctx, b, nil)
	require.NoError(t, err)

	assert.Equal(t, types.DefaultAbilityLevel, NewProfile(s).AbilityLevel.Get())
}

type failingBackend struct{ *MemoryBackend }

func (failingBackend) Save(context.Context, string, []byte) error { return errors.New("disk full") }

func TestFailedWriteKeepsPreviousValue(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, failingBackend{NewMemoryBackend()}, nil)
	require.NoError(t, err)
	p := NewProfile(s)

	err = p.AbilityLevel.Set(ctx, 9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, types.DefaultAbilityLevel, p.AbilityLevel.Get())
}

func TestSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "profile.db")

	b, err := OpenSQLite(path)
	require.NoError(t, err)
	s, err := Open(ctx, b, nil)
	require.NoError(t, err)
	p := NewProfile(s)

	library := []types.Paper{{
		Title:    "Attention Is All You Need",
		URL:      "https://arxiv.org/abs/1706.03762",
		Citation: types.KnownCitation(100),
		Analysis: &types.Analysis{Relevance: &types.Facet{Rating: 9, Explanation: "core"}},
	}}
	require.NoError(t, p.Library.Set(ctx, library))
	require.NoError(t, p.AbilityLevel.Set(ctx, 8))
	require.NoError(t, p.AbilityLevel.Set(ctx, 6))
	require.NoError(t, s.Close())

	b2, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { b2.Close() })
	s2, err := Open(ctx, b2, nil)
	require.NoError(t, err)
	p2 := NewProfile(s2)

	got := p2.Library.Get()
	require.Len(t, got, 1)
	assert.Equal(t, "Attention Is All You Need", got[0].Title)
	assert.Equal(t, 100, got[0].Citation.Value())
	assert.Equal(t, 9, got[0].Analysis.Relevance.Rating)
	assert.Equal(t, 6, p2.AbilityLevel.Get())

	require.NoError(t, s2.Reset(ctx, KeyLibrary))
	loaded, err := b2.Load(ctx)
	require.NoError(t, err)
	assert.NotContains(t, loaded, KeyLibrary)
}
