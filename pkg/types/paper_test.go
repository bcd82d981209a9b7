// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaperJSONKeepsSimulatedState(t *testing.T) {
	in := Paper{
		Title:    "A",
		URL:      "https://example.com/a",
		Date:     SimulatedDate(time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)),
		Citation: KnownCitation(12),
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"simulated":["date"]`)
	assert.Contains(t, string(data), `"citation":12`)
	assert.Contains(t, string(data), `"date":"2024.05.06"`)

	var out Paper
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, MetaSimulated, out.Date.State)
	assert.Equal(t, MetaKnown, out.Citation.State)
	assert.Equal(t, "A", out.Title)
}

func TestPaperCloneIsDeep(t *testing.T) {
	p := Paper{
		Authors:        []string{"Ada"},
		Analysis:       &Analysis{Relevance: &Facet{Rating: 4}},
		Recommendation: &Recommendation{Type: MostCited},
	}

	c := p.Clone()
	c.Authors[0] = "Grace"
	c.Analysis.Relevance.Rating = 9
	c.Recommendation.Type = MostRecent

	assert.Equal(t, "Ada", p.Authors[0])
	assert.Equal(t, 4, p.Analysis.Relevance.Rating)
	assert.Equal(t, MostCited, p.Recommendation.Type)
}

func TestHasURL(t *testing.T) {
	assert.True(t, Paper{URL: "u"}.HasURL())
	assert.False(t, Paper{URL: NotAvailable}.HasURL())
	assert.False(t, Paper{}.HasURL())
}

func TestRecommendationRank(t *testing.T) {
	assert.Less(t, MostRelevant.Rank(), MostCited.Rank())
	assert.Less(t, MostCited.Rank(), MostRecent.Rank())
	assert.Less(t, MostRecent.Rank(), RecommendationType("other").Rank())
}

func TestSenderText(t *testing.T) {
	for _, s := range []Sender{SenderUser, SenderAI, SenderSystem} {
		text, err := s.MarshalText()
		require.NoError(t, err)
		var back Sender
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, s, back)
	}
	_, err := Sender(7).MarshalText()
	assert.Error(t, err)
	assert.Error(t, new(Sender).UnmarshalText([]byte("bot")))
}

func TestUnderstandingLevels(t *testing.T) {
	for i, l := range UnderstandingLevels {
		assert.Equal(t, i, l.Score())
		assert.True(t, l.Valid())
	}
	lvl, err := ParseUnderstandingLevel("2")
	require.NoError(t, err)
	assert.Equal(t, SomewhatUnderstand, lvl)
	_, err = ParseUnderstandingLevel("Expert")
	assert.Error(t, err)
}
