// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func TestCitationJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Citation
		out  string
	}{
		{"number", `42`, KnownCitation(42), `42`},
		{"numeric string", `"17"`, KnownCitation(17), `17`},
		{"float", `3.0`, KnownCitation(3), `3`},
		{"not available", `"N/A"`, Citation{}, `"N/A"`},
		{"loading", `"Loading..."`, PendingCitation(), `"Loading..."`},
		{"null", `null`, Citation{}, `"N/A"`},
		{"garbage", `"lots"`, Citation{}, `"N/A"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Citation
			require.NoError(t, json.Unmarshal([]byte(tt.in), &c))
			assert.Equal(t, tt.want, c)

			out, err := json.Marshal(c)
			require.NoError(t, err)
			assert.Equal(t, tt.out, string(out))
		})
	}
}

func TestCitationValue(t *testing.T) {
	assert.Equal(t, 9, SimulatedCitation(9).Value())
	assert.Equal(t, 0, PendingCitation().Value())
	assert.Equal(t, "9", SimulatedCitation(9).String())
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		state MetaState
	}{
		{"2024.03.05", "2024.03.05", MetaKnown},
		{"2024-03-05", "2024.03.05", MetaKnown},
		{"2024-03-05T10:00:00Z", "2024.03.05", MetaKnown},
		{"2019", "2019.01.01", MetaKnown},
		{"N/A", NotAvailable, MetaUnknown},
		{"Loading...", Loading, MetaPending},
		{"someday", NotAvailable, MetaUnknown},
		{"", NotAvailable, MetaUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d := ParseDate(tt.in)
			assert.Equal(t, tt.want, d.String())
			assert.Equal(t, tt.state, d.State)
		})
	}
}

func TestPubDateBefore(t *testing.T) {
	older := KnownDate(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := SimulatedDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	unknown := PubDate{}

	assert.True(t, older.Before(newer))
	assert.False(t, newer.Before(older))
	assert.True(t, unknown.Before(older))
	assert.False(t, older.Before(unknown))
	assert.False(t, unknown.Before(PendingDate()))
}

func TestPubDateJSON(t *testing.T) {
	var d PubDate
	require.NoError(t, json.Unmarshal([]byte(`2021`), &d))
	assert.Equal(t, "2021.01.01", d.String())

	out, err := json.Marshal(KnownDate(time.Date(2023, 7, 9, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, `"2023.07.09"`, string(out))
}

func TestMetaYAMLRoundTrip(t *testing.T) {
	type row struct {
		Date     PubDate  `yaml:"date"`
		Citation Citation `yaml:"citation"`
	}
	in := row{Date: KnownDate(time.Date(2022, 2, 2, 0, 0, 0, 0, time.UTC)), Citation: KnownCitation(5)}

	data, err := yaml.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), "citation: 5")

	var out row
	require.NoError(t, yaml.Unmarshal(data, &out))
	assert.Equal(t, "2022.02.02", out.Date.String())
	assert.Equal(t, KnownCitation(5), out.Citation)
}
