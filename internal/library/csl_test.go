// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperwork/pkg/types"
)

func TestToCSLItem(t *testing.T) {
	tests := []struct {
		name  string
		paper types.Paper
		want  CSLItem
	}{
		{
			name: "arXiv paper with known date",
			paper: types.Paper{
				Title:   "Attention Is All You Need",
				Authors: []string{"Ashish Vaswani", "Shazeer"},
				URL:     "https://arxiv.org/abs/1706.03762v7",
				Date:    types.KnownDate(time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC)),
			},
			want: CSLItem{
				ID:     "1706.03762",
				Type:   "article",
				Title:  "Attention Is All You Need",
				Author: []CSLName{{Given: "Ashish", Family: "Vaswani"}, {Literal: "Shazeer"}},
				Issued: &CSLDate{DateParts: [][]int{{2017, 6, 12}}},
				URL:    "https://arxiv.org/abs/1706.03762v7",
			},
		},
		{
			name: "DOI link with simulated date and joined authors",
			paper: types.Paper{
				Title:  "Deep Residual Learning",
				Author: "Kaiming He, Xiangyu Zhang",
				URL:    "https://doi.org/10.1109/CVPR.2016.90",
				Date:   types.SimulatedDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			},
			want: CSLItem{
				ID:     "https://doi.org/10.1109/CVPR.2016.90",
				Type:   "article",
				Title:  "Deep Residual Learning",
				Author: []CSLName{{Given: "Kaiming", Family: "He"}, {Given: "Xiangyu", Family: "Zhang"}},
				URL:    "https://doi.org/10.1109/CVPR.2016.90",
				DOI:    "10.1109/CVPR.2016.90",
			},
		},
		{
			name:  "no URL",
			paper: types.Paper{Title: "Untitled  Draft", URL: types.NotAvailable},
			want:  CSLItem{ID: "untitled-draft", Type: "article", Title: "Untitled  Draft"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toCSLItem(tt.paper))
		})
	}
}

func TestExportCSL(t *testing.T) {
	l := newLibrary(t)
	_, err := l.Archive(context.Background(), []types.Paper{
		{Title: "A", URL: "https://arxiv.org/abs/2401.00001", Summary: "about A"},
		{Title: "B", URL: "https://arxiv.org/abs/2401.00002"},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, l.ExportCSL(&buf))
	assert.Contains(t, buf.String(), "type: article")

	var items []CSLItem
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "2401.00001", items[0].ID)
	assert.Equal(t, "about A", items[0].Abstract)
	assert.Nil(t, items[1].Issued)
}
