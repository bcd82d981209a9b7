// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperwork/internal/analysis"
	"github.com/pdiddy/paperwork/pkg/types"
)

// targetPapers returns the library papers named by ids, every paper with
// --all, or the selected papers.
func targetPapers(cmd *cobra.Command, a *app, args []string) ([]types.Paper, error) {
	all, _ := cmd.Flags().GetBool("all")
	papers := a.library.Papers()
	switch {
	case len(args) > 0:
		ids, err := parseIDs(args)
		if err != nil {
			return nil, err
		}
		want := make(map[int]bool, len(ids))
		for _, id := range ids {
			want[id] = true
		}
		var out []types.Paper
		for _, p := range papers {
			if want[p.ID] {
				out = append(out, p)
			}
		}
		return out, nil
	case all:
		return papers, nil
	default:
		return a.library.Selected(), nil
	}
}

func queryFlag(cmd *cobra.Command) *string {
	q, _ := cmd.Flags().GetString("query")
	if strings.TrimSpace(q) == "" {
		return nil
	}
	return &q
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [ids...]",
	Short: "Rate library papers for relevance, innovation and feasibility",
	Long: `Analyze sends library papers without an analysis to the backend and
saves the ratings. By default the selected papers are analysed; pass ids or
--all to choose others. A single paper uses the detailed analysis endpoint.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Bool("all", false, "analyse every library paper")
	analyzeCmd.Flags().String("query", "", "research question the ratings are relative to")
	analyzeCmd.Flags().Bool("force", false, "re-analyse a single paper that already has an analysis")
	analyzeCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	targets, err := targetPapers(cmd, a, args)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("no papers to analyse: select library papers or pass ids")
	}
	query := queryFlag(cmd)

	analyses := make(map[string]types.Analysis)
	force, _ := cmd.Flags().GetBool("force")
	if len(targets) == 1 && (targets[0].Analysis == nil || force) {
		p := targets[0]
		if !p.HasURL() {
			return fmt.Errorf("paper %d has no URL", p.ID)
		}
		an, err := a.client.AnalyzePaper(ctx, p, query)
		if err != nil {
			return fmt.Errorf("analysing %q: %w", p.Title, err)
		}
		analyses[p.URL] = an
	} else {
		res := analysis.NewMerger(a.client, a.log).Merge(ctx, targets, query)
		if res.Failed() {
			return fmt.Errorf("batch analysis failed: %s", res.Error)
		}
		analyses = res.Analyses
	}

	updated := analysis.Apply(a.library.Papers(), analyses)
	if err := a.library.Replace(ctx, updated); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Analysed %d paper(s)\n", len(targets))
	return printPapers(cmd, analysis.Apply(targets, analyses))
}
