// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperwork/internal/analysis"
	"github.com/pdiddy/paperwork/internal/backend"
	"github.com/pdiddy/paperwork/internal/search"
	"github.com/pdiddy/paperwork/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for papers and print the ranked list",
	Long: `Search sends the query to the backend, enriches every result with its
citation count and publication date, and prints the list ordered by the
query's priority. Queries mentioning "latest" or "new" sort by date; queries
mentioning "cited" or "popular" sort by citations. Recommended papers are
pinned first and marked with *. Simulated values are marked with ~.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("rank", "", "re-rank by: relevance, technical_innovation, feasibility, time, citation")
	searchCmd.Flags().Bool("analyze", false, "run batch analysis on the results")
	searchCmd.Flags().Bool("expand", false, "expand the query with related keywords first")
	searchCmd.Flags().Bool("archive", false, "archive every result to the library")
	searchCmd.Flags().Int("max-results", 0, "max_results sent to the backend (default from config)")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	rank, _ := cmd.Flags().GetString("rank")
	var criterion search.Criterion
	if rank != "" {
		if criterion, err = search.ParseCriterion(rank); err != nil {
			return err
		}
	}
	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		a.cfg.Search.MaxResults = n
	}

	searchQuery := query
	if expand, _ := cmd.Flags().GetBool("expand"); expand {
		keywords, err := a.client.ExpandKeywords(ctx, query)
		if err != nil {
			return fmt.Errorf("expanding keywords: %w", err)
		}
		searchQuery = strings.Join(append([]string{query}, keywords...), " ")
	}

	pr := search.DetectPriority(query)
	resp, err := a.client.Search(ctx, backend.SearchRequest{
		Query:              searchQuery,
		PrioritizeRecency:  pr.Recency,
		PrioritizeCitation: pr.Citation,
		MaxResults:         a.cfg.Search.MaxResults,
	})
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}
	papers := a.processor().Process(ctx, resp, query)

	if doAnalyze, _ := cmd.Flags().GetBool("analyze"); doAnalyze && len(papers) > 0 {
		res := analysis.NewMerger(a.client, a.log).Merge(ctx, papers, &query)
		if res.Failed() {
			fmt.Fprintf(os.Stderr, "analysis unavailable: %s\n", res.Error)
		} else {
			papers = analysis.Apply(papers, res.Analyses)
		}
	}
	if criterion != "" {
		papers = search.RankBy(papers, criterion)
	}
	if doArchive, _ := cmd.Flags().GetBool("archive"); doArchive {
		added, err := a.library.Archive(ctx, papers)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Archived %d new paper(s)\n", added)
	}

	return printPapers(cmd, papers)
}

var similarCmd = &cobra.Command{
	Use:   "similar [query]",
	Short: "List papers similar to a query without enrichment",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		rows, err := a.client.Similar(ctx, strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("finding similar papers: %w", err)
		}
		return printPapers(cmd, search.Normalize(rows))
	},
}

func init() {
	similarCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(similarCmd)
}

// printPapers writes papers as a table or JSON.
func printPapers(cmd *cobra.Command, papers []types.Paper) error {
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return search.FormatJSON(papers, os.Stdout)
	}
	search.FormatTable(papers, os.Stdout)
	return nil
}
