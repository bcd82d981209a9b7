// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare [ids...]",
	Short: "Compare two or more library papers",
	Long: `Compare asks the backend for a side-by-side assessment of library
papers: an overall comparison, each paper's strengths and weaknesses, and a
synthesis. By default the selected papers are compared.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		papers, err := targetPapers(cmd, a, args)
		if err != nil {
			return err
		}
		if len(papers) < 2 {
			return fmt.Errorf("compare needs at least two papers, got %d", len(papers))
		}
		cmp, err := a.client.ComparePapers(ctx, papers, queryFlag(cmd))
		if err != nil {
			return fmt.Errorf("comparing papers: %w", err)
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(cmp)
		}
		fmt.Println(cmp.OverallComparison)
		fmt.Println()
		for _, pa := range cmp.StrengthsWeaknesses {
			fmt.Println(pa.PaperTitle)
			printList("  Strengths", pa.Strengths)
			printList("  Weaknesses", pa.Weaknesses)
		}
		if cmp.Synthesis != "" {
			fmt.Println("Synthesis")
			fmt.Println(cmp.Synthesis)
		}
		return nil
	},
}

func init() {
	compareCmd.Flags().Bool("all", false, "compare every library paper")
	compareCmd.Flags().String("query", "", "research question to compare against")
	compareCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(compareCmd)
}
