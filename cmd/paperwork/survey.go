// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var surveyCmd = &cobra.Command{
	Use:   "survey [ids...]",
	Short: "Write a literature survey over library papers",
	Long: `Survey asks the backend to write a literature survey covering the
selected library papers (or the given ids, or --all). The survey is printed
as Markdown, or written to --output.`,
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
		if len(papers) == 0 {
			return fmt.Errorf("no papers for the survey: select library papers or pass ids")
		}
		text, err := a.client.GenerateSurvey(ctx, papers)
		if err != nil {
			return fmt.Errorf("generating survey: %w", err)
		}

		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			fmt.Println(text)
			return nil
		}
		if err := os.WriteFile(output, []byte(text+"\n"), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}
		fmt.Fprintf(os.Stderr, "Survey written to %s\n", output)
		return nil
	},
}

func init() {
	surveyCmd.Flags().Bool("all", false, "cover every library paper")
	surveyCmd.Flags().StringP("output", "o", "", "write the survey to a file")
	rootCmd.AddCommand(surveyCmd)
}
