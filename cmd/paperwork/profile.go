// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperwork/internal/knowledge"
	"github.com/pdiddy/paperwork/internal/profile"
	"github.com/pdiddy/paperwork/pkg/types"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect and edit the knowledge profile",
	Long: `Profile shows what paperwork has learned about your background: the
understanding levels you reported, the topics your feedback touched, and a
per-domain score. Insights asks the backend for strengths, weaknesses and a
learning path.`,
}

// profileReport is the JSON form of profile show.
type profileReport struct {
	AbilityLevel       int                       `json:"abilityLevel"`
	Understanding      types.UnderstandingRecord `json:"understanding"`
	KnowledgeAreas     types.KnowledgeAreas      `json:"knowledgeAreas"`
	Domains            []knowledge.DomainScore   `json:"domains"`
	TopByCount         []knowledge.Area          `json:"topByCount"`
	TopByUnderstanding []knowledge.Area          `json:"topByUnderstanding"`
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show ability level, understanding and domain scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		understanding := a.profile.Understanding.Get()
		areas := a.profile.KnowledgeAreas.Get()
		r := profileReport{
			AbilityLevel:       a.profile.AbilityLevel.Get(),
			Understanding:      understanding,
			KnowledgeAreas:     areas,
			Domains:            knowledge.Aggregate(understanding, areas),
			TopByCount:         knowledge.TopAreasByCount(areas),
			TopByUnderstanding: knowledge.TopAreasByUnderstanding(areas),
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(r)
		}
		printProfile(r)
		return nil
	},
}

func printProfile(r profileReport) {
	fmt.Printf("Ability level: %d/%d\n\n", r.AbilityLevel, types.MaxAbilityLevel)

	if len(r.Domains) == 0 {
		fmt.Println("No knowledge recorded yet.")
		return
	}
	fmt.Printf("%-30s  %5s  %s\n", "Domain", "Score", "Items")
	fmt.Println(strings.Repeat("-", 50))
	for _, d := range r.Domains {
		fmt.Printf("%-30s  %4.0f%%  %d\n", d.Domain, d.Score, d.Items())
	}

	if len(r.Understanding) > 0 {
		fmt.Println("\nUnderstanding:")
		concepts := make([]string, 0, len(r.Understanding))
		for c := range r.Understanding {
			concepts = append(concepts, c)
		}
		sort.Strings(concepts)
		for _, c := range concepts {
			fmt.Printf("  %-40s  %s\n", c, r.Understanding[c])
		}
	}

	if len(r.TopByCount) > 0 {
		fmt.Println("\nMost discussed topics:")
		for _, a := range r.TopByCount {
			fmt.Printf("  %-20s  %3d times  understanding %d/10\n", a.Topic, a.Count, a.Understanding)
		}
		fmt.Println("\nBest understood topics:")
		for _, a := range r.TopByUnderstanding {
			fmt.Printf("  %-20s  understanding %d/10\n", a.Topic, a.Understanding)
		}
	}
}

var profileAnswerCmd = &cobra.Command{
	Use:   "answer <concept> <level>",
	Short: "Record how well you understand a concept",
	Long: `Answer records an understanding level for a concept. Level is one of
"No Idea", "Heard of It", "Somewhat Understand", "Fully Understand" or 0-3.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		level, err := types.ParseUnderstandingLevel(args[1])
		if err != nil {
			return err
		}
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		var record types.UnderstandingRecord
		err = a.profile.Understanding.Update(ctx, func(r types.UnderstandingRecord) types.UnderstandingRecord {
			if r == nil {
				r = types.UnderstandingRecord{}
			}
			r[args[0]] = level
			record = r.Clone()
			return r
		})
		if err != nil {
			return err
		}
		if err := a.client.UpdateUnderstanding(ctx, record); err != nil {
			fmt.Fprintf(os.Stderr, "warning: backend not updated: %v\n", err)
		}
		fmt.Printf("%s: %s (%s)\n", args[0], level, knowledge.Classify(args[0]))
		return nil
	},
}

var profileResetCmd = &cobra.Command{
	Use:   "reset [slot...]",
	Short: "Reset profile slots to their defaults",
	Long: `Reset deletes the given slots, or every knowledge slot when none are
named. Slots: userUnderstanding, userAbilityLevel, userKnowledgeAreas,
homePapers. The library (homePapers) is only reset when named.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		keys := args
		if len(keys) == 0 {
			keys = []string{profile.KeyUnderstanding, profile.KeyAbilityLevel, profile.KeyKnowledgeAreas}
		}
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		for _, k := range keys {
			if err := a.store.Reset(ctx, k); err != nil {
				return fmt.Errorf("resetting %s: %w", k, err)
			}
		}
		fmt.Printf("Reset %s\n", strings.Join(keys, ", "))
		return nil
	},
}

var profileInsightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Ask for strengths, weaknesses and a learning path",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		in := knowledge.Insights(ctx, a.client, knowledge.Snapshot{
			AbilityLevel:   a.profile.AbilityLevel.Get(),
			Understanding:  a.profile.Understanding.Get(),
			KnowledgeAreas: a.profile.KnowledgeAreas.Get(),
		}, a.log)

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(in)
		}
		printList("Strengths", in.Strengths)
		printList("Weaknesses", in.Weaknesses)
		fmt.Println(in.LearningPath.Title)
		for i, step := range in.LearningPath.Steps {
			fmt.Printf("  %d. %s\n", i+1, step)
		}
		return nil
	},
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Println(title)
	for _, it := range items {
		fmt.Printf("  - %s\n", it)
	}
	fmt.Println()
}

func init() {
	profileShowCmd.Flags().Bool("json", false, "output as JSON")
	profileInsightsCmd.Flags().Bool("json", false, "output as JSON")

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileAnswerCmd)
	profileCmd.AddCommand(profileResetCmd)
	profileCmd.AddCommand(profileInsightsCmd)

	rootCmd.AddCommand(profileCmd)
}
