// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage archived papers (list, select, remove, export)",
	Long: `Library manages the papers archived from searches and conversations.
Papers are identified by their position shown by library list.`,
}

// --- list subcommand ---

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived papers",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return printPapers(cmd, a.library.Papers())
	},
}

// --- select subcommand ---

var librarySelectCmd = &cobra.Command{
	Use:   "select [ids...]",
	Short: "Select papers for analyze, compare, survey and chat /library",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if reset, _ := cmd.Flags().GetBool("clear"); reset {
			if err := a.library.ClearSelection(ctx); err != nil {
				return err
			}
		}
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		off, _ := cmd.Flags().GetBool("off")
		if len(ids) > 0 {
			if err := a.library.SetSelected(ctx, ids, !off); err != nil {
				return err
			}
		}
		fmt.Printf("%d paper(s) selected\n", len(a.library.Selected()))
		return nil
	},
}

// --- remove subcommand ---

var libraryRemoveCmd = &cobra.Command{
	Use:   "remove [ids...]",
	Short: "Remove papers by id, or the selected papers with --selected",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		var n int
		if selected, _ := cmd.Flags().GetBool("selected"); selected {
			n, err = a.library.RemoveSelected(ctx)
		} else {
			ids, perr := parseIDs(args)
			if perr != nil {
				return perr
			}
			if len(ids) == 0 {
				return fmt.Errorf("provide paper ids or --selected")
			}
			n, err = a.library.Remove(ctx, ids)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d paper(s)\n", n)
		return nil
	},
}

// --- move subcommand ---

var libraryMoveCmd = &cobra.Command{
	Use:   "move <from> <to>",
	Short: "Move a paper to another position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.library.Move(ctx, ids[0], ids[1])
	},
}

// --- export subcommand ---

var libraryExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the library to YAML, JSON or CSL-YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		var w io.Writer = os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			defer f.Close()
			w = f
		}

		switch format {
		case "yaml", "":
			err = a.library.ExportYAML(w)
		case "json":
			err = a.library.ExportJSON(w)
		case "csl":
			err = a.library.ExportCSL(w)
		default:
			return fmt.Errorf("unsupported format %q: use yaml, json or csl", format)
		}
		if err != nil {
			return err
		}
		if output != "" {
			fmt.Fprintf(os.Stderr, "Exported to %s\n", output)
		}
		return nil
	},
}

func init() {
	libraryListCmd.Flags().Bool("json", false, "output as JSON")

	librarySelectCmd.Flags().Bool("clear", false, "unselect everything first")
	librarySelectCmd.Flags().Bool("off", false, "unselect the given papers instead")

	libraryRemoveCmd.Flags().Bool("selected", false, "remove the selected papers")

	libraryExportCmd.Flags().String("format", "yaml", "export format: yaml, json or csl (CSL-YAML for Pandoc)")
	libraryExportCmd.Flags().StringP("output", "o", "", "write to a file instead of stdout")

	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(librarySelectCmd)
	libraryCmd.AddCommand(libraryRemoveCmd)
	libraryCmd.AddCommand(libraryMoveCmd)
	libraryCmd.AddCommand(libraryExportCmd)

	rootCmd.AddCommand(libraryCmd)
}
