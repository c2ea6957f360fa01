// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/keepconv/internal/index"
	"github.com/pdiddy/keepconv/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search converted notes",
	Long: `Search queries the note index with FTS5 full-text search. Matches cover
note titles, labels, bodies, and OCR text from attachments. A --label
filter can be combined with the query or used alone to list a label's
notes.`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	label, _ := cmd.Flags().GetString("label")
	limit, _ := cmd.Flags().GetInt("limit")
	opts := index.QueryOptions{
		Query:      strings.Join(args, " "),
		Label:      label,
		MaxResults: limit,
	}
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search terms or --label")
	}

	cfg := types.IndexConfig{
		IndexDir:   stringSetting(cmd, "index-dir", "index.index_dir"),
		MaxResults: intSetting(cmd, "max-results", "index.max_results"),
	}
	store, err := index.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Search(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSearchOutput(results, jsonOutput)
}

func formatSearchOutput(results []index.Result, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-30s  %-20s  %s\n", "Rank", "Title", "Labels", "Snippet")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for i, r := range results {
		title := r.Title
		if title == "" {
			title = r.File
		}
		if len(title) > 30 {
			title = title[:27] + "..."
		}
		labels := strings.Join(r.Labels, ", ")
		if len(labels) > 20 {
			labels = labels[:17] + "..."
		}
		snippet := strings.ReplaceAll(r.Snippet, "\n", " ")
		fmt.Fprintf(os.Stdout, "%-4d  %-30s  %-20s  %s\n", i+1, title, labels, snippet)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

func init() {
	searchCmd.Flags().String("label", "", "filter by note label")
	searchCmd.Flags().Int("limit", 0, "maximum results (0 = index default)")
	searchCmd.Flags().String("index-dir", "index", "directory holding the index database")
	searchCmd.Flags().Int("max-results", 20, "default result cap for searches")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}
