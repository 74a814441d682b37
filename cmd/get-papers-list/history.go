// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-affiliations/internal/report"
	"github.com/pdiddy/paper-affiliations/internal/store"
	"github.com/pdiddy/paper-affiliations/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past runs recorded in the run history database",
	Long: `History lists the runs recorded in the SQLite database given by --db
(or store.path), newest first. Use "history show <run-id>" to print the
papers a run reported; a unique prefix of the run ID is enough.`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the papers reported by a past run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func openHistory() (*store.Store, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if cfg.Store.Path == "" {
		return nil, fmt.Errorf("run history is disabled: set --db or store.path")
	}
	return store.NewStore(cfg.Store)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	s, err := openHistory()
	if err != nil {
		return err
	}
	defer s.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := s.ListRuns(context.Background(), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatHistoryOutput(cmd.OutOrStdout(), runs, jsonOutput)
}

func formatHistoryOutput(w io.Writer, runs []store.Run, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-8s  %-19s  %-8s  %-6s  %-6s  %-7s  %s\n",
		"Run", "Started", "Duration", "IDs", "Papers", "Status", "Query")
	for _, r := range runs {
		status := "ok"
		if !r.Succeeded() {
			status = "failed"
		}
		query := r.Query
		if len(query) > 60 {
			query = query[:57] + "..."
		}
		fmt.Fprintf(w, "%-8s  %-19s  %-8s  %-6d  %-6d  %-7s  %s\n",
			shortID(r.ID), r.StartedAt.Local().Format(time.DateTime),
			r.Duration.Round(100*time.Millisecond), r.Discovered, r.Emitted, status, query)
	}

	fmt.Fprintf(w, "\n%d runs\n", len(runs))
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	s, err := openHistory()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	run, err := s.GetRun(ctx, args[0])
	if err != nil {
		return err
	}
	if !run.Succeeded() {
		return fmt.Errorf("run %s failed: %s", shortID(run.ID), run.Error)
	}

	records, err := s.RunRecords(ctx, run.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, noMatchesMessage)
		return nil
	}

	file, _ := cmd.Flags().GetString("file")
	format, _ := cmd.Flags().GetString("format")
	return report.Save(file, types.OutputFormat(format), records, out)
}

// shortID returns the first block of a UUID.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list (0 = all)")
	historyCmd.Flags().Bool("json", false, "output runs as JSON")

	historyShowCmd.Flags().StringP("file", "f", "", "write the papers to this file instead of stdout")
	historyShowCmd.Flags().String("format", "", "output format: csv, json, yaml or table")

	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}
