package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/nao1215/sitemirror/internal/config"
	"github.com/nao1215/sitemirror/internal/database"
	"github.com/nao1215/sitemirror/internal/report"
	"github.com/spf13/cobra"
)

// timeLayout is the timestamp format used in history listings.
const timeLayout = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [host]",
		Short: "List recorded mirror runs",
		Long: `History lists the mirror runs recorded in the history database,
newest first. Give a host to list only runs for that site, or --run to
show the outcome of every resource of one run.

Examples:
  # List every recorded run
  sitemirror history

  # List runs for one site as JSON
  sitemirror history --json example.com

  # Show what happened to each URL in run 12
  sitemirror history --run 12`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	cmd.Flags().Int64P("run", "r", 0, "Show the resources of the run with this ID")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory holding the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetInt64("run")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(out, "No mirror history recorded yet.")
			return nil
		}
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()

	if runID > 0 {
		resources, err := db.GetResources(ctx, runID)
		if err != nil {
			return err
		}
		if jsonOut {
			_, err = report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(resources)
			return err
		}
		for _, res := range resources {
			detail := res.LocalPath
			if detail == "" {
				detail = res.Reason
			}
			fmt.Fprintf(out, "%-8s %3s  %s  %s\n", res.StateText, statusText(res.StatusCode), res.URL, detail)
		}
		return nil
	}

	var host string
	if len(args) > 0 {
		host = args[0]
	}

	runs, err := db.ListRuns(ctx, host)
	if err != nil {
		return err
	}

	if jsonOut {
		if runs == nil {
			runs = []database.Run{}
		}
		_, err = report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(runs)
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No mirror runs found.")
		return nil
	}

	for _, run := range runs {
		writeRun(out, run)
	}
	return nil
}

// writeRun prints one run as a single line.
func writeRun(out io.Writer, run database.Run) {
	state := "complete"
	switch {
	case run.FinishedAt.IsZero():
		state = "unfinished"
	case run.Interrupted:
		state = "interrupted"
	}

	fmt.Fprintf(out, "#%d  %s  %s -> %s  scheduled=%d saved=%d skipped=%d failed=%d  (%s)\n",
		run.ID,
		run.StartedAt.Local().Format(timeLayout),
		run.StartURL,
		run.OutDir,
		run.Stats.Scheduled,
		run.Stats.Saved,
		run.Stats.Skipped,
		run.Stats.Failed,
		state,
	)
}

// statusText renders an HTTP status, or "-" when none was received.
func statusText(code int) string {
	if code == 0 {
		return "-"
	}
	return strconv.Itoa(code)
}
