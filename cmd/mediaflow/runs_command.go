package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mediaflow/internal/chat"
	"mediaflow/internal/store"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				runs, err := st.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						run.ID,
						string(run.Status),
						strconv.Itoa(run.JobCount),
						strconv.Itoa(run.MessageCount),
						formatTimestamp(run.StartedAt),
						formatTimestamp(run.UpdatedAt),
						run.Error,
					})
				}
				fmt.Fprintln(out, renderTable([]column{
					{title: "Run"},
					{title: "Status"},
					{title: "Jobs", right: true},
					{title: "Messages", right: true},
					{title: "Started"},
					{title: "Updated"},
					{title: "Error", wrap: transcriptWidth},
				}, rows))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history <run-id>",
		Short: "Show the transcript of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				run, err := st.LoadRun(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %s (%s), started %s\n", run.ID, run.Status, formatTimestamp(run.StartedAt))
				if run.Error != "" {
					fmt.Fprintf(out, "Error: %s\n", run.Error)
				}
				rows := make([][]string, 0, len(run.Messages))
				for i, msg := range run.Messages {
					_, body, _ := chat.ParseAuthor(msg.Content)
					rows = append(rows, []string{
						strconv.Itoa(i + 1),
						strconv.Itoa(msg.JobSeq),
						chat.DisplayName(msg.Author),
						string(msg.Outcome),
						body,
					})
				}
				fmt.Fprintln(out, renderTable([]column{
					{title: "#", right: true},
					{title: "Job", right: true},
					{title: "Author"},
					{title: "Outcome"},
					{title: "Content", wrap: transcriptWidth},
				}, rows))
				return nil
			})
		},
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
