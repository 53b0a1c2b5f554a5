package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect the local run journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobsList(cmd, ctx, 20)
		},
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobsList(cmd, ctx, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	return cmd
}

func runJobsList(cmd *cobra.Command, ctx *commandContext, limit int) error {
	store, err := ctx.openJournal()
	if err != nil {
		return err
	}
	defer store.Close()

	// Runs abandoned by a crashed process are marked before listing so the
	// output never shows a phantom in-flight run.
	if _, err := store.FailInterrupted(cmd.Context()); err != nil {
		return err
	}

	runs, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		status := string(run.Phase)
		if run.ErrorMessage != "" {
			status = status + ": " + run.ErrorMessage
		}
		rows = append(rows, []string{
			strconv.FormatInt(run.ID, 10),
			run.Name,
			run.ContentType,
			status,
			fmt.Sprintf("%.0f%%", run.ProgressPercent),
			humanize.Time(run.UpdatedAt),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Name", "Type", "Status", "Progress", "Updated"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	))
	return nil
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <id>",
		Short: "Remove a run from the journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q", args[0])
			}
			store, err := ctx.openJournal()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed run #%d\n", id)
			return nil
		},
	}
}
