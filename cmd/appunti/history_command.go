package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"appunti/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Browse past analyses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd, ctx)
		},
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryDeleteCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List past analyses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd, ctx)
		},
	}
}

func runHistoryList(cmd *cobra.Command, ctx *commandContext) error {
	store, err := ctx.historyStore()
	if err != nil {
		return err
	}
	entries, err := store.List(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No analyses yet.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			entry.ID,
			entry.Name,
			entry.ContentType.Label(),
			entry.Status,
			humanize.Time(entry.Date),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Name", "Type", "Status", "Created"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	))
	return nil
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a past analysis in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, entry := range entries {
				if entry.ID != args[0] {
					continue
				}
				variant, err := store.Expand(entry)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), renderVariant(variant))
				return nil
			}
			return fmt.Errorf("no analysis with id %s", args[0])
		},
	}
}

func newHistoryDeleteCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a past analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			// Prime the cache so the delete can find and show the entry.
			if _, err := store.List(cmd.Context()); err != nil {
				return err
			}

			confirm := func(entry history.Entry) bool {
				if force {
					return true
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Delete %q (%s)? [y/N] ", entry.Name, entry.ID)
				reader := bufio.NewReader(cmd.InOrStdin())
				answer, _ := reader.ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				return answer == "y" || answer == "yes"
			}

			deleted, err := store.Delete(cmd.Context(), args[0], confirm)
			if err != nil {
				return err
			}
			if deleted {
				fmt.Fprintln(cmd.OutOrStdout(), "Deleted.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")
	return cmd
}
