package main

import (
	"fmt"
	"net/http"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tenx-cards/core/internal/workflow"
)

func newSetsCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sets",
		Short: "List or delete saved flashcard sets",
	}

	var page, size int
	list := &cobra.Command{
		Use:   "list",
		Short: "List saved sets, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := workflow.NewHTTPClient(opts.server, &http.Client{Timeout: opts.timeout})
			res, err := client.ListSets(cmd.Context(), page, size)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCARDS\tMODEL\tCREATED")
			for _, s := range res.Data {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", s.ID, s.Name, s.FlashcardCount, s.Model, s.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d, %d sets\n",
				res.Pagination.CurrentPage, res.Pagination.TotalPage, res.Pagination.Total)
			return nil
		},
	}
	list.Flags().IntVar(&page, "page", 1, "Page number")
	list.Flags().IntVar(&size, "size", 10, "Page size (max 100)")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a set and its flashcards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := workflow.NewHTTPClient(opts.server, &http.Client{Timeout: opts.timeout})
			if err := client.DeleteSet(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, del)
	return cmd
}
