package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var errNoHistory = errors.New("report history not configured")

func newHistoryCommand(deps Deps) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previously scored texts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if deps.History == nil {
				return errNoHistory
			}
			entries, err := deps.History.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list history: %w", err)
			}
			if asJSON {
				return printJSON(cmd, entries)
			}
			if len(entries) == 0 {
				cmd.Println("No reports yet.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSCORED\tSCORE\tCONFIDENCE\tSENTENCES\tTEXT")
			for _, entry := range entries {
				fmt.Fprintf(w, "%s\t%s\t%.1f\t%s\t%d\t%s\n",
					entry.ID,
					entry.CreatedAt.Local().Format("2006-01-02 15:04"),
					entry.Score,
					entry.Confidence,
					entry.Sentences,
					entry.Preview,
				)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.History == nil {
				return errNoHistory
			}
			report, err := deps.History.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printReport(cmd, report, true)
			return nil
		},
	})
	return cmd
}
