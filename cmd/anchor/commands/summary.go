package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSummaryCmd(load appFactory) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the mood distribution of a user's messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := a.Companion.Summary(cmd.Context(), userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, share := range summary.Shares {
				fmt.Fprintf(out, "%-9s %3d  %5.1f%%\n", share.Mood, share.Count, share.Percent)
			}
			fmt.Fprintln(out, summary.Sentence())
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id to summarise")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
