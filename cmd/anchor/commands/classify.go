package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/anchor/backend/internal/analysis/mood"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "classify TEXT",
		Short:   "Print the mood Anchor hears in TEXT",
		Example: `  anchor classify "I'm so worried about tomorrow"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), mood.Classify(strings.Join(args, " ")))
			return nil
		},
	}
}
