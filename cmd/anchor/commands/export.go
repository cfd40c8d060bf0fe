package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/anchor/backend/internal/service/backup"
)

func newExportCmd(load appFactory) *cobra.Command {
	var (
		userID string
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's memories as json or csv",
		Long: `Export writes the same file POST /backup-memories returns and marks the
memories as backed up. Without --out the file is named anchor-memories-<date>.<ext>;
--out - writes to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			file, err := a.Backup.Backup(cmd.Context(), userID, backup.ParseFormat(format))
			if err != nil {
				return err
			}

			if out == "-" {
				_, err := cmd.OutOrStdout().Write(file.Data)
				return err
			}
			if out == "" {
				out = file.Filename
			}
			if err := os.WriteFile(out, file.Data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d memories to %s\n", file.Count, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id whose memories are exported")
	cmd.Flags().StringVar(&format, "format", "json", "json or csv")
	cmd.Flags().StringVar(&out, "out", "", "output path, - for stdout")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
