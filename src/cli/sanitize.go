package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Easy-Infra-Ltd/deepguard-screener/src/screener"
)

func newSanitizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sanitize NAME",
		Short: "Print a storage-safe version of a file name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), screener.SanitizeFileName(args[0]))
			return err
		},
	}
}
