package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Easy-Infra-Ltd/deepguard-screener/src/gateway"
	"github.com/Easy-Infra-Ltd/deepguard-screener/src/screener"
)

func newScanCmd(console *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan FILE...",
		Short: "Screen files and report a status for each",
		Long:  "Screen files and report safe, warning or threat for each. Exits 1 when any file is a threat.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			mimeType, _ := cmd.Flags().GetString("type")
			asJSON, _ := cmd.Flags().GetBool("json")

			scr, err := gateway.BuildScreener(cfg.Screening, console)
			if err != nil {
				return err
			}

			files := make([]screener.File, 0, len(args))
			for _, path := range args {
				f, err := screener.OpenFile(path, mimeType)
				if err != nil {
					closeAll(files)
					return err
				}
				files = append(files, f)
			}
			items := scr.ScanBatch(cmd.Context(), files)
			closeAll(files)

			out := cmd.OutOrStdout()
			if asJSON {
				err = writeJSON(out, items)
			} else {
				err = writeText(out, items)
			}
			if err != nil {
				return err
			}

			for _, it := range items {
				if it.Status == screener.StatusThreat {
					return ErrThreatsFound
				}
			}
			return nil
		},
	}

	cmd.Flags().StringP("type", "t", "", "Declared MIME type for every file; derived from the extension when empty")
	cmd.Flags().Bool("json", false, "Print results as JSON")
	return cmd
}

func closeAll(files []screener.File) {
	for _, f := range files {
		if c, ok := f.(io.Closer); ok {
			_ = c.Close()
		}
	}
}

func writeJSON(w io.Writer, items []screener.BatchItem) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return nil
}

func writeText(w io.Writer, items []screener.BatchItem) error {
	for _, it := range items {
		if _, err := fmt.Fprintf(w, "%s: %s (%dms, sha256 %s)\n", it.Name, it.Status, it.Result.ScanTimeMs, it.Result.ContentHash); err != nil {
			return err
		}
		for _, t := range it.Result.Threats {
			fmt.Fprintf(w, "  threat:  %s\n", t)
		}
		for _, warn := range it.Result.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warn)
		}
	}
	return nil
}
