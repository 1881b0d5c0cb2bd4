package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Easy-Infra-Ltd/deepguard-screener/src/gateway"
	"github.com/Easy-Infra-Ltd/deepguard-screener/src/logbuffer"
	"github.com/Easy-Infra-Ltd/deepguard-screener/src/metrics"
)

func newServeCmd(console *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the screener as an MCP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			m := metrics.New()
			logs, closer, err := gateway.OpenLogs(ctx, cfg, m, console)
			if err != nil {
				return err
			}
			defer func() {
				if err := closer.Close(); err != nil {
					console.Error("closing log store", "err", err)
				}
			}()

			log := slog.New(logbuffer.Tee(console.Handler(), logs.Handler()))
			return gateway.New(cfg, log, logs, m).Run(ctx)
		},
	}
}
