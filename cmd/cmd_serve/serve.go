// file: gate/cmd/cmd_serve/serve.go
package cmd_serve

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rskv-p/gate"
	"github.com/rskv-p/gate/config"
	"github.com/rskv-p/gate/pkg/x_log"
)

var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromEnv()
		if err != nil {
			x_log.Error().Err(err).Msg("configuration error")
			return err
		}

		g, err := gate.New(cfg)
		if err != nil {
			x_log.Error().Err(err).Msg("startup failed")
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := g.Run(ctx); err != nil {
			x_log.Error().Err(err).Msg("gateway exited with error")
			return err
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}
