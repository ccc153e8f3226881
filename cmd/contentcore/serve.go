package main

import (
	"fmt"
	"os"

	"github.com/artpar/contentcore/bootstrap"
	"github.com/artpar/contentcore/config"
	"github.com/spf13/cobra"
)

func newServeCmd(cfgFile *string) *cobra.Command {
	var hotReload bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve health and metrics endpoints",
		Long: `Open the configured store, seed the field catalog, and serve the
operational HTTP endpoints (/healthz, /version, metrics).

Configuration is read from contentcore.yaml (or --config), falling back to
CONTENTCORE_* environment variables when the file does not exist. With a
config file, changes are applied on write and on SIGHUP.

Examples:
  contentcore serve
  contentcore serve --config /etc/contentcore/config.yaml
  CONTENTCORE_STORE_DRIVER=sqlite contentcore serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, statErr := os.Stat(*cfgFile)
			hasConfigFile := statErr == nil

			cfg, err := config.LoadWithFallback(*cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := bootstrap.SetupLogger(cfg.Logging)
			ctx := cmd.Context()

			var holder *config.Holder
			if hasConfigFile && hotReload {
				if holder, err = config.NewHolder(*cfgFile, logger); err != nil {
					return err
				}
				cfg = holder.Get()
			}

			app, err := bootstrap.New(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("initialize: %w", err)
			}

			if holder != nil {
				if err := holder.WatchFile(); err != nil {
					logger.Warn().Err(err).Msg("config file watch disabled")
				}
				holder.WatchSignals()
				defer holder.Stop()
				app.Watch(ctx, holder)
			}

			return app.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
	return cmd
}
