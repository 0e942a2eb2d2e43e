package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/womenconnect/platform/internal/adapters/repository"
	"github.com/womenconnect/platform/internal/adapters/seed"
	service "github.com/womenconnect/platform/internal/app"
	"github.com/womenconnect/platform/internal/config"
	"github.com/womenconnect/platform/pkg/logger"
)

func newImportCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "import <seed-file>...",
		Short: "Import seed files into the configured store",
		Long: `Events are added to the store selected by the server configuration
(WC_CONFIG or --config, then WC_ environment variables). Events whose id
already exists are skipped, so importing a file twice is harmless.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if configPath == "" {
				configPath = os.Getenv(config.EnvConfigFile)
			}
			cfg, err := config.LoadFile(ctx, configPath)
			if err != nil {
				return err
			}
			if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithOutput(cmd.ErrOrStderr())); err != nil {
				return err
			}
			if err := logger.SetLevelString(cfg.LogLevel); err != nil {
				return err
			}

			store, err := repository.Open(ctx, cfg.StoreDriver, cfg.SQLitePath)
			if err != nil {
				return err
			}
			defer store.Close()

			svc := service.New(store, nil, service.WithLogger(logger.Named("import")))
			total := 0
			for _, path := range args {
				events, err := seed.LoadFile(path, time.Local)
				if err != nil {
					return err
				}
				n, err := svc.ImportEvents(ctx, events)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				printf(cmd.OutOrStdout(), "%s: %d new of %d\n", path, n, len(events))
				total += n
			}
			printf(cmd.OutOrStdout(), "imported %d event(s) into %s store\n", total, cfg.StoreDriver)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file (default: $WC_CONFIG)")
	return cmd
}
