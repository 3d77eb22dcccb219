package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/ticketvault/internal/logging"
	"github.com/dmitrijs2005/ticketvault/internal/server"
	"github.com/dmitrijs2005/ticketvault/internal/server/config"
)

type storeFlags struct {
	configPath string
	envFile    string
	logLevel   string
}

func (f *storeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "Server JSON config file")
	cmd.Flags().StringVar(&f.envFile, "env-file", "", "dotenv file (defaults to ./.env when present)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Override the configured log level")
}

// open loads the server configuration the same way the server does and
// connects its stores.
func (f *storeFlags) open(cmd *cobra.Command) (*config.Config, *server.Stores, logging.Logger, error) {
	var args []string
	if f.configPath != "" {
		args = append(args, "-config", f.configPath)
	}
	if f.envFile != "" {
		args = append(args, "-env-file", f.envFile)
	}

	cfg, err := config.Load(args)
	if err != nil {
		return nil, nil, nil, err
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}

	logger := logging.NewJSON(cmd.ErrOrStderr(), logging.ParseLevel(cfg.LogLevel))
	stores, err := server.OpenStores(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, stores, logger, nil
}

func sweepCmd() *cobra.Command {
	var f storeFlags
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete every expired ticket once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, stores, logger, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer stores.Close()

			res, err := server.NewSweepService(cfg, stores, logger).RunExpirySweep(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Scanned %d expired ticket(s) in %d batch(es), %d failed\n",
				res.Scanned, res.Batches, res.Failed)
			return err
		},
	}
	f.register(cmd)
	return cmd
}

func migrateCmd() *cobra.Command {
	var f storeFlags
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, stores, _, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer stores.Close()

			if err := stores.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			return nil
		},
	}
	f.register(cmd)
	return cmd
}
