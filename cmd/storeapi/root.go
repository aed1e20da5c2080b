package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pagelines/storeapi/common"
	"github.com/pagelines/storeapi/modules/plapi"
)

var cfgFile string

// app holds what every subcommand needs, built once in PersistentPreRunE.
type app struct {
	cfg    *common.Config
	logger *slog.Logger
	client plapi.APIClient
}

var current *app

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "storeapi",
	Short: "Store API feed and cache tool",
	Long: `storeapi fetches the store item feed and manages the API cache.

Most useful with the redis cache backend, since the memory backend only
lives for the duration of one command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := common.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		logger := common.NewLogger(os.Stderr, cfg.LogLevel)

		store, err := common.NewCacheStoreFromConfig(cmd.Context(), cfg.Cache, logger)
		if err != nil {
			return err
		}
		current = &app{
			cfg:    cfg,
			logger: logger,
			client: plapi.NewAPIClientFromConfig(cfg, store, logger),
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if current != nil {
			current.client.CloseIdleConnections()
		}
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")

	rootCmd.AddCommand(newLatestCmd())
	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newFlushDraftsCmd())
}
