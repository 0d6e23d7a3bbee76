package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"todo-tree/app"
	"todo-tree/app/config"
	"todo-tree/app/logger"
)

// Set at build time with -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	logLevel   string
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "todo-server",
		Short:         "Two-level todo hierarchy service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: todo.yaml, todo.yml or todo.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd(), migrateCmd(), versionCmd())
	return rootCmd
}

// loadConfig reads the configuration and installs the process logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	logger.SetDefault(logger.New(cfg.Log))
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := app.New(ctx, *cfg)
			if err != nil {
				logger.CLI().Error(err).Msg("failed to start")
				return err
			}
			return srv.Run(ctx)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema for the configured storage driver",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			storage, err := app.OpenStorage(cmd.Context(), *cfg, true)
			if err != nil {
				logger.CLI().Error(err).Str("driver", cfg.Storage.Driver).Msg("migration failed")
				return err
			}
			return storage.Close()
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "todo-server version %s\n", Version)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
		},
	}
}
