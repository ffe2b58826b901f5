// Command ledger runs the competition registration and settlement service.
//
// Usage:
//
//	ledger serve
//	ledger migrate
//	ledger snapshot [--out file]
//	ledger restore --key snapshots/1700000000000.json | --file dump.json
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dosada05/competition-ledger/config"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	root := &cobra.Command{
		Use:           "ledger",
		Short:         "Competition registration & settlement ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd(logger))
	root.AddCommand(migrateCmd(logger))
	root.AddCommand(snapshotCmd(logger))
	root.AddCommand(restoreCmd(logger))

	if err := root.Execute(); err != nil {
		logger.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func serveCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, websocket hub and status scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(logger)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, logger)
		},
	}
}

func migrateCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the key-value table for the sqlite/postgres drivers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(logger)
			if err != nil {
				return err
			}
			kv, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer kv.Close()
			logger.Info("migration complete", slog.String("driver", cfg.StoreDriver))
			return nil
		},
	}
}

func snapshotCmd(logger *slog.Logger) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export all ledger blobs to R2 (or to a local file with --out)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(logger)
			if err != nil {
				return err
			}
			app, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer app.close()

			if out != "" {
				return app.writeSnapshotFile(cmd.Context(), out)
			}
			info, err := app.snapshots.Export(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), info.Key)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the snapshot to this file instead of R2")
	return cmd
}

func restoreCmd(logger *slog.Logger) *cobra.Command {
	var key, file string
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Replace all ledger blobs with a snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (key == "") == (file == "") {
				return fmt.Errorf("exactly one of --key or --file is required")
			}
			cfg, err := loadConfig(logger)
			if err != nil {
				return err
			}
			app, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer app.close()

			if key != "" {
				return app.snapshots.Restore(cmd.Context(), key)
			}
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open snapshot file: %w", err)
			}
			defer f.Close()
			return app.snapshots.RestoreFrom(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "object key of a snapshot in R2")
	cmd.Flags().StringVar(&file, "file", "", "local snapshot file")
	return cmd
}

func loadConfig(logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("store", cfg.StoreDriver))
	return cfg, nil
}
