package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"tilesheet-manager/core/config"
	"tilesheet-manager/core/logger"
	"tilesheet-manager/core/registry"
	"tilesheet-manager/core/storage"
	"tilesheet-manager/feature/tilesheet"

	"github.com/spf13/cobra"
)

// updateCmd runs one reconciliation for a tilesheet family.
var updateCmd = &cobra.Command{
	Use:   "update <family>",
	Short: "Reconcile a tilesheet family against the registry",
	Long: `Reconcile a tilesheet family: diff the local source images against the
remote registry, write the additions/missing/to-delete inspection lists,
and after confirmation compose and publish the updated sheets.

The run stops at the confirmation gate until 'continue' is typed; nothing
is committed to the registry before that. Source images live under
<root>/<family>/ as PNG files; a '<family> renames.txt' file of old=new
lines remaps or (with an empty new name) ignores individual files.

Examples:
  # Reconcile the "Blocks" family
  tilesheet-manager update Blocks`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	RootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	family := args[0]

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Connect to the registry
	reg, err := registry.NewClient(cfg.Registry)
	if err != nil {
		return fmt.Errorf("failed to create registry client: %w", err)
	}

	// Connect to the sheet archive when configured
	var archive storage.Client
	if cfg.Storage.Enabled {
		archive, err = storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
	}

	var optimizer tilesheet.Optimizer
	if cfg.Tilesheet.Optimizer != "" {
		optimizer = tilesheet.NewExecOptimizer(cfg.Tilesheet.Optimizer)
	}

	manager := tilesheet.NewManager(tilesheet.ManagerOptions{
		Family:        family,
		Config:        cfg.Tilesheet,
		Logger:        l,
		Registry:      reg,
		Archive:       archive,
		ArchiveBucket: cfg.Storage.Bucket,
		Confirmer:     tilesheet.NewStdioConfirmer(os.Stdin, os.Stdout),
		Optimizer:     optimizer,
	})

	if err := manager.Run(ctx); err != nil {
		if errors.Is(err, tilesheet.ErrAborted) {
			l.Warn("Run aborted by user. No changes were made.")
			return nil
		}
		return err
	}
	return nil
}
