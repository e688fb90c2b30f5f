package cmd

import (
	"context"
	"fmt"

	"tilesheet-manager/core/config"
	"tilesheet-manager/core/logger"
	"tilesheet-manager/core/registry"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// familiesCmd lists the tilesheet families known to the registry.
var familiesCmd = &cobra.Command{
	Use:   "families",
	Short: "List tilesheet families registered remotely",
	RunE:  runFamilies,
}

func init() {
	RootCmd.AddCommand(familiesCmd)
}

func runFamilies(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	reg, err := registry.NewClient(cfg.Registry)
	if err != nil {
		return fmt.Errorf("failed to create registry client: %w", err)
	}

	families, err := reg.ListFamilies(context.Background())
	if err != nil {
		return err
	}
	for _, f := range families {
		l.Info("family", zap.String("name", f.Name), zap.Ints("sizes", f.Sizes))
	}
	l.Info("listed families", zap.Int("count", len(families)))
	return nil
}
