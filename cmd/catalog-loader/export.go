package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/repository/catalog"
)

var exportLimit int

var exportCmd = &cobra.Command{
	Use:   "export <snapshot.parquet>",
	Short: "Write the Redis catalog to a parquet snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx := cmd.Context()
		repo, store, err := openCatalog(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		products, err := repo.List(ctx, exportLimit)
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		if err := catalog.WriteParquet(args[0], products); err != nil {
			return err
		}
		logger.Info("Catalog exported", zap.String("path", args[0]), zap.Int("products", len(products)))
		return nil
	},
}

func init() {
	// RediSearch caps result windows at MAXSEARCHRESULTS (10000 by default).
	exportCmd.Flags().IntVar(&exportLimit, "limit", 10000, "maximum products to export")
	rootCmd.AddCommand(exportCmd)
}
