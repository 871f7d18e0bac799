package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/repository/catalog"
)

var (
	loadBatch    int
	loadWorkers  int
	loadRecreate bool
)

var loadCmd = &cobra.Command{
	Use:   "load <snapshot.parquet>",
	Short: "Upsert a parquet snapshot into the Redis catalog",
	Long: `Load streams the snapshot in batches, writes each batch as product hashes
with a bounded number of concurrent pipelines, and creates the search index
if it does not exist yet. Invalid rows are skipped and counted. A successful
load stamps a new catalog version, which makes running API processes drop
their cached search results.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().IntVar(&loadBatch, "batch", catalog.DefaultScanBatch, "products per pipeline")
	loadCmd.Flags().IntVar(&loadWorkers, "workers", 4, "concurrent pipelines")
	loadCmd.Flags().BoolVar(&loadRecreate, "recreate-index", false,
		"drop the search index before loading so it is rebuilt with the current schema")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	if loadWorkers < 1 {
		return fmt.Errorf("--workers must be positive, got %d", loadWorkers)
	}
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

	if loadRecreate {
		if err := repo.DropIndex(ctx); err != nil {
			return fmt.Errorf("drop index: %w", err)
		}
		logger.Info("Search index dropped", zap.String("index", repo.IndexName()))
	}
	if err := repo.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}

	start := time.Now()
	rep, written, err := loadSnapshot(ctx, repo, args[0], loadBatch, loadWorkers)
	if err != nil {
		return err
	}

	version, err := repo.BumpVersion(ctx)
	if err != nil {
		return fmt.Errorf("bump catalog version: %w", err)
	}

	logger.Info("Catalog loaded",
		zap.String("path", args[0]),
		zap.String("index", repo.IndexName()),
		zap.String("version", version),
		zap.Int("rows", rep.Rows),
		zap.Int("written", written),
		zap.Int("rejected", rep.Rejected),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

type upserter interface {
	UpsertBatch(ctx context.Context, products []product.Product) error
}

// loadSnapshot fans batches out to at most workers concurrent upserts.
// The first failing upsert cancels the scan.
func loadSnapshot(
	ctx context.Context, dst upserter, path string, batch, workers int,
) (catalog.ScanReport, int, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var written atomic.Int64
	rep, scanErr := catalog.ScanParquet(gctx, path, batch, func(ps []product.Product) error {
		g.Go(func() error {
			if err := dst.UpsertBatch(gctx, ps); err != nil {
				return err
			}
			written.Add(int64(len(ps)))
			return nil
		})
		return nil
	})
	if err := g.Wait(); err != nil {
		return rep, int(written.Load()), fmt.Errorf("upsert: %w", err)
	}
	if scanErr != nil {
		return rep, int(written.Load()), fmt.Errorf("scan %s: %w", path, scanErr)
	}
	return rep, int(written.Load()), nil
}
