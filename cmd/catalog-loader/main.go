// Command catalog-loader imports parquet catalog snapshots into the Redis catalog
// and exports them back.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/config"
	dbRedis "github.com/kailas-cloud/prodsearch/internal/db/redis"
	logpkg "github.com/kailas-cloud/prodsearch/internal/logger"
	"github.com/kailas-cloud/prodsearch/internal/repository/catalog"
	"github.com/kailas-cloud/prodsearch/internal/version"
)

var (
	envName  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "catalog-loader",
	Short:         "Import and export prodsearch catalog snapshots",
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", config.GetEnv(), "config environment (config/<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "catalog-loader:", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	return logpkg.New(envName, logLevel)
}

// openCatalog connects to the configured Redis catalog. The caller closes the store.
func openCatalog(ctx context.Context) (*catalog.Repo, *dbRedis.Store, error) {
	cfg, err := config.Load(envName)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.Driver != config.DriverRedis {
		return nil, nil, fmt.Errorf("catalog-loader needs the %q driver, config has %q", config.DriverRedis, cfg.Database.Driver)
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	if err := store.WaitForReady(ctx, cfg.Database.ReadinessWait()); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("database not ready: %w", err)
	}
	return catalog.New(store, cfg.Storage.KeyPrefix), store, nil
}
