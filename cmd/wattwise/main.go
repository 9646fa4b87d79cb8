package main

import (
	"context"
	goflag "flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/gridlens/wattwise/pkg/wattwise/clock"
	"github.com/gridlens/wattwise/pkg/wattwise/config"
	"github.com/gridlens/wattwise/pkg/wattwise/corpus"
	"github.com/gridlens/wattwise/pkg/wattwise/directory"
	"github.com/gridlens/wattwise/pkg/wattwise/query"
	"github.com/gridlens/wattwise/pkg/wattwise/server"
	"github.com/gridlens/wattwise/pkg/wattwise/store"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "wattwise",
		Short:        "Energy, cost, and carbon dashboard backend for compute workloads",
		SilenceUsage: true,
	}

	klogFlags := goflag.NewFlagSet("klog", goflag.ContinueOnError)
	klog.InitFlags(klogFlags)
	root.PersistentFlags().AddGoFlagSet(klogFlags)

	root.AddCommand(newSeedCommand())
	root.AddCommand(newServeCommand())
	return root
}

func newSeedCommand() *cobra.Command {
	var (
		days      int
		seed      int64
		batchSize int
		workers   int
		dbPath    string
		dirPath   string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a synthetic historical corpus and load it into the store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}
			applyOverride(&cfg.Corpus.Days, days)
			applyOverride(&cfg.Corpus.BatchSize, batchSize)
			applyOverride(&cfg.Corpus.Workers, workers)
			if seed != 0 {
				cfg.Corpus.Seed = seed
			}
			if dbPath != "" {
				cfg.Store.DatabasePath = dbPath
			}
			if dirPath != "" {
				cfg.Directory.Path = dirPath
			}

			src, err := resolveDirectory(cfg)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			builder := corpus.New(corpus.Config{
				Days:      cfg.Corpus.Days,
				Seed:      cfg.Corpus.Seed,
				BatchSize: cfg.Corpus.BatchSize,
				Workers:   cfg.Corpus.Workers,
				Owners:    src.Owners(),
				Zones:     src.Zones(),
			}, st, clock.Real{})

			report, err := builder.Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("generated %d records over %d days; inserted %d/%d (%d batches, %d failed)\n",
				report.Generated, cfg.Corpus.Days, report.Inserted, report.Generated,
				report.Batches, report.FailedBatches)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "historical days to synthesize (default from CORPUS_DAYS)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed (default from CORPUS_SEED)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "sink delivery batch size")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent per-day generation workers")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (empty uses in-memory store)")
	cmd.Flags().StringVar(&dirPath, "directory", "", "identity/zone directory YAML file")
	return cmd
}

func newServeCommand() *cobra.Command {
	var (
		listenAddr string
		dbPath     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard forecast API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}
			if listenAddr != "" {
				cfg.Server.ListenAddr = listenAddr
			}
			if dbPath != "" {
				cfg.Store.DatabasePath = dbPath
			}

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			svc := query.NewService(st, clock.Real{}, cfg.Server.CacheTTL)
			defer svc.Close()

			srv := &http.Server{
				Addr:    cfg.Server.ListenAddr,
				Handler: server.New(svc, cfg.Server.RequestTimeout, cfg.Server.MetricsEnabled),
			}

			errCh := make(chan error, 1)
			go func() {
				klog.InfoS("Serving dashboard API", "addr", cfg.Server.ListenAddr)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			stopCh := make(chan os.Signal, 1)
			signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-stopCh:
				klog.InfoS("Shutting down", "signal", sig.String())
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (default from SERVER_LISTEN_ADDR)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (empty uses in-memory store)")
	return cmd
}

func resolveDirectory(cfg *config.Config) (directory.Source, error) {
	if cfg.Directory.Path != "" {
		return directory.LoadFromFile(cfg.Directory.Path)
	}
	return directory.NewStatic(cfg.Directory.Owners, cfg.Directory.Zones), nil
}

func openStore(cfg *config.Config) (store.RecordStore, error) {
	if cfg.Store.DatabasePath == "" {
		klog.V(2).InfoS("No database path configured, using in-memory store")
		return store.NewMemoryStore(), nil
	}
	return store.OpenSQLite(cfg.Store.DatabasePath)
}

func applyOverride(target *int, v int) {
	if v > 0 {
		*target = v
	}
}
