package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/aretw0/stategraph/internal/cli"
	"github.com/aretw0/stategraph/internal/httpapi"
	"github.com/aretw0/stategraph/internal/metrics"
	"github.com/aretw0/stategraph/pkg/checkpoint"
	"github.com/aretw0/stategraph/pkg/dsl"
	"github.com/aretw0/stategraph/pkg/graph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve <graph-dir>",
	Short: "Serve every *.yaml graph in a directory over HTTP",
	Long:  `Loads every *.yaml graph definition in graph-dir, keyed by filename, and exposes the invoke/stream/state/history/render endpoints for each.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		store, err := cli.BuildStore(cfg.Checkpoint)
		if err != nil {
			return err
		}

		graphs, err := loadGraphSet(args[0], store)
		if err != nil {
			return err
		}
		logger.Info("loaded graphs", "count", len(graphs))

		var opts []httpapi.Option
		if locker, ttl, err := cli.BuildLocker(cfg.Checkpoint); err != nil {
			return err
		} else if locker != nil {
			opts = append(opts, httpapi.WithLocker(locker, ttl))
			logger.Info("distributed locking enabled", "prefix", cfg.Checkpoint.Prefix, "ttl", ttl)
		}
		if cfg.Metrics.Enabled {
			collectors := metrics.New(prometheus.DefaultRegisterer)
			opts = append(opts, httpapi.WithHooks(collectors.Hooks()))

			go func() {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				logger.Info("starting metrics server", "addr", cfg.Metrics.Addr)
				if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil && err != http.ErrServerClosed {
					logger.Error("metrics server failed", "err", err)
				}
			}()
		}

		handler := httpapi.NewHandler(graphs, logger, opts...)
		srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting graphctl server", "addr", cfg.HTTP.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				srv.Close()
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}
			logger.Info("server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// loadGraphSet compiles every *.yaml file directly under dir into a
// StaticGraphSet keyed by filename without extension, sharing one
// checkpoint store across all of them.
func loadGraphSet(dir string, store checkpoint.Store) (httpapi.StaticGraphSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("serve: read %s: %w", dir, err)
	}

	set := httpapi.StaticGraphSet{}
	reg := dsl.NewRegistry()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		path := filepath.Join(dir, entry.Name())

		g, err := dsl.Load(path, reg)
		if err != nil {
			return nil, fmt.Errorf("serve: load %s: %w", path, err)
		}
		cg, err := g.Compile(graph.CompileConfig{CheckpointStore: store})
		if err != nil {
			return nil, fmt.Errorf("serve: compile %s: %w", path, err)
		}
		set[name] = cg
	}
	return set, nil
}
