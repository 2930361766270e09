package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mindmate/respcache"
	"github.com/mindmate/respcache/apiclient"
	"github.com/mindmate/respcache/debugserver"
	"github.com/mindmate/respcache/metrics"
	"github.com/mindmate/respcache/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	var warm []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the cache with its metrics and debug endpoints until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			logger := cfg.Log.NewLogger(os.Stderr)

			var (
				m        types.Metrics
				gatherer prometheus.Gatherer
				reg      *prometheus.Registry
			)
			if cfg.Metrics.Enabled {
				reg = prometheus.NewRegistry()
				reg.MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				)
				m = metrics.NewPrometheus(reg, cfg.Metrics.Namespace)
				gatherer = reg
			}

			cache := respcache.New(cfg.CacheConfig(nil, logger, m))
			defer cache.Close()
			if reg != nil {
				metrics.RegisterSizeGauge(reg, cfg.Metrics.Namespace, cache)
			}

			client, err := apiclient.New(cfg.ClientConfig(), cache, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			for _, path := range warm {
				q := client.Get(ctx, path, nil)
				go func(path string) {
					if _, err := q.Wait(ctx); err != nil {
						logger.Warn("warm-up failed", "path", path, "error", err)
					}
				}(path)
			}

			if !cfg.Debug.Enabled {
				logger.Info("cache running, debug server disabled")
				<-ctx.Done()
				return nil
			}

			srv := debugserver.New(cfg.Debug.Addr, cache, gatherer, logger)
			errc := make(chan error, 1)
			go func() { errc <- srv.Start() }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringSliceVar(&warm, "warm", nil, "API paths to prefetch into the cache at startup")
	return cmd
}
