package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"royale/internal/config"
	"royale/internal/logging"
	"royale/internal/network"
	"royale/internal/session"
)

const shutdownTimeout = 5 * time.Second

func (c *command) initStartCmd() {
	const (
		optionNameListen        = "listen"
		optionNameMetricsListen = "metrics-listen"
		optionNameVariant       = "variant"
		optionNameLogLevel      = "log-level"
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the match server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}

			// Flags win over the config file; the file fills what the
			// flags leave empty.
			cfgPath := c.cfgFile
			if cfgPath == "" {
				cfgPath = os.Getenv("ROYALE_CONFIG_PATH")
			}
			if cfgPath != "" {
				if err := config.Load(cfgPath); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v, using defaults\n", err)
				}
			}

			levelName, _ := cmd.Flags().GetString(optionNameLogLevel)
			level, err := logrus.ParseLevel(levelName)
			if err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			log := logging.New(os.Stdout, level)

			listenAddr, _ := cmd.Flags().GetString(optionNameListen)
			if listenAddr == "" {
				listenAddr = config.ListenAddr()
			}
			metricsAddr, _ := cmd.Flags().GetString(optionNameMetricsListen)
			if metricsAddr == "" {
				metricsAddr = config.MetricsAddr()
			}
			variant, _ := cmd.Flags().GetString(optionNameVariant)
			if variant == "" {
				variant = config.DefaultVariant()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			hub := network.NewHub(log)
			manager := session.NewManager(session.Options{
				Publisher:    hub,
				Logger:       log,
				TickInterval: time.Second / time.Duration(config.TickRate()),
				SessionTTL:   config.SessionTTL(),
			})

			registry := prometheus.NewRegistry()
			registry.MustRegister(manager.Metrics()...)
			registry.MustRegister(hub.Metrics()...)

			api := newAPI(manager, hub, variant, log)

			apiServer := &http.Server{Addr: listenAddr, Handler: api.router()}
			metricsMux := http.NewServeMux()
			metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
			metricsServer := &http.Server{Addr: metricsAddr, Handler: metricsMux}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				hub.Run(ctx)
				return nil
			})
			g.Go(func() error {
				manager.Run(ctx)
				return nil
			})
			g.Go(func() error {
				log.Info("api listening on %s", listenAddr)
				if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("api server: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				log.Info("metrics listening on %s", metricsAddr)
				if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("metrics server: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				log.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := apiServer.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("api shutdown: %w", err)
				}
				return metricsServer.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}

	cmd.Flags().String(optionNameListen, "", "HTTP listen address for the API and websocket relay (default :8080)")
	cmd.Flags().String(optionNameMetricsListen, "", "Prometheus listen address (default :9090)")
	cmd.Flags().String(optionNameVariant, "", "variant for sessions that name none (default standard)")
	cmd.Flags().String(optionNameLogLevel, "info", "log verbosity: debug, info, warning or error")

	c.root.AddCommand(cmd)
}
