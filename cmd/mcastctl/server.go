// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"antrea.io/ofnet/ofctrl"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grimm.is/mcastctl/internal/config"
	"grimm.is/mcastctl/internal/controller"
	"grimm.is/mcastctl/internal/logging"
	"grimm.is/mcastctl/internal/metrics"
	"grimm.is/mcastctl/internal/openflow/ofnet"
)

const metricsShutdownTimeout = 5 * time.Second

func runServe(configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger := logging.New(logging.Config{Level: logging.Level(cfg.LogLevel), Timestamp: true})

	registry := prometheus.NewRegistry()
	metricsReg := metrics.NewRegistry(registry)
	metricsSrv := &http.Server{Addr: cfg.MetricsListen, Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{})}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	pool := ofnet.NewPool(logger)
	ctrl := controller.New(logger, pool, metricsReg)

	app := ofnet.NewApp(pool, ctrl, logger)
	ofCtrl := ofctrl.NewController(app)
	go ofCtrl.Listen(cfg.OpenFlowListen)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("mcastctl starting", "openflow_listen", cfg.OpenFlowListen, "metrics_listen", cfg.MetricsListen)
	ctrl.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	defer shutdownCancel()
	return metricsSrv.Shutdown(shutdownCtx)
}
