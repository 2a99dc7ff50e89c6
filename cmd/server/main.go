package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/omochice/spectrangle-net/internal/hub"
	"github.com/omochice/spectrangle-net/internal/transport/tcp"
	"github.com/omochice/spectrangle-net/internal/transport/ws"
	"github.com/omochice/spectrangle-net/pkg/config"
	"github.com/omochice/spectrangle-net/pkg/logger"
	"github.com/omochice/spectrangle-net/pkg/metrics"
)

type listener interface {
	Start() error
	Stop()
}

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	tcpAddr := flag.String("tcp", "", "TCP listen address, overrides the config (e.g., :4000)")
	wsAddr := flag.String("ws", "", "WebSocket listen address, overrides the config (e.g., :4001)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *tcpAddr != "" {
		cfg.Server.TCPAddr = *tcpAddr
	}
	if *wsAddr != "" {
		cfg.Server.WSAddr = *wsAddr
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	h := hub.New()

	var servers []listener
	if cfg.Server.TCPAddr != "" {
		servers = append(servers, tcp.New(cfg.Server.TCPAddr, h))
	}
	if cfg.Server.WSAddr != "" {
		servers = append(servers, ws.New(cfg.Server.WSAddr, h))
	}

	errChan := make(chan error, len(servers)+1)
	for _, srv := range servers {
		go func(srv listener) {
			errChan <- srv.Start()
		}(srv)
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsServer = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("metrics server started", zap.String("addr", cfg.Metrics.Addr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			logger.Error("server error", zap.Error(err))
		}
	case sig := <-sigChan:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	for _, srv := range servers {
		srv.Stop()
	}
	h.Close()

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}
