package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"ouvidoria/backend/internal/api/handler"
	"ouvidoria/backend/internal/app"
	"ouvidoria/backend/internal/complaint"
	"ouvidoria/backend/internal/config"
	"ouvidoria/backend/internal/feed"
	"ouvidoria/backend/internal/localization"
	"ouvidoria/backend/internal/metrics"
	"ouvidoria/backend/internal/notify"
	"ouvidoria/backend/internal/protocol"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting complaint registry", "addr", cfg.HTTPAddr)

	// 1. Backends
	deps, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	allocator, err := protocol.New(cfg.ProtocolStrategy)
	if err != nil {
		return err
	}

	// 2. Live feed and notifications
	g, gctx := errgroup.WithContext(ctx)
	hub := feed.NewHub(logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	g.Go(func() error {
		hub.Run(hubCtx)
		return nil
	})

	dispatcher := notify.NewDispatcher(deps.Notifier(hub),
		notify.WithLogger(logger),
		notify.WithMetrics(m),
		notify.WithTimeout(cfg.NotifyTimeout),
	)

	svc := complaint.NewService(deps.Store, deps.Oracle,
		complaint.WithLogger(logger),
		complaint.WithMetrics(m),
		complaint.WithAllocator(allocator),
		complaint.WithNotifier(dispatcher),
	)

	// 3. HTTP
	if cfg.AdminTokenSecret == "" {
		logger.Warn("ADMIN_TOKEN_SECRET is empty, admin routes will reject every request")
	}
	gin.SetMode(gin.ReleaseMode)
	h := handler.NewHandler(svc, hub, localization.Default(), cfg.AdminTokenSecret, logger)
	if cfg.IntakeRatePerMinute > 0 {
		h.IntakeLimiter = handler.NewRateLimiter(cfg.IntakeRatePerMinute, cfg.IntakeBurst)
	}
	router := handler.NewRouter(h, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown incomplete", "error", err)
		}

		// Pending notifications still run against a live hub.
		dispatcher.Wait()
		stopHub()
		return nil
	})

	err = g.Wait()
	logger.Info("complaint registry stopped")
	return err
}
