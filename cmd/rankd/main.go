// Package main is the entry point for the ranking service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/tako0614/bunkarium-ranking/internal/api"
	"github.com/tako0614/bunkarium-ranking/internal/config"
	"github.com/tako0614/bunkarium-ranking/internal/exposure"
	"github.com/tako0614/bunkarium-ranking/internal/feed"
	"github.com/tako0614/bunkarium-ranking/internal/middleware"
)

func main() {
	configFile := flag.String("config", "", "path to an optional YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("Bunkarium Ranking Service")
		fmt.Println()
		fmt.Println("Usage: rankd [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configFile)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config error:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	params, err := feed.LoadCalibration(cfg.CalibrationPath)
	if err != nil {
		logger.Warn("continuing with default ranking parameters", "error", err)
	}
	params.FingerprintAlgorithm = cfg.FingerprintAlgorithm

	registry := prometheus.NewRegistry()

	rankMetrics := feed.NewMetrics()
	if err := rankMetrics.Register(registry); err != nil {
		logger.Error("failed to register ranking metrics", "error", err)
		os.Exit(1)
	}
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		logger.Error("failed to register HTTP metrics", "error", err)
		os.Exit(1)
	}

	ranker := feed.NewRanker(params).WithMetrics(rankMetrics)

	var exposures exposure.Provider
	var readinessChecker api.HealthChecker
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		redisProvider := exposure.NewRedisProvider(redis.NewClient(opts), "")
		exposures = redisProvider
		readinessChecker = redisProvider
		logger.Info("using redis exposure provider")
	} else {
		exposures = exposure.NewMemoryProvider()
		logger.Info("using in-memory exposure provider")
	}

	rankHandlers := api.NewRankHandlers(ranker, exposures, cfg.MaxCandidates)
	exposureHandlers := api.NewExposureHandlers(exposures)
	healthHandlers := api.NewHealthHandlers(readinessChecker)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/ready", healthHandlers.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/v1/rank", rankHandlers.Rank)
	mux.HandleFunc("/v1/exposures/", exposureHandlers.Get)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeNotFound)
			api.WriteError(w, ctx, http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		body := fmt.Sprintf(`{"service":%q,"version":%q}`, feed.AlgorithmID, feed.AlgorithmVersion)
		if _, err := w.Write([]byte(body)); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	// Apply middleware: RequestID -> Metrics -> Logging
	handler := middleware.RequestID(
		middleware.HTTPMetrics(httpMetrics)(
			middleware.Logging(logger)(mux)))

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
