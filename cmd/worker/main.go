package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/openaudit/openaudit-visualizer/internal/app"
	jobmetrics "github.com/openaudit/openaudit-visualizer/internal/jobs"
	"github.com/openaudit/openaudit-visualizer/internal/observability"
	"github.com/openaudit/openaudit-visualizer/internal/openaudit"
	"github.com/openaudit/openaudit-visualizer/internal/platform/cache"
	"github.com/openaudit/openaudit-visualizer/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	llmClient, err := openaudit.NewClient(cfg.APIURL,
		openaudit.WithLogger(logger),
		openaudit.WithRecorder(metrics),
		openaudit.WithHTTPClient(&http.Client{Timeout: cfg.LLMTimeout}),
	)
	if err != nil {
		logger.Error("init llm client", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	queueOpts := cache.QueueOpts(redisClient)
	if err := redisClient.Close(); err != nil {
		logger.Warn("redis close", slog.Any("error", err))
	}

	analyzeJob := jobs.NewAnalyzeJob(llmClient.LLM, logger, jobmetrics.NewMetrics(metrics.Registerer()))

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   queueOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLLMAnalyze, Handler: analyzeJob.Handle},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsAddr := cfg.WorkerMetricsAddr; metricsAddr != "" {
		go func() {
			logger.Info("serving worker metrics", slog.String("addr", metricsAddr))
			if err := http.ListenAndServe(metricsAddr, metrics.Handler()); err != nil {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
