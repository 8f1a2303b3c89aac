package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/openaudit/openaudit-visualizer/internal/analyses"
	analytichttp "github.com/openaudit/openaudit-visualizer/internal/analytics/http"
	"github.com/openaudit/openaudit-visualizer/internal/analytics/ui"
	"github.com/openaudit/openaudit-visualizer/internal/app"
	"github.com/openaudit/openaudit-visualizer/internal/explorer"
	"github.com/openaudit/openaudit-visualizer/internal/lgus"
	"github.com/openaudit/openaudit-visualizer/internal/observability"
	"github.com/openaudit/openaudit-visualizer/internal/openaudit"
	"github.com/openaudit/openaudit-visualizer/internal/platform/cache"
	"github.com/openaudit/openaudit-visualizer/internal/query"
	"github.com/openaudit/openaudit-visualizer/internal/shared"
	"github.com/openaudit/openaudit-visualizer/internal/topics"
	"github.com/openaudit/openaudit-visualizer/internal/view"
	"github.com/openaudit/openaudit-visualizer/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	clientOpts := []openaudit.Option{
		openaudit.WithLogger(logger),
		openaudit.WithRecorder(metrics),
		openaudit.WithRetryDelay(cfg.APIRetryDelay),
	}
	client, err := openaudit.NewClient(cfg.APIURL, append(clientOpts, openaudit.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout}))...)
	if err != nil {
		logger.Error("init api client", slog.Any("error", err))
		os.Exit(1)
	}
	llmClient, err := openaudit.NewClient(cfg.APIURL, append(clientOpts, openaudit.WithHTTPClient(&http.Client{Timeout: cfg.LLMTimeout}))...)
	if err != nil {
		logger.Error("init llm client", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	queries := query.NewCache(query.WithLogger(logger), query.WithRecorder(metrics))

	var (
		submitter analyses.Submitter = analyses.DirectSubmitter{Analyzer: llmClient.LLM}
		jobHandler                   = jobs.NewHandler(nil, logger)
	)
	if cfg.LLMAsync {
		queueOpts := cache.QueueOpts(redisClient)
		jobClient := jobs.NewClient(queueOpts)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		inspector := asynq.NewInspector(queueOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		submitter = analyses.QueueSubmitter{Enqueuer: jobClient}
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	renderers := ui.Renderers{}
	analyticsHandler := analytichttp.NewHandler(logger, client.Analytics, client.Transactions, queries, templates, csrfManager, renderers, renderers, renderers, cfg.AppRenderBudget)
	explorerHandler := explorer.NewHandler(logger, client.Transactions, client.LGUs, queries, templates, csrfManager, cfg.AppRenderBudget)
	topicsHandler := topics.NewHandler(logger, client.Topics, queries, templates, csrfManager, cfg.AppRenderBudget)
	lgusHandler := lgus.NewHandler(logger, client.LGUs, client.LLM, queries, templates, csrfManager, cfg.AppRenderBudget)
	analysesHandler := analyses.NewHandler(logger, client.LLM, submitter, queries, templates, csrfManager,
		analyses.WithDefaultModel(cfg.LLMDefaultModel),
		analyses.WithRenderBudget(cfg.AppRenderBudget),
		analyses.WithSubmitLimit(cfg.LLMSubmitLimit),
	)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Templates:        templates,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		Metrics:          metrics,
		AnalyticsHandler: analyticsHandler,
		ExplorerHandler:  explorerHandler,
		TopicsHandler:    topicsHandler,
		LGUsHandler:      lgusHandler,
		AnalysesHandler:  analysesHandler,
		JobHandler:       jobHandler,
		Readiness: map[string]app.Pinger{
			"api": client,
			"redis": app.PingFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}),
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("api", client.BaseURL()), slog.Bool("llm_async", cfg.LLMAsync))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
