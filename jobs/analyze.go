package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/openaudit/openaudit-visualizer/internal/jobs"
	"github.com/openaudit/openaudit-visualizer/internal/openaudit"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Analyzer runs one analysis on the backend.
type Analyzer interface {
	Analyze(ctx context.Context, req openaudit.AnalysisRequest) (openaudit.LLMAnalysis, error)
}

// AnalyzeJob executes queued llm:analyze tasks.
type AnalyzeJob struct {
	LLM     Analyzer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewAnalyzeJob wires the analysis handler.
func NewAnalyzeJob(llm Analyzer, logger *slog.Logger, metrics *jobmetrics.Metrics) *AnalyzeJob {
	return &AnalyzeJob{LLM: llm, Logger: logger, Metrics: metrics}
}

// Handle processes one llm:analyze task. Payload errors and backend 4xx
// responses are not retried.
func (j *AnalyzeJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.LLM == nil {
		return errors.New("llm analyze: handler not configured")
	}
	var payload AnalyzePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode analyze payload: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskLLMAnalyze)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(
		slog.String("analysis_type", payload.Request.AnalysisType),
		slog.String("request_id", payload.RequestID),
	)
	if payload.Request.LGUID != nil {
		logger = logger.With(slog.Int64("lgu_id", *payload.Request.LGUID))
	}
	if payload.Request.ReportID != nil {
		logger = logger.With(slog.Int64("report_id", *payload.Request.ReportID))
	}
	logger.Info("starting llm analysis")

	analysis, err := j.LLM.Analyze(ctx, payload.Request)
	if err != nil {
		resultErr = err
		logger.Error("llm analysis failed", slog.Any("error", err))
		var apiErr *openaudit.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= http.StatusBadRequest && apiErr.StatusCode < http.StatusInternalServerError {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	logger.Info("llm analysis stored", slog.Int64("analysis_id", analysis.ID))
	return nil
}

func (j *AnalyzeJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *AnalyzeJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
