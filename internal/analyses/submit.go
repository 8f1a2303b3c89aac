// Package analyses lists stored LLM analyses and submits new ones.
package analyses

import (
	"context"
	"fmt"

	"github.com/openaudit/openaudit-visualizer/internal/openaudit"
)

// TypeOption is one selectable analysis type.
type TypeOption struct {
	Value string
	Label string
}

// Types lists the analysis types offered by the submit form.
var Types = []TypeOption{
	{Value: "summary", Label: "Summary"},
	{Value: "risk_assessment", Label: "Risk Assessment"},
	{Value: "recommendations", Label: "Recommendations"},
}

// Receipt describes what happened to a submitted request.
type Receipt struct {
	Queued     bool
	TaskID     string
	AnalysisID int64
}

// Submitter hands an analysis request to the backend, now or later.
type Submitter interface {
	Submit(ctx context.Context, req openaudit.AnalysisRequest) (Receipt, error)
}

// Analyzer posts a request to the backend and waits for the stored result.
type Analyzer interface {
	Analyze(ctx context.Context, req openaudit.AnalysisRequest) (openaudit.LLMAnalysis, error)
}

// Enqueuer schedules a request on the background worker.
type Enqueuer interface {
	EnqueueAnalysis(ctx context.Context, req openaudit.AnalysisRequest) (string, error)
}

// DirectSubmitter posts synchronously.
type DirectSubmitter struct {
	Analyzer Analyzer
}

// Submit implements Submitter.
func (s DirectSubmitter) Submit(ctx context.Context, req openaudit.AnalysisRequest) (Receipt, error) {
	analysis, err := s.Analyzer.Analyze(ctx, req)
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{AnalysisID: analysis.ID}, nil
}

// QueueSubmitter enqueues requests for the worker.
type QueueSubmitter struct {
	Enqueuer Enqueuer
}

// Submit implements Submitter.
func (s QueueSubmitter) Submit(ctx context.Context, req openaudit.AnalysisRequest) (Receipt, error) {
	taskID, err := s.Enqueuer.EnqueueAnalysis(ctx, req)
	if err != nil {
		return Receipt{}, fmt.Errorf("enqueue analysis: %w", err)
	}
	return Receipt{Queued: true, TaskID: taskID}, nil
}

// FormData backs partials/analyze_form.html.
type FormData struct {
	CSRFToken string
	LGUID     *int64
	ReportID  *int64
	ReturnTo  string
	Types     []TypeOption
}

// LGUForm prepares the submit form for one LGU.
func LGUForm(csrfToken string, lguID int64, returnTo string) FormData {
	return FormData{CSRFToken: csrfToken, LGUID: &lguID, ReturnTo: returnTo, Types: Types}
}
