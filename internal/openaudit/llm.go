package openaudit

import (
	"context"
	"fmt"
)

// LLMService covers /llm.
type LLMService struct {
	client *Client
}

// Analyze submits an analysis request. It is never retried.
func (s *LLMService) Analyze(ctx context.Context, req AnalysisRequest) (LLMAnalysis, error) {
	var analysis LLMAnalysis
	err := s.client.post(ctx, "/llm/analyze", req, &analysis)
	return analysis, err
}

// Analyses lists stored analyses, newest first.
func (s *LLMService) Analyses(ctx context.Context, params AnalysisListParams) ([]LLMAnalysis, error) {
	var rows []LLMAnalysis
	if err := s.client.get(ctx, "/llm/analyses", "/llm/analyses", params.Values(), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Analysis returns one stored analysis.
func (s *LLMService) Analysis(ctx context.Context, id int64) (LLMAnalysis, error) {
	var analysis LLMAnalysis
	err := s.client.get(ctx, fmt.Sprintf("/llm/analyses/%d", id), "/llm/analyses/{id}", nil, &analysis)
	return analysis, err
}
