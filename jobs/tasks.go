package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/openaudit/openaudit-visualizer/internal/openaudit"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLLMAnalyze runs a stored LLM analysis against the backend.
	TaskLLMAnalyze = "llm:analyze"
)

// analyzeTimeout bounds a single analysis; model calls are slow.
const analyzeTimeout = 5 * time.Minute

// AnalyzePayload carries an analysis request through the queue.
type AnalyzePayload struct {
	Request   openaudit.AnalysisRequest `json:"request"`
	RequestID string                    `json:"request_id,omitempty"`
}

// NewAnalyzeTask constructs an llm:analyze task. The backend call is not
// idempotent, so the task is never retried.
func NewAnalyzeTask(payload AnalyzePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode analyze payload: %w", err)
	}
	return asynq.NewTask(TaskLLMAnalyze, data,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(0),
		asynq.Timeout(analyzeTimeout),
	), nil
}
