package openaudit

import (
	"context"
	"fmt"
)

// TopicsService covers /topics.
type TopicsService struct {
	client *Client
}

// List returns the full topic catalog.
func (s *TopicsService) List(ctx context.Context) ([]AuditTopic, error) {
	var topics []AuditTopic
	if err := s.client.get(ctx, "/topics", "/topics", nil, &topics); err != nil {
		return nil, err
	}
	return topics, nil
}

// Get returns a single topic.
func (s *TopicsService) Get(ctx context.Context, id int64) (AuditTopic, error) {
	var topic AuditTopic
	err := s.client.get(ctx, fmt.Sprintf("/topics/%d", id), "/topics/{id}", nil, &topic)
	return topic, err
}

// Analysis returns report coverage for a topic.
func (s *TopicsService) Analysis(ctx context.Context, id int64) (TopicAnalysis, error) {
	var analysis TopicAnalysis
	err := s.client.get(ctx, fmt.Sprintf("/topics/%d/analysis", id), "/topics/{id}/analysis", nil, &analysis)
	return analysis, err
}
