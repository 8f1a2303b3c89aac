package openaudit

import "context"

// AnalyticsService covers /analytics.
type AnalyticsService struct {
	client *Client
}

// Stats returns the global aggregate snapshot.
func (s *AnalyticsService) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.client.get(ctx, "/analytics/stats", "/analytics/stats", nil, &stats)
	return stats, err
}

// YearlyTrends returns the per-year trend series ordered by year.
func (s *AnalyticsService) YearlyTrends(ctx context.Context) ([]YearlyTrend, error) {
	var rows []YearlyTrend
	if err := s.client.get(ctx, "/analytics/trends/yearly", "/analytics/trends/yearly", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// AmountDistribution returns transaction counts per amount bucket.
func (s *AnalyticsService) AmountDistribution(ctx context.Context) ([]AmountRange, error) {
	var rows []AmountRange
	if err := s.client.get(ctx, "/analytics/distribution/amount-ranges", "/analytics/distribution/amount-ranges", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ProvinceYearHeatmap returns totals per province and year.
func (s *AnalyticsService) ProvinceYearHeatmap(ctx context.Context) ([]HeatmapCell, error) {
	var rows []HeatmapCell
	if err := s.client.get(ctx, "/analytics/heatmap/province-year", "/analytics/heatmap/province-year", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
