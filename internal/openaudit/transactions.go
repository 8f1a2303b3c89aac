package openaudit

import "context"

// TransactionsService covers /transactions.
type TransactionsService struct {
	client *Client
}

// List returns transactions matching the filter, each with its LGU embedded.
func (s *TransactionsService) List(ctx context.Context, params TransactionListParams) ([]UnliquidatedTransaction, error) {
	var txs []UnliquidatedTransaction
	if err := s.client.get(ctx, "/transactions", "/transactions", params.Values(), &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// Years returns the years that have transactions.
func (s *TransactionsService) Years(ctx context.Context) ([]int, error) {
	var years []int
	if err := s.client.get(ctx, "/transactions/years", "/transactions/years", nil, &years); err != nil {
		return nil, err
	}
	return years, nil
}

// AggregateByYear returns totals per year.
func (s *TransactionsService) AggregateByYear(ctx context.Context) ([]YearlyAggregate, error) {
	var rows []YearlyAggregate
	if err := s.client.get(ctx, "/transactions/aggregate/by-year", "/transactions/aggregate/by-year", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// AggregateByProvince returns totals per province, optionally for one year.
func (s *TransactionsService) AggregateByProvince(ctx context.Context, year *int) ([]ProvinceAggregate, error) {
	var rows []ProvinceAggregate
	if err := s.client.get(ctx, "/transactions/aggregate/by-province", "/transactions/aggregate/by-province", YearParam(year), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// TopLGUs returns LGUs ranked by total unliquidated amount, descending.
func (s *TransactionsService) TopLGUs(ctx context.Context, params TopLGUParams) ([]TopLGU, error) {
	var rows []TopLGU
	if err := s.client.get(ctx, "/transactions/top-lgus", "/transactions/top-lgus", params.Values(), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
