package openaudit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
	Header http.Header
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  http.HandlerFunc
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Body:   body,
		Header: r.Header.Clone(),
	})
	f.mu.Unlock()
	f.handler(w, r)
}

func (f *fakeBackend) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{handler: handler}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL, WithRetryDelay(0))
	require.NoError(t, err)
	return client, backend
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func TestTransactionsListOmitsUnsetFilters(t *testing.T) {
	client, backend := newTestClient(t, jsonHandler(`[]`))

	cases := []struct {
		name   string
		params TransactionListParams
		want   url.Values
	}{
		{name: "none", params: TransactionListParams{}, want: url.Values{}},
		{name: "limit only", params: TransactionListParams{Limit: Int(100)}, want: url.Values{"limit": {"100"}}},
		{name: "empty province dropped", params: TransactionListParams{Province: String(""), Limit: Int(100)}, want: url.Values{"limit": {"100"}}},
		{
			name:   "all set",
			params: TransactionListParams{Skip: Int(0), Limit: Int(100), Year: Int(2015), Province: String("Cebu"), MinAmount: Float64(1000), MaxAmount: Float64(2500.5)},
			want: url.Values{
				"skip": {"0"}, "limit": {"100"}, "year": {"2015"}, "province": {"Cebu"},
				"min_amount": {"1000"}, "max_amount": {"2500.5"},
			},
		},
	}
	for _, tc := range cases {
		_, err := client.Transactions.List(context.Background(), tc.params)
		require.NoError(t, err, tc.name)
	}

	reqs := backend.recorded()
	require.Len(t, reqs, len(cases))
	for i, tc := range cases {
		assert.Equal(t, "/transactions", reqs[i].Path, tc.name)
		assert.Equal(t, tc.want, reqs[i].Query, tc.name)
	}
}

func TestTopLGUsDefaultsLimit(t *testing.T) {
	client, backend := newTestClient(t, jsonHandler(`[]`))

	_, err := client.Transactions.TopLGUs(context.Background(), TopLGUParams{})
	require.NoError(t, err)
	_, err = client.Transactions.TopLGUs(context.Background(), TopLGUParams{Limit: 10, Year: Int(2018)})
	require.NoError(t, err)

	reqs := backend.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, url.Values{"limit": {"20"}}, reqs[0].Query)
	assert.Equal(t, url.Values{"limit": {"10"}, "year": {"2018"}}, reqs[1].Query)
}

func TestStatsKeepsMissingFieldsNil(t *testing.T) {
	client, _ := newTestClient(t, jsonHandler(`{"total_lgus": 1500, "total_reports": 17392, "years_covered": [2010, 2011], "provinces_count": 81}`))

	stats, err := client.Analytics.Stats(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stats.TotalLGUs)
	assert.EqualValues(t, 1500, *stats.TotalLGUs)
	assert.Nil(t, stats.TotalUnliquidatedAmount)
	assert.Equal(t, []int{2010, 2011}, stats.YearsCovered)
}

func TestDecodesDecimalStringsAndZonelessTimestamps(t *testing.T) {
	client, _ := newTestClient(t, jsonHandler(`[{"id": 3, "topic_number": 3, "description": "Cash advances", "terms": "cash advance liquidation", "prevalence": "0.0612", "created_at": "2024-05-01T08:30:00.123456", "updated_at": "2024-05-01T08:30:00Z"}]`))

	topics, err := client.Topics.List(context.Background())
	require.NoError(t, err)
	require.Len(t, topics, 1)
	require.NotNil(t, topics[0].Prevalence)
	assert.Equal(t, "0.0612", topics[0].Prevalence.String())
	assert.Equal(t, 2024, topics[0].CreatedAt.Year())
	assert.Equal(t, time.UTC, topics[0].CreatedAt.Location())
}

func TestGetRetriesOnceOnServerError(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, `{"detail":"temporarily unavailable"}`, http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `[2010, 2011, 2012]`)
	})

	years, err := client.Transactions.Years(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2010, 2011, 2012}, years)
	assert.EqualValues(t, 2, hits.Load())
}

func TestGetGivesUpAfterSingleRetry(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Analytics.YearlyTrends(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindStatus, KindOf(err))
	assert.Equal(t, http.StatusBadGateway, StatusCode(err))
	assert.EqualValues(t, 2, hits.Load())
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"LGU not found"}`)
	})

	_, err := client.LGUs.Get(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.EqualValues(t, 1, hits.Load())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "LGU not found", apiErr.Detail)
	assert.Equal(t, "/lgus/99", apiErr.Path)
	assert.Contains(t, string(apiErr.Body), "LGU not found")
}

func TestAnalyzeIsNotRetriedAndOmitsNilFields(t *testing.T) {
	client, backend := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.LLM.Analyze(context.Background(), AnalysisRequest{LGUID: Int64(12), AnalysisType: "risk_summary"})
	require.Error(t, err)

	reqs := backend.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/llm/analyze", reqs[0].Path)
	assert.Equal(t, "application/json", reqs[0].Header.Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(reqs[0].Body, &body))
	assert.Equal(t, map[string]any{"lgu_id": float64(12), "analysis_type": "risk_summary"}, body)
}

func TestMalformedBodyIsDecodeError(t *testing.T) {
	client, _ := newTestClient(t, jsonHandler(`{"not": "a list"}`))

	_, err := client.LGUs.Provinces(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindDecode, KindOf(err))
}

func TestNetworkFailureIsClassified(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	client, err := NewClient(addr, WithRetryDelay(0))
	require.NoError(t, err)
	err = client.Ping(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestRequestCarriesRequestID(t *testing.T) {
	client, backend := newTestClient(t, jsonHandler(`["Cebu", "Bohol"]`))

	provinces, err := client.LGUs.Provinces(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Cebu", "Bohol"}, provinces)

	reqs := backend.recorded()
	require.Len(t, reqs, 1)
	assert.NotEmpty(t, reqs[0].Header.Get("X-Request-Id"))
	assert.Equal(t, "application/json", reqs[0].Header.Get("Accept"))
}

func TestSearchByNameAndAnalysesParams(t *testing.T) {
	client, backend := newTestClient(t, jsonHandler(`[]`))

	_, err := client.LGUs.SearchByName(context.Background(), "Dumaguete")
	require.NoError(t, err)
	_, err = client.LLM.Analyses(context.Background(), AnalysisListParams{LGUID: Int64(4), AnalysisType: String("")})
	require.NoError(t, err)

	reqs := backend.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, "/lgus/search/by-name", reqs[0].Path)
	assert.Equal(t, url.Values{"name": {"Dumaguete"}}, reqs[0].Query)
	assert.Equal(t, "/llm/analyses", reqs[1].Path)
	assert.Equal(t, url.Values{"lgu_id": {"4"}}, reqs[1].Query)
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	_, err := NewClient("localhost:8000")
	assert.Error(t, err)

	client, err := NewClient("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, client.BaseURL())
}
