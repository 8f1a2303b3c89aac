package explorer

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openaudit/openaudit-visualizer/internal/openaudit"
	"github.com/openaudit/openaudit-visualizer/internal/query"
	"github.com/openaudit/openaudit-visualizer/internal/view"
)

type backend struct {
	mu           sync.Mutex
	transactions []string
	body         string
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/transactions/years":
		_, _ = io.WriteString(w, `[2014, 2015, 2016]`)
	case "/lgus/provinces":
		_, _ = io.WriteString(w, `["Bohol", "Cebu"]`)
	case "/transactions":
		b.mu.Lock()
		b.transactions = append(b.transactions, r.URL.RawQuery)
		body := b.body
		b.mu.Unlock()
		_, _ = io.WriteString(w, body)
	default:
		http.NotFound(w, r)
	}
}

func (b *backend) transactionQueries() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.transactions...)
}

func newTestRouter(t *testing.T, body string) (http.Handler, *backend) {
	t.Helper()
	fake := &backend{body: body}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := openaudit.NewClient(srv.URL, openaudit.WithRetryDelay(0))
	require.NoError(t, err)
	engine, err := view.NewEngine()
	require.NoError(t, err)

	h := NewHandler(nil, client.Transactions, client.LGUs, query.NewCache(), engine, nil, time.Second)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r, fake
}

const cebuRows = `[{
  "id": 1, "lgu_id": 12, "year": 2015, "amount": "1500000.50",
  "created_at": "2024-01-01T00:00:00", "updated_at": "2024-01-01T00:00:00",
  "lgu": {"id": 12, "name": "Cebu City", "province": "Cebu", "created_at": "2024-01-01T00:00:00", "updated_at": "2024-01-01T00:00:00"}
}]`

func TestExplorerSendsOnlySetFilters(t *testing.T) {
	router, fake := newTestRouter(t, cebuRows)

	req := httptest.NewRequest(http.MethodGet, "/explorer?year=2015&province=Cebu&min_amount=&max_amount=", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	queries := fake.transactionQueries()
	require.Len(t, queries, 1)
	got, err := url.ParseQuery(queries[0])
	require.NoError(t, err)
	assert.Equal(t, url.Values{"year": {"2015"}, "province": {"Cebu"}, "limit": {"100"}}, got)

	body := rr.Body.String()
	assert.Contains(t, body, `href="/lgus/12"`)
	assert.Contains(t, body, "Cebu City")
	assert.Contains(t, body, "₱1,500,000.5")
	assert.Contains(t, body, `<option value="2015" selected>2015</option>`)
	assert.Contains(t, body, `<option value="Cebu" selected>Cebu</option>`)
	assert.Contains(t, body, `aria-current="page"`)
	assert.NotContains(t, body, `http-equiv="refresh"`)
}

func TestExplorerEmptyResult(t *testing.T) {
	router, _ := newTestRouter(t, `[]`)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/explorer", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No transactions found")
	assert.NotContains(t, rr.Body.String(), "<table")
}

func TestExplorerRejectsMalformedNumbers(t *testing.T) {
	router, fake := newTestRouter(t, `[]`)

	for _, target := range []string{
		"/explorer?year=twenty",
		"/explorer?min_amount=abc",
		"/explorer?min_amount=-5",
		"/explorer?year=1800",
		"/explorer?min_amount=500&max_amount=100",
		"/explorer?max_amount=Inf",
		"/explorer?min_amount=NaN",
	} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
		assert.Contains(t, rr.Body.String(), "Invalid", target)
	}
	assert.Empty(t, fake.transactionQueries())
}

func TestExplorerFailedSectionDoesNotBreakPage(t *testing.T) {
	fake := &backend{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/transactions" {
			http.Error(w, `{"detail":"boom"}`, http.StatusInternalServerError)
			return
		}
		fake.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	client, err := openaudit.NewClient(srv.URL, openaudit.WithRetryDelay(0))
	require.NoError(t, err)
	engine, err := view.NewEngine()
	require.NoError(t, err)
	h := NewHandler(nil, client.Transactions, client.LGUs, query.NewCache(), engine, nil, time.Second)

	rr := httptest.NewRecorder()
	h.handleExplorer(rr, httptest.NewRequest(http.MethodGet, "/explorer", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Failed to load transactions.")
	assert.Contains(t, rr.Body.String(), `<option value="Bohol">Bohol</option>`)
}

func TestFiltersParams(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  url.Values
	}{
		{name: "cleared", query: "year=&province=&min_amount=&max_amount=", want: url.Values{"limit": {"100"}}},
		{name: "year only", query: "year=2018", want: url.Values{"limit": {"100"}, "year": {"2018"}}},
		{name: "amount range", query: "min_amount=1000&max_amount=2500.5", want: url.Values{"limit": {"100"}, "min_amount": {"1000"}, "max_amount": {"2500.5"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			values, err := url.ParseQuery(tc.query)
			require.NoError(t, err)
			f, err := ParseFilters(values)
			require.NoError(t, err)
			require.NoError(t, f.Validate(validator.New()))
			assert.Equal(t, tc.want, f.Params().Values())
		})
	}
}

func TestTransactionsKeyTracksFilters(t *testing.T) {
	year := 2015
	a := TransactionsKey(Filters{Year: &year})
	b := TransactionsKey(Filters{})
	assert.NotEqual(t, a, b)
	assert.Equal(t, "transactions?limit=100&year=2015", a.String())
}
