package lgus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openaudit/openaudit-visualizer/internal/openaudit"
	"github.com/openaudit/openaudit-visualizer/internal/query"
	"github.com/openaudit/openaudit-visualizer/internal/shared"
	"github.com/openaudit/openaudit-visualizer/internal/view"
)

type stubAPI struct {
	mu       sync.Mutex
	searches []string
	lists    []openaudit.LGUListParams
	rows     []openaudit.LocalGovernment
	detail   map[int64]openaudit.LGUDetail
}

func (s *stubAPI) List(ctx context.Context, params openaudit.LGUListParams) ([]openaudit.LocalGovernment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists = append(s.lists, params)
	return s.rows, nil
}

func (s *stubAPI) Provinces(ctx context.Context) ([]string, error) {
	return []string{"Bohol", "Cebu"}, nil
}

func (s *stubAPI) Get(ctx context.Context, id int64) (openaudit.LGUDetail, error) {
	if d, ok := s.detail[id]; ok {
		return d, nil
	}
	return openaudit.LGUDetail{}, &openaudit.APIError{Method: http.MethodGet, Path: "/lgus", StatusCode: http.StatusNotFound, Detail: "LGU not found"}
}

func (s *stubAPI) SearchByName(ctx context.Context, name string) ([]openaudit.LocalGovernment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches = append(s.searches, name)
	return s.rows, nil
}

type stubAnalyses struct {
	params []openaudit.AnalysisListParams
}

func (s *stubAnalyses) Analyses(ctx context.Context, params openaudit.AnalysisListParams) ([]openaudit.LLMAnalysis, error) {
	s.params = append(s.params, params)
	lgu := int64(12)
	return []openaudit.LLMAnalysis{{ID: 3, LGUID: &lgu, AnalysisType: "risk_assessment"}}, nil
}

func newRouter(t *testing.T, api API, llm AnalysesAPI) http.Handler {
	t.Helper()
	engine, err := view.NewEngine()
	require.NoError(t, err)
	r := chi.NewRouter()
	NewHandler(nil, api, llm, query.NewCache(), engine, shared.NewCSRFManager("secret"), time.Second).MountRoutes(r)
	return r
}

func cebu() []openaudit.LocalGovernment {
	province := "Cebu"
	return []openaudit.LocalGovernment{{ID: 12, Name: "Cebu City", Province: &province}}
}

func TestSearchRequiresTwoCharacters(t *testing.T) {
	api := &stubAPI{rows: cebu()}
	router := newRouter(t, api, &stubAnalyses{})

	for _, target := range []string{"/lgus/search?name=C", "/lgus/search?name=%20%20", "/lgus/search"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
		assert.Contains(t, rr.Body.String(), "Enter at least 2 characters", target)
	}
	assert.Empty(t, api.searches)
}

func TestSearchByName(t *testing.T) {
	api := &stubAPI{rows: cebu()}
	router := newRouter(t, api, &stubAnalyses{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/lgus/search?name=Ceb", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"Ceb"}, api.searches)
	assert.Contains(t, rr.Body.String(), `href="/lgus/12"`)
	assert.Contains(t, rr.Body.String(), "Results for &#34;Ceb&#34;")
}

func TestListByProvincePaginates(t *testing.T) {
	rows := make([]openaudit.LocalGovernment, shared.DefaultPerPage)
	for i := range rows {
		rows[i] = openaudit.LocalGovernment{ID: int64(i + 1), Name: "LGU"}
	}
	api := &stubAPI{rows: rows}
	router := newRouter(t, api, &stubAnalyses{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/lgus?province=Cebu&page=3", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	require.Len(t, api.lists, 1)
	got := api.lists[0].Values()
	assert.Equal(t, "40", got.Get("skip"))
	assert.Equal(t, "20", got.Get("limit"))
	assert.Equal(t, "Cebu", got.Get("province"))

	body := rr.Body.String()
	assert.Contains(t, body, "LGUs in Cebu")
	assert.Contains(t, body, `<option value="Cebu" selected>Cebu</option>`)
	assert.Contains(t, body, "/lgus?page=4&amp;province=Cebu")
	assert.Contains(t, body, "/lgus?page=2&amp;province=Cebu")
}

func TestDetailShowsProfileAndAnalysisForm(t *testing.T) {
	province := "Cebu"
	findings := strings.Repeat("Cash advances were not liquidated. ", 10)
	api := &stubAPI{detail: map[int64]openaudit.LGUDetail{12: {
		LGU:               openaudit.LocalGovernment{ID: 12, Name: "Cebu City", Province: &province},
		TotalUnliquidated: decimal.RequireFromString("2500000"),
		YearsWithData:     []int{2014, 2015},
		Transactions:      []openaudit.UnliquidatedTransaction{{ID: 1, LGUID: 12, Year: 2015, Amount: decimal.RequireFromString("2500000")}},
		Reports:           []openaudit.AuditReport{{ID: 9, LGUID: 12, Year: 2015, ReportType: "AAR", FindingsText: &findings}},
	}}}
	llm := &stubAnalyses{}
	router := newRouter(t, api, llm)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/lgus/12", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, "<title>Cebu City · OpenAudit Visualizer</title>")
	assert.Contains(t, body, "₱2,500,000")
	assert.Contains(t, body, "2014, 2015")
	assert.Contains(t, body, "Risk Assessment")
	assert.Contains(t, body, `action="/analyses"`)
	assert.Contains(t, body, `name="lgu_id" value="12"`)
	assert.Contains(t, body, `name="return_to" value="/lgus/12"`)
	assert.Contains(t, body, "Analyze with LLM")

	require.Len(t, llm.params, 1)
	assert.Equal(t, "12", llm.params[0].Values().Get("lgu_id"))
}

func TestDetailNotFound(t *testing.T) {
	router := newRouter(t, &stubAPI{}, &stubAnalyses{})
	for _, target := range []string{"/lgus/99", "/lgus/0"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusNotFound, rr.Code, target)
		assert.Contains(t, rr.Body.String(), "LGU not found", target)
	}
}
