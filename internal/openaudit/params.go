package openaudit

import (
	"net/url"
	"strconv"
	"strings"
)

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

// LGUListParams filters GET /lgus.
type LGUListParams struct {
	Skip     *int
	Limit    *int
	Province *string
}

// Values encodes the set parameters.
func (p LGUListParams) Values() url.Values {
	v := url.Values{}
	setInt(v, "skip", p.Skip)
	setInt(v, "limit", p.Limit)
	setString(v, "province", p.Province)
	return v
}

// TransactionListParams filters GET /transactions.
type TransactionListParams struct {
	Skip      *int
	Limit     *int
	Year      *int
	Province  *string
	MinAmount *float64
	MaxAmount *float64
}

// Values encodes the set parameters.
func (p TransactionListParams) Values() url.Values {
	v := url.Values{}
	setInt(v, "skip", p.Skip)
	setInt(v, "limit", p.Limit)
	setInt(v, "year", p.Year)
	setString(v, "province", p.Province)
	setFloat(v, "min_amount", p.MinAmount)
	setFloat(v, "max_amount", p.MaxAmount)
	return v
}

// TopLGUParams filters GET /transactions/top-lgus.
type TopLGUParams struct {
	Limit int
	Year  *int
}

// DefaultTopLGULimit is used when Limit is not positive.
const DefaultTopLGULimit = 20

// Values encodes the parameters; limit is always sent.
func (p TopLGUParams) Values() url.Values {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultTopLGULimit
	}
	v := url.Values{}
	v.Set("limit", strconv.Itoa(limit))
	setInt(v, "year", p.Year)
	return v
}

// AnalysisListParams filters GET /llm/analyses.
type AnalysisListParams struct {
	LGUID        *int64
	ReportID     *int64
	AnalysisType *string
	Skip         *int
	Limit        *int
}

// Values encodes the set parameters.
func (p AnalysisListParams) Values() url.Values {
	v := url.Values{}
	setInt64(v, "lgu_id", p.LGUID)
	setInt64(v, "report_id", p.ReportID)
	setString(v, "analysis_type", p.AnalysisType)
	setInt(v, "skip", p.Skip)
	setInt(v, "limit", p.Limit)
	return v
}

// YearParam encodes an optional year filter.
func YearParam(year *int) url.Values {
	v := url.Values{}
	setInt(v, "year", year)
	return v
}

func setInt(v url.Values, key string, value *int) {
	if value != nil {
		v.Set(key, strconv.Itoa(*value))
	}
}

func setInt64(v url.Values, key string, value *int64) {
	if value != nil {
		v.Set(key, strconv.FormatInt(*value, 10))
	}
}

func setFloat(v url.Values, key string, value *float64) {
	if value != nil {
		v.Set(key, strconv.FormatFloat(*value, 'f', -1, 64))
	}
}

func setString(v url.Values, key string, value *string) {
	if value != nil && strings.TrimSpace(*value) != "" {
		v.Set(key, *value)
	}
}
