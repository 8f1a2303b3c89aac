package openaudit

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Timestamp decodes backend datetimes, which may omit the zone.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// UnmarshalJSON accepts RFC3339 and zone-less ISO timestamps. Zone-less values are read as UTC.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	raw := strings.Trim(string(data), `"`)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("openaudit: unrecognised timestamp %q", raw)
}

// MarshalJSON writes RFC3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RFC3339Nano) + `"`), nil
}

// AuditTopic is one of the fixed LDA themes.
type AuditTopic struct {
	ID          int64            `json:"id"`
	TopicNumber int              `json:"topic_number"`
	Description string           `json:"description"`
	Terms       *string          `json:"terms,omitempty"`
	Prevalence  *decimal.Decimal `json:"prevalence,omitempty"`
	CreatedAt   Timestamp        `json:"created_at"`
	UpdatedAt   Timestamp        `json:"updated_at"`
}

// TopicAnalysis summarises how often a topic appears across reports.
type TopicAnalysis struct {
	Topic         AuditTopic       `json:"topic"`
	ReportCount   int              `json:"report_count"`
	AvgProportion *decimal.Decimal `json:"avg_proportion,omitempty"`
}

// LocalGovernment is a municipality, city or province.
type LocalGovernment struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Province  *string   `json:"province,omitempty"`
	Region    *string   `json:"region,omitempty"`
	LGUType   *string   `json:"lgu_type,omitempty"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// UnliquidatedTransaction is a single disbursement flagged as not yet accounted for.
type UnliquidatedTransaction struct {
	ID          int64            `json:"id"`
	LGUID       int64            `json:"lgu_id"`
	ReportID    *int64           `json:"report_id,omitempty"`
	Year        int              `json:"year"`
	Amount      decimal.Decimal  `json:"amount"`
	ContextPre  *string          `json:"context_pre,omitempty"`
	ContextPost *string          `json:"context_post,omitempty"`
	CreatedAt   Timestamp        `json:"created_at"`
	UpdatedAt   Timestamp        `json:"updated_at"`
	LGU         *LocalGovernment `json:"lgu,omitempty"`
}

// AuditReport is an ingested audit document.
type AuditReport struct {
	ID           int64     `json:"id"`
	LGUID        int64     `json:"lgu_id"`
	Year         int       `json:"year"`
	ReportType   string    `json:"report_type"`
	FilePath     *string   `json:"file_path,omitempty"`
	FindingsText *string   `json:"findings_text,omitempty"`
	CreatedAt    Timestamp `json:"created_at"`
	UpdatedAt    Timestamp `json:"updated_at"`
}

// LGUDetail bundles an LGU with its transactions and reports.
type LGUDetail struct {
	LGU               LocalGovernment           `json:"lgu"`
	TotalUnliquidated decimal.Decimal           `json:"total_unliquidated"`
	YearsWithData     []int                     `json:"years_with_data"`
	Transactions      []UnliquidatedTransaction `json:"transactions"`
	Reports           []AuditReport             `json:"reports"`
}

// Stats is the global aggregate snapshot. Fields are pointers so a missing
// value stays distinguishable from zero.
type Stats struct {
	TotalLGUs               *int64           `json:"total_lgus,omitempty"`
	TotalReports            *int64           `json:"total_reports,omitempty"`
	TotalUnliquidatedAmount *decimal.Decimal `json:"total_unliquidated_amount,omitempty"`
	YearsCovered            []int            `json:"years_covered"`
	ProvincesCount          *int64           `json:"provinces_count,omitempty"`
}

// TopLGU is one row of the ranking by unliquidated amount.
type TopLGU struct {
	LGUID            int64           `json:"lgu_id"`
	LGUName          string          `json:"lgu_name"`
	Province         *string         `json:"province,omitempty"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	TransactionCount int64           `json:"transaction_count"`
}

// YearlyTrend is one year of the trend series.
type YearlyTrend struct {
	Year             int             `json:"year"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	AvgAmount        decimal.Decimal `json:"avg_amount"`
	TransactionCount int64           `json:"transaction_count"`
	LGUsCount        int64           `json:"lgus_count"`
}

// YearlyAggregate is the per-year rollup.
type YearlyAggregate struct {
	Year        int             `json:"year"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Count       int64           `json:"count"`
}

// ProvinceAggregate is the per-province rollup.
type ProvinceAggregate struct {
	Province    *string         `json:"province,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Count       int64           `json:"count"`
}

// AmountRange is one bucket of the amount distribution. Max is nil for the open-ended bucket.
type AmountRange struct {
	Range string           `json:"range"`
	Min   decimal.Decimal  `json:"min"`
	Max   *decimal.Decimal `json:"max,omitempty"`
	Count int64            `json:"count"`
}

// HeatmapCell is one province/year total.
type HeatmapCell struct {
	Province    *string         `json:"province,omitempty"`
	Year        int             `json:"year"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// LLMAnalysis is a stored model response produced by the backend.
type LLMAnalysis struct {
	ID           int64     `json:"id"`
	ReportID     *int64    `json:"report_id,omitempty"`
	LGUID        *int64    `json:"lgu_id,omitempty"`
	AnalysisType string    `json:"analysis_type"`
	Prompt       *string   `json:"prompt,omitempty"`
	Response     string    `json:"response"`
	ModelName    *string   `json:"model_name,omitempty"`
	CreatedAt    Timestamp `json:"created_at"`
	UpdatedAt    Timestamp `json:"updated_at"`
}

// AnalysisRequest asks the backend to run an LLM analysis.
type AnalysisRequest struct {
	ReportID     *int64  `json:"report_id,omitempty"`
	LGUID        *int64  `json:"lgu_id,omitempty"`
	AnalysisType string  `json:"analysis_type"`
	CustomPrompt *string `json:"custom_prompt,omitempty"`
	Model        *string `json:"model,omitempty"`
}
