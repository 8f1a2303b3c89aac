package explorer

import (
	"net/url"

	"github.com/go-playground/validator/v10"

	"github.com/openaudit/openaudit-visualizer/internal/openaudit"
	"github.com/openaudit/openaudit-visualizer/internal/shared"
)

// PageLimit caps the rows requested for the transaction table.
const PageLimit = 100

// Filters is the explorer state carried in the URL. Nil fields are not sent upstream.
type Filters struct {
	Year      *int     `validate:"omitempty,gte=1900,lte=2100"`
	Province  *string  `validate:"omitempty,max=120"`
	MinAmount *float64 `validate:"omitempty,gte=0"`
	MaxAmount *float64 `validate:"omitempty,gte=0"`
}

// ParseFilters reads the filters from a query string. Blank controls are
// treated as cleared.
func ParseFilters(values url.Values) (Filters, error) {
	var f Filters
	var err error
	if f.Year, err = shared.OptionalInt(values, "year"); err != nil {
		return Filters{}, err
	}
	f.Province = shared.OptionalString(values, "province")
	if f.MinAmount, err = shared.OptionalFloat(values, "min_amount"); err != nil {
		return Filters{}, err
	}
	if f.MaxAmount, err = shared.OptionalFloat(values, "max_amount"); err != nil {
		return Filters{}, err
	}
	return f, nil
}

// Validate checks ranges on the parsed values.
func (f Filters) Validate(v *validator.Validate) error {
	if err := v.Struct(f); err != nil {
		return err
	}
	if f.MinAmount != nil && f.MaxAmount != nil && *f.MinAmount > *f.MaxAmount {
		return shared.InvalidParamError{Field: "max_amount", Value: shared.FormatOptional(f.MaxAmount)}
	}
	return nil
}

// Params maps the filters to the transaction list request.
func (f Filters) Params() openaudit.TransactionListParams {
	limit := PageLimit
	return openaudit.TransactionListParams{
		Limit:     &limit,
		Year:      f.Year,
		Province:  f.Province,
		MinAmount: f.MinAmount,
		MaxAmount: f.MaxAmount,
	}
}

// SelectedYear returns the year filter or zero.
func (f Filters) SelectedYear() int {
	if f.Year == nil {
		return 0
	}
	return *f.Year
}

// SelectedProvince returns the province filter or an empty string.
func (f Filters) SelectedProvince() string {
	if f.Province == nil {
		return ""
	}
	return *f.Province
}

// MinValue is the min_amount control's current value.
func (f Filters) MinValue() string { return shared.FormatOptional(f.MinAmount) }

// MaxValue is the max_amount control's current value.
func (f Filters) MaxValue() string { return shared.FormatOptional(f.MaxAmount) }

// Active reports whether any filter is set.
func (f Filters) Active() bool {
	return f.Year != nil || f.Province != nil || f.MinAmount != nil || f.MaxAmount != nil
}
