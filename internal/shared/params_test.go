package shared

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalParams(t *testing.T) {
	values := url.Values{"year": {"2015"}, "province": {"  "}, "min_amount": {"1500.50"}, "max_amount": {"abc"}, "lgu_id": {"7"}}

	year, err := OptionalInt(values, "year")
	require.NoError(t, err)
	require.NotNil(t, year)
	assert.Equal(t, 2015, *year)

	assert.Nil(t, OptionalString(values, "province"))

	minAmount, err := OptionalFloat(values, "min_amount")
	require.NoError(t, err)
	assert.Equal(t, 1500.5, *minAmount)

	_, err = OptionalFloat(values, "max_amount")
	var invalid InvalidParamError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "max_amount", invalid.Field)

	for _, raw := range []string{"Inf", "+Inf", "-Infinity", "NaN"} {
		_, err := OptionalFloat(url.Values{"max_amount": {raw}}, "max_amount")
		assert.ErrorAs(t, err, &invalid, raw)
	}

	missing, err := OptionalInt(values, "skip")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	id, err := OptionalInt64(values, "lgu_id")
	require.NoError(t, err)
	assert.EqualValues(t, 7, *id)
}

func TestFormatOptional(t *testing.T) {
	year := 2015
	amount := 1500.5
	assert.Equal(t, "2015", FormatOptional(&year))
	assert.Equal(t, "1500.5", FormatOptional(&amount))
	assert.Equal(t, "", FormatOptional[int](nil))
}

func TestPagination(t *testing.T) {
	p := NewPagination(PageFromQuery(url.Values{"page": {"3"}}), 20, 20)
	assert.Equal(t, 40, p.Skip())
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev())
	assert.Equal(t, 2, p.PrevPage())
	assert.Equal(t, 4, p.NextPage())

	first := NewPagination(PageFromQuery(url.Values{"page": {"x"}}), 0, 5)
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, DefaultPerPage, first.PerPage)
	assert.False(t, first.HasNext)
	assert.False(t, first.HasPrev())
}
