package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/openaudit/openaudit-visualizer/internal/openaudit"
)

func sampleRows() []openaudit.UnliquidatedTransaction {
	cebu := "Cebu"
	pre := `cash advance "for travel"`
	report := int64(77)
	return []openaudit.UnliquidatedTransaction{
		{ID: 1, LGUID: 12, Year: 2015, Amount: decimal.RequireFromString("1500000.5"), ReportID: &report, ContextPre: &pre,
			LGU: &openaudit.LocalGovernment{ID: 12, Name: "Cebu City", Province: &cebu}},
		{ID: 2, LGUID: 40, Year: 2016, Amount: decimal.NewFromInt(250)},
	}
}

func TestWriteTransactionsCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteTransactionsCSV(buf, sampleRows()))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, []string{"1", "Cebu City", "Cebu", "2015", "1500000.50", "77", `cash advance "for travel"`, ""}, records[1])
	assert.Equal(t, []string{"2", "LGU #40", "", "2016", "250.00", "", "", ""}, records[2])
}

func TestWriteTransactionsCSVEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteTransactionsCSV(buf, nil))
	records, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestTransactionsXLSX(t *testing.T) {
	data, err := TransactionsXLSX(sampleRows())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, "Cebu City", rows[1][1])
	assert.Equal(t, "LGU #40", rows[2][1])

	raw, err := f.GetCellValue(sheetName, "E2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "1500000.5", raw)
}
