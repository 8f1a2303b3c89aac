// Package export writes transaction listings as downloadable files.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/openaudit/openaudit-visualizer/internal/openaudit"
)

// Header is the column layout shared by every export format.
var Header = []string{"ID", "LGU", "Province", "Year", "Amount (PHP)", "Report ID", "Context Before", "Context After"}

// WriteTransactionsCSV serialises transactions to CSV in response order.
func WriteTransactionsCSV(w io.Writer, rows []openaudit.UnliquidatedTransaction) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(record(row)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func record(row openaudit.UnliquidatedTransaction) []string {
	return []string{
		strconv.FormatInt(row.ID, 10),
		lguName(row),
		province(row),
		strconv.Itoa(row.Year),
		row.Amount.StringFixed(2),
		optionalID(row.ReportID),
		optionalText(row.ContextPre),
		optionalText(row.ContextPost),
	}
}

func lguName(row openaudit.UnliquidatedTransaction) string {
	if row.LGU != nil && row.LGU.Name != "" {
		return row.LGU.Name
	}
	return "LGU #" + strconv.FormatInt(row.LGUID, 10)
}

func province(row openaudit.UnliquidatedTransaction) string {
	if row.LGU == nil {
		return ""
	}
	return optionalText(row.LGU.Province)
}

func optionalID(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func optionalText(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
