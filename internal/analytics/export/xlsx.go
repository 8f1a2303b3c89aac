package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/openaudit/openaudit-visualizer/internal/openaudit"
)

const sheetName = "Transactions"

// TransactionsXLSX renders transactions as a single-sheet workbook. Amounts
// are written as numbers so spreadsheets can sum them.
func TransactionsXLSX(rows []openaudit.UnliquidatedTransaction) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}

	for i, h := range Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}
	last, _ := excelize.CoordinatesToCellName(len(Header), 1)
	_ = f.SetCellStyle(sheetName, "A1", last, headerStyle)

	for i, row := range rows {
		line := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, line)
			_ = f.SetCellValue(sheetName, cell, v)
		}
		write(1, row.ID)
		write(2, lguName(row))
		write(3, province(row))
		write(4, row.Year)
		write(5, row.Amount.InexactFloat64())
		if row.ReportID != nil {
			write(6, *row.ReportID)
		}
		write(7, optionalText(row.ContextPre))
		write(8, optionalText(row.ContextPost))
	}
	if len(rows) > 0 {
		bottom, _ := excelize.CoordinatesToCellName(5, len(rows)+1)
		_ = f.SetCellStyle(sheetName, "E2", bottom, amountStyle)
	}

	_ = f.SetColWidth(sheetName, "A", "A", 8)
	_ = f.SetColWidth(sheetName, "B", "C", 28)
	_ = f.SetColWidth(sheetName, "D", "D", 8)
	_ = f.SetColWidth(sheetName, "E", "E", 18)
	_ = f.SetColWidth(sheetName, "F", "F", 10)
	_ = f.SetColWidth(sheetName, "G", "H", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
