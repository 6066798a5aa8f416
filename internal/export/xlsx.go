package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"fintrack/internal/core"
)

// SheetName is the worksheet holding the ledger in Excel exports.
const SheetName = "Transactions"

// WriteXLSX writes the ledger as a single-sheet workbook. Amount columns are
// stored as numbers.
func WriteXLSX(w io.Writer, ts []core.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(core.Columns))
	for i, c := range core.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(core.Columns), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, tx := range ts {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := tx.Values()
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(core.Columns))
	if err := f.SetColWidth(SheetName, "A", lastCol, 18); err != nil {
		return fmt.Errorf("column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
