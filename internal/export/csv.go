// Package export writes the ledger to CSV and Excel files and reads CSV
// exports back in.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/encoding"
)

const (
	CSVFilename  = "transactions.csv"
	XLSXFilename = "transactions.xlsx"
)

// WriteCSV writes the canonical header followed by one record per row.
// Dates are written as YYYY-MM-DD, or their raw text when unparsed.
func WriteCSV(w io.Writer, ts []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(core.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(core.Columns))
	for i, tx := range ts {
		for j, v := range tx.Values() {
			record[j] = core.Text(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a CSV export into raw rows keyed by the header. Input of any
// common charset is accepted. Short records read missing cells as "".
func ReadCSV(r io.Reader) ([]core.RawRow, error) {
	ur, err := encoding.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}
	cr := csv.NewReader(ur)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []core.RawRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV: %w", err)
		}
		row := make(core.RawRow, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(rec) {
				row[name] = rec[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
