package google

import (
	"fmt"
	"strings"

	"fintrack/internal/core"
)

// parseTable converts a values matrix (as returned by Sheets API) into raw
// ledger rows. Every header column is present on every row; cells past the
// end of a short row read as "". Blank header cells and fully empty rows
// are skipped.
func parseTable(values [][]interface{}) []core.RawRow {
	if len(values) == 0 {
		return nil
	}
	headers := toStrings(values[0])
	out := make([]core.RawRow, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		cells := toStrings(values[i])
		if isBlank(cells) {
			continue
		}
		row := make(core.RawRow, len(headers))
		for col, name := range headers {
			if name == "" {
				continue
			}
			if _, dup := row[name]; dup {
				continue
			}
			row[name] = safeGet(cells, col)
		}
		out = append(out, row)
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx >= 0 && idx < len(arr) {
		return arr[idx]
	}
	return ""
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
