// Package core provides the ledger model and the pure transforms over it.
//
// This file contains the lenient numeric cleaning applied to values read
// from the spreadsheet and the amount formatting used by reports.
package core

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var nonNumeric = regexp.MustCompile(`[^\d.\-]`)

var amountPrinter = message.NewPrinter(language.English)

// CleanNumeric converts a loosely typed cell into a float64.
//
// Missing values and NaN yield 0, numbers are converted as-is and text has
// the rupee sign, thousands separators and any other non-numeric rune
// stripped before parsing. It never fails: unparsable input yields 0.
//
// Examples:
//
//	CleanNumeric(nil)          -> 0
//	CleanNumeric("₹ 1,234.50") -> 1234.5
//	CleanNumeric("abc")        -> 0
//	CleanNumeric(42)           -> 42
func CleanNumeric(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		if math.IsNaN(x) {
			return 0
		}
		return x
	case float32:
		if math.IsNaN(float64(x)) {
			return 0
		}
		return float64(x)
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case json.Number:
		return cleanNumericText(x.String())
	case string:
		return cleanNumericText(x)
	default:
		return cleanNumericText(toString(v))
	}
}

func cleanNumericText(s string) float64 {
	s = strings.ReplaceAll(s, "₹", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	s = nonNumeric.ReplaceAllString(s, "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// EnsureNumeric cleans the named columns of every row in place. Columns a
// row does not carry are left absent, and a blank Remaining Balance cell
// stays blank so the row still has no snapshot.
func EnsureNumeric(rows []RawRow, cols ...string) []RawRow {
	for _, r := range rows {
		for _, c := range cols {
			v, ok := r[c]
			if !ok || (c == ColRemainingBalance && Text(v) == "") {
				continue
			}
			r[c] = CleanNumeric(v)
		}
	}
	return rows
}

// FormatAmount renders v with two decimals and thousands separators,
// e.g. 1234.5 -> "1,234.50".
func FormatAmount(v float64) string {
	return amountPrinter.Sprintf("%.2f", v)
}

func toString(v any) string {
	return fmt.Sprint(v)
}
