package core

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	KindIncome  Kind = "Income"
	KindExpense Kind = "Expense"
)

// Column names as they appear in the ledger worksheet header.
const (
	ColDate             = "Date"
	ColTime             = "Time"
	ColDescription      = "Type"
	ColIncome           = "Income"
	ColExpense          = "Expense"
	ColRemainingBalance = "Remaining Balance"
	ColCategory         = "Category"
	ColKind             = "Income/Expense"
)

// Columns is the canonical column order used when writing the ledger.
var Columns = []string{
	ColDate, ColTime, ColDescription, ColIncome, ColExpense,
	ColRemainingBalance, ColCategory, ColKind,
}

// NumericColumns are cleaned with CleanNumeric right after a load.
var NumericColumns = []string{ColIncome, ColExpense, ColRemainingBalance}

type (
	Kind string

	// Date is a canonical calendar date. When a stored value could not be
	// parsed, Time is zero and Raw keeps the original text.
	Date struct {
		time.Time
		Raw string
	}

	// Transaction is one row of the ledger.
	Transaction struct {
		Date        Date
		Time        string // "HH:MM"
		Description string
		Income      float64
		Expense     float64
		// RemainingBalance is the snapshot taken when the row was created.
		RemainingBalance float64
		// HasRemainingBalance reports whether the stored row carried a
		// Remaining Balance value at all.
		HasRemainingBalance bool
		Category            string
		Kind                Kind
	}

	// RawRow is an un-normalized ledger row keyed by column name.
	RawRow map[string]any
)

var (
	ErrInvalidKind     = errors.New("invalid entry type")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrUnknownCategory = errors.New("unknown category")
	ErrFutureDate      = errors.New("date is in the future")
	ErrInvalidTime     = errors.New("invalid time")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Valid reports whether the date was parsed into a calendar date.
func (d Date) Valid() bool {
	return !d.IsZero()
}

func (d Date) String() string {
	if !d.Valid() {
		return d.Raw
	}
	return d.Format("2006-01-02")
}

func (k Kind) Validate() error {
	switch k {
	case KindIncome, KindExpense:
		return nil
	}
	return ErrInvalidKind
}

// ParseKind matches the entry type case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return KindIncome, nil
	case "expense":
		return KindExpense, nil
	}
	return "", ErrInvalidKind
}

// ValidateTime accepts "HH:MM" with a 24h clock.
func ValidateTime(s string) error {
	if _, err := time.Parse("15:04", s); err != nil {
		return ErrInvalidTime
	}
	return nil
}

// Raw converts the transaction into a row keyed by the canonical columns.
// A row without a balance snapshot gets an empty Remaining Balance cell.
func (t Transaction) Raw() RawRow {
	var balance any = ""
	if t.HasRemainingBalance {
		balance = t.RemainingBalance
	}
	return RawRow{
		ColDate:             t.Date.String(),
		ColTime:             t.Time,
		ColDescription:      t.Description,
		ColIncome:           t.Income,
		ColExpense:          t.Expense,
		ColRemainingBalance: balance,
		ColCategory:         t.Category,
		ColKind:             string(t.Kind),
	}
}

// Values returns the row in canonical column order.
func (t Transaction) Values() []any {
	raw := t.Raw()
	out := make([]any, len(Columns))
	for i, c := range Columns {
		out[i] = raw[c]
	}
	return out
}

// FromRaw builds a transaction from a stored row. Dates go through
// NormalizeDate and numeric columns through CleanNumeric, so missing or
// malformed values end up as pass-through text or zero. A blank Remaining
// Balance cell counts as no snapshot.
func FromRaw(row RawRow) Transaction {
	balance, hasBalance := row[ColRemainingBalance]
	hasBalance = hasBalance && Text(balance) != ""
	return Transaction{
		Date:                NormalizeDate(row[ColDate]),
		Time:                Text(row[ColTime]),
		Description:         Text(row[ColDescription]),
		Income:              CleanNumeric(row[ColIncome]),
		Expense:             CleanNumeric(row[ColExpense]),
		RemainingBalance:    CleanNumeric(balance),
		HasRemainingBalance: hasBalance,
		Category:            Text(row[ColCategory]),
		Kind:                Kind(Text(row[ColKind])),
	}
}

// Normalize applies FromRaw to every row, preserving order.
func Normalize(rows []RawRow) []Transaction {
	out := make([]Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromRaw(r))
	}
	return out
}

// Text renders a loosely typed cell value as text. Missing values and NaN
// become the empty string.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case Date:
		return x.String()
	case time.Time:
		return x.Format("2006-01-02")
	default:
		return strings.TrimSpace(toString(v))
	}
}
