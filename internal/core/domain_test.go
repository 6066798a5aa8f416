package core

import (
	"math"
	"testing"
	"time"
)

func TestKindValidate(t *testing.T) {
	if err := KindIncome.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := Kind("Transfer").Validate(); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	k, err := ParseKind(" expense ")
	if err != nil || k != KindExpense {
		t.Fatalf("ParseKind: got %q err=%v", k, err)
	}
}

func TestValidateTime(t *testing.T) {
	for _, ok := range []string{"00:00", "09:30", "23:59"} {
		if err := ValidateTime(ok); err != nil {
			t.Fatalf("%q expected ok, got %v", ok, err)
		}
	}
	for _, bad := range []string{"", "24:00", "9:30pm", "noon"} {
		if err := ValidateTime(bad); err == nil {
			t.Fatalf("%q expected error", bad)
		}
	}
}

func TestFromRaw(t *testing.T) {
	tx := FromRaw(RawRow{
		ColDate:             " 15/03/2024 ",
		ColTime:             "18:05",
		ColDescription:      "groceries",
		ColIncome:           "",
		ColExpense:          "₹ 1,250.75",
		ColRemainingBalance: 3000.0,
		ColCategory:         "Food",
		ColKind:             "Expense",
	})
	if !tx.Date.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", tx.Date)
	}
	if tx.Expense != 1250.75 || tx.Income != 0 {
		t.Fatalf("unexpected amounts: income=%v expense=%v", tx.Income, tx.Expense)
	}
	if !tx.HasRemainingBalance || tx.RemainingBalance != 3000 {
		t.Fatalf("unexpected balance snapshot: %+v", tx)
	}
	if tx.Kind != KindExpense || tx.Category != "Food" || tx.Description != "groceries" || tx.Time != "18:05" {
		t.Fatalf("unexpected text fields: %+v", tx)
	}
}

func TestFromRawMissingColumns(t *testing.T) {
	tx := FromRaw(RawRow{ColDate: "someday"})
	if tx.Date.Valid() || tx.Date.Raw != "someday" {
		t.Fatalf("expected pass-through date, got %+v", tx.Date)
	}
	if tx.HasRemainingBalance {
		t.Fatalf("balance should be absent")
	}
	if tx.Income != 0 || tx.Expense != 0 || tx.Category != "" {
		t.Fatalf("expected zero values, got %+v", tx)
	}
}

func TestTransactionValuesOrder(t *testing.T) {
	tx := Transaction{
		Date:                NewDate(2024, 3, 1),
		Time:                "10:00",
		Description:         "pay",
		Income:              1000,
		RemainingBalance:    1000,
		HasRemainingBalance: true,
		Category:            "Salary",
		Kind:                KindIncome,
	}
	got := tx.Values()
	want := []any{"2024-03-01", "10:00", "pay", 1000.0, 0.0, 1000.0, "Salary", "Income"}
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("column %s: expected %v, got %v", Columns[i], want[i], got[i])
		}
	}
}

func TestTransactionValuesWithoutBalance(t *testing.T) {
	tx := Transaction{Date: NewDate(2024, 3, 15), Expense: 300, Category: "Food"}
	got := tx.Values()
	if got[5] != "" {
		t.Fatalf("expected empty Remaining Balance, got %#v", got[5])
	}
	back := FromRaw(tx.Raw())
	if back.HasRemainingBalance {
		t.Fatalf("blank Remaining Balance should read back as absent: %+v", back)
	}
}

func TestText(t *testing.T) {
	cases := []struct {
		in  any
		out string
	}{
		{nil, ""},
		{" x ", "x"},
		{1000.0, "1000"},
		{12.5, "12.5"},
		{math.NaN(), ""},
		{42, "42"},
		{NewDate(2024, 1, 2), "2024-01-02"},
	}
	for _, tc := range cases {
		if got := Text(tc.in); got != tc.out {
			t.Fatalf("Text(%v) = %q, want %q", tc.in, got, tc.out)
		}
	}
}
