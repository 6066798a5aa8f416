// Package session keeps the per-session category lists offered when adding
// entries. Lists start from the defaults on first access and are changed
// only through Add and Remove.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"fintrack/internal/core"
)

var (
	ErrIndexOutOfRange = errors.New("category index out of range")
	ErrEmptyLabel      = errors.New("category label is empty")
)

// CategoryStore is a session-scoped category list per entry kind.
type CategoryStore interface {
	Categories(ctx context.Context, sid string, kind core.Kind) ([]string, error)
	// Add appends label after trimming it. Duplicates are allowed.
	Add(ctx context.Context, sid string, kind core.Kind, label string) ([]string, error)
	// Remove deletes the entry at index (0-based).
	Remove(ctx context.Context, sid string, kind core.Kind, index int) ([]string, error)
}

// Defaults are the lists a new session starts with.
type Defaults struct {
	Income  []string `yaml:"income"`
	Expense []string `yaml:"expense"`
}

func DefaultCategories() Defaults {
	return Defaults{
		Income: []string{"Salary", "Bonus", "Refund", "Part-time", "Other Income"},
		Expense: []string{
			"Food", "Shopping", "Transportation", "Bills", "Entertainment", "Health",
			"Housing", "Travel", "Education", "Bank Charges", "Repair", "Gift", "Other Expense",
		},
	}
}

// LoadDefaults reads defaults from a YAML file with `income` and `expense`
// lists. An empty path yields DefaultCategories; a kind left out of the file
// keeps its built-in list.
func LoadDefaults(path string) (Defaults, error) {
	d := DefaultCategories()
	if path == "" {
		return d, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Defaults{}, fmt.Errorf("read categories file: %w", err)
	}
	var f Defaults
	if err := yaml.Unmarshal(b, &f); err != nil {
		return Defaults{}, fmt.Errorf("parse categories file %s: %w", path, err)
	}
	if f.Income != nil {
		d.Income = cleanLabels(f.Income)
	}
	if f.Expense != nil {
		d.Expense = cleanLabels(f.Expense)
	}
	return d, nil
}

// For returns a copy of the default list for kind.
func (d Defaults) For(kind core.Kind) []string {
	if kind == core.KindIncome {
		return append([]string(nil), d.Income...)
	}
	return append([]string(nil), d.Expense...)
}

func cleanLabels(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func normalizeLabel(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", ErrEmptyLabel
	}
	return label, nil
}

// Contains reports whether label is one of the categories in list.
func Contains(list []string, label string) bool {
	for _, c := range list {
		if c == label {
			return true
		}
	}
	return false
}
