// This file holds the helpers that turn request bodies, path parameters and
// query strings into service inputs.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

const (
	maxJSONBody   = 1 << 20
	maxImportBody = 10 << 20
)

type entryRequest struct {
	Kind        string  `json:"kind"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Date        string  `json:"date,omitempty"`
	Time        string  `json:"time,omitempty"`
	Description string  `json:"description,omitempty"`
}

func (e entryRequest) toInput() services.EntryInput {
	return services.EntryInput{
		Kind:        sanitizeInput(e.Kind),
		Amount:      e.Amount,
		Category:    sanitizeInput(e.Category),
		Date:        sanitizeInput(e.Date),
		Time:        sanitizeInput(e.Time),
		Description: sanitizeInput(e.Description),
	}
}

type categoryRequest struct {
	Label string `json:"label"`
}

// decodeJSON reads a single JSON object from the body into v. Unknown
// fields and trailing data are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("invalid JSON body: unexpected trailing data")
	}
	return nil
}

// parseFilterOptions reads from, to (YYYY-MM-DD) and category from the
// query string. Absent values leave the bound open.
func parseFilterOptions(query url.Values) (core.FilterOptions, error) {
	var opts core.FilterOptions
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &opts.From}, {"to", &opts.To}} {
		v := strings.TrimSpace(query.Get(p.name))
		if v == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return core.FilterOptions{}, &services.ValidationError{Field: p.name, Err: core.ErrInvalidDate}
		}
		*p.dst = t
	}
	if !opts.From.IsZero() && !opts.To.IsZero() && opts.To.Before(opts.From) {
		return core.FilterOptions{}, &services.ValidationError{Field: "to", Err: errors.New("end date is before start date")}
	}
	opts.Category = sanitizeInput(query.Get("category"))
	return opts, nil
}

// parseYearMonth reads the {year} and {month} route parameters.
func parseYearMonth(r *http.Request) (year, month int, err error) {
	year, err = strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return 0, 0, &services.ValidationError{Field: "year", Err: err}
	}
	month, err = strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		return 0, 0, &services.ValidationError{Field: "month", Err: err}
	}
	return year, month, nil
}

// parseKind reads the {kind} route parameter.
func parseKind(r *http.Request) (core.Kind, error) {
	kind, err := core.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		return "", &services.ValidationError{Field: "kind", Err: err}
	}
	return kind, nil
}

// parseIndex reads the zero-based {index} route parameter.
func parseIndex(r *http.Request) (int, error) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return 0, &services.ValidationError{Field: "index", Err: err}
	}
	return idx, nil
}

// sanitizeInput drops control characters other than tab and newlines and
// trims surrounding whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
