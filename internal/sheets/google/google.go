package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	ports "fintrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultWorksheet is the tab read and written when none is configured.
const DefaultWorksheet = "sheet1"

// Cells are written verbatim so that dates and labels read back exactly as
// they were saved.
const valueInputOption = "RAW"

var spreadsheetURL = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)

type Config struct {
	// Spreadsheet is either the full sheet URL or the bare spreadsheet ID.
	Spreadsheet string
	Worksheet   string
	// Service account credentials, inline JSON first.
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	worksheet     string
}

// Ensure interface conformance
var _ ports.LedgerStore = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	id := SpreadsheetID(cfg.Spreadsheet)
	if id == "" {
		return nil, errors.New("missing spreadsheet URL or ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, id, cfg.Worksheet), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, worksheet string) *Client {
	worksheet = strings.TrimSpace(worksheet)
	if worksheet == "" {
		worksheet = DefaultWorksheet
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, worksheet: worksheet}
}

// SpreadsheetID extracts the ID from a spreadsheet URL. Anything that does
// not look like a URL is taken to be the ID itself.
func SpreadsheetID(urlOrID string) string {
	s := strings.TrimSpace(urlOrID)
	if m := spreadsheetURL.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when neither is configured.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	credsJSON := strings.TrimSpace(cfg.CredentialsJSON)
	credsFile := strings.TrimSpace(cfg.CredentialsFile)
	if credsJSON == "" && credsFile == "" {
		credsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentials []byte
	switch {
	case credsJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentials = []byte(credsJSON)
	case credsFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", credsFile)
		b, err := os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentials = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// Load reads the whole worksheet. The first row is the header; every other
// non-empty row becomes a RawRow keyed by header name.
func (c *Client) Load(ctx context.Context) ([]core.RawRow, error) {
	if c.svc == nil {
		return nil, ports.ErrNotConfigured
	}
	rng := sheetRange(c.worksheet, "")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	rows := parseTable(resp.Values)
	slog.DebugContext(ctx, "Loaded ledger from sheet",
		applog.FieldComponent, applog.ComponentSheets, "worksheet", c.worksheet, applog.FieldRows, len(rows))
	return rows, nil
}

// Save overwrites the worksheet with the header and ts. The sheet is cleared
// first so a shorter ledger leaves no stale rows behind.
func (c *Client) Save(ctx context.Context, ts []core.Transaction) error {
	if c.svc == nil {
		return ports.ErrNotConfigured
	}
	clearRng := sheetRange(c.worksheet, "")
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRng, err)
	}

	rng := sheetRange(c.worksheet, "A1")
	vr := &gsheet.ValueRange{Values: ports.Table(ts)}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption(valueInputOption).Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}
	slog.InfoContext(ctx, "Saved ledger to sheet",
		applog.FieldComponent, applog.ComponentSheets, "worksheet", c.worksheet, applog.FieldRows, len(ts))
	return nil
}

// sheetRange builds an A1 range, quoting worksheet names that need it.
func sheetRange(worksheet, cells string) string {
	name := worksheet
	if strings.ContainsAny(name, " '!") {
		name = "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	if cells == "" {
		return name
	}
	return name + "!" + cells
}
