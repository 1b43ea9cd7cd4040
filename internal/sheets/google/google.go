package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	ports "dailyexpense/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	defaultReportSheet = "Transactions"
	// report columns A..E match report.Header
	lastColumn = "E"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	reportSheet   string
}

var _ ports.ReportWriter = (*Client)(nil)

// Options selects the spreadsheet and the service account used to reach it.
type Options struct {
	SpreadsheetID      string
	ReportSheet        string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// New builds a client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	creds, err := loadCredentials(ctx, opts)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created",
		"spreadsheet_id", opts.SpreadsheetID,
		"sheet", opts.ReportSheet)
	return NewWithService(svc, opts.SpreadsheetID, opts.ReportSheet)
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, reportSheet string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	reportSheet = strings.TrimSpace(reportSheet)
	if reportSheet == "" {
		reportSheet = defaultReportSheet
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, reportSheet: reportSheet}, nil
}

func loadCredentials(ctx context.Context, opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.ServiceAccountJSON)
	file := strings.TrimSpace(opts.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		slog.DebugContext(ctx, "Reading service account credentials", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// WriteReport replaces the report tab with rows, creating the tab on
// first use.
func (c *Client) WriteReport(ctx context.Context, rows [][]string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := c.ensureSheet(ctx); err != nil {
		return err
	}

	clearRange := fmt.Sprintf("%s!A:%s", c.reportSheet, lastColumn)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}
	if len(rows) == 0 {
		return nil
	}

	writeRange := fmt.Sprintf("%s!A1:%s%d", c.reportSheet, lastColumn, len(rows))
	vr := &gsheet.ValueRange{Values: toValues(rows)}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", writeRange, err)
	}

	slog.InfoContext(ctx, "Report mirrored to sheet",
		"sheet", c.reportSheet,
		"rows", len(rows)-1)
	return nil
}

func (c *Client) ensureSheet(ctx context.Context) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.reportSheet {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: c.reportSheet},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", c.reportSheet, err)
	}
	slog.InfoContext(ctx, "Created report sheet", "sheet", c.reportSheet)
	return nil
}

func toValues(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		line := make([]interface{}, len(row))
		for j, v := range row {
			line[j] = v
		}
		out[i] = line
	}
	return out
}
