package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// SheetsExporter mirrors a Table into a tab of a Google spreadsheet,
// replacing whatever the tab held before.
type SheetsExporter struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// LoadCredentials prefers the inline JSON over the file path.
func LoadCredentials(inlineJSON, file string) ([]byte, error) {
	inlineJSON = strings.TrimSpace(inlineJSON)
	file = strings.TrimSpace(file)
	switch {
	case inlineJSON != "":
		return []byte(inlineJSON), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// NewSheetsExporter authenticates with a service account. Extra options are
// appended after the credentials.
func NewSheetsExporter(ctx context.Context, spreadsheetID string, credentialsJSON []byte, opts ...goption.ClientOption) (*SheetsExporter, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	all := append([]goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, opts...)
	svc, err := gsheet.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsExporter{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// newSheetsExporterWithService is used by tests that point the client at a fake server.
func newSheetsExporterWithService(svc *gsheet.Service, spreadsheetID string) *SheetsExporter {
	return &SheetsExporter{svc: svc, spreadsheetID: spreadsheetID}
}

// sheetValues renders the header and rows as strings; USER_ENTERED input
// lets Sheets parse the money columns back into numbers.
func sheetValues(t Table) [][]any {
	out := make([][]any, 0, len(t.Rows)+1)
	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Header
	}
	out = append(out, header)
	for _, row := range t.Rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = cellText(v)
		}
		out = append(out, cells)
	}
	return out
}

func (e *SheetsExporter) ensureSheet(ctx context.Context, title string) error {
	ss, err := e.svc.Spreadsheets.Get(e.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return nil
		}
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
	}}}
	if _, err := e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	slog.InfoContext(ctx, "Created sheet", "sheet", title)
	return nil
}

func (e *SheetsExporter) Export(ctx context.Context, t Table) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}
	title := sheetName(t.Sheet)
	if err := e.ensureSheet(ctx, title); err != nil {
		return err
	}

	quoted := "'" + strings.ReplaceAll(title, "'", "''") + "'"
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, quoted, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", title, err)
	}

	vr := &gsheet.ValueRange{Values: sheetValues(t)}
	if _, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, quoted+"!A1", vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write sheet %s: %w", title, err)
	}

	slog.InfoContext(ctx, "Exported table to Google Sheets", "sheet", title, "rows", len(t.Rows))
	return nil
}
