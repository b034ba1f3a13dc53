package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"cashcraft/internal/core"
	ports "cashcraft/internal/sheets"
)

// Header written to row 1 of an empty mirror sheet.
var header = []any{"id", "date", "category", "amount", "description"}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	limiter       *rate.Limiter
	headerChecked bool
}

// Ensure interface conformance
var _ ports.ExpenseMirror = (*Client)(nil)

// New creates a Sheets mirror client. requestsPerMinute caps API calls so
// a large catch-up stays under the per-user quota.
func New(ctx context.Context, spreadsheetID, sheetName string, requestsPerMinute int) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Expenses"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		limiter:       newLimiter(requestsPerMinute),
	}, nil
}

func newLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute < 1 {
		requestsPerMinute = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	credentialsJSON, err := loadCredentials(ctx)
	if err != nil {
		return nil, err
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

func loadCredentials(ctx context.Context) ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	// Also check the standard Google Cloud environment variable
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		slog.DebugContext(ctx, "Using inline JSON credentials")
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		slog.DebugContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// LastMirroredID scans column A for the largest numeric id.
func (c *Client) LastMirroredID(ctx context.Context) (int64, error) {
	if c.svc == nil {
		return 0, errors.New("sheets service not initialized")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	rng := a1Range(c.sheetName, "A:A")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}
	return maxID(resp.Values), nil
}

// AppendExpenses writes rows after the last used row of the sheet.
func (c *Client) AppendExpenses(ctx context.Context, expenses []core.Expense) error {
	if len(expenses) == 0 {
		return nil
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := c.ensureHeader(ctx); err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	rng := a1Range(c.sheetName, "A:E")
	vr := &gsheet.ValueRange{Values: expenseRows(expenses)}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", c.sheetName, err)
	}

	slog.InfoContext(ctx, "Appended expenses to sheet",
		"sheet", c.sheetName,
		"count", len(expenses),
		"first_id", expenses[0].ID,
		"last_id", expenses[len(expenses)-1].ID)
	return nil
}

func (c *Client) ensureHeader(ctx context.Context) error {
	if c.headerChecked {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	rng := a1Range(c.sheetName, "A1:E1")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) == 0 {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		vr := &gsheet.ValueRange{Values: [][]any{header}}
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("write header to %s: %w", c.sheetName, err)
		}
	}
	c.headerChecked = true
	return nil
}

// a1Range qualifies rng with a quoted sheet name.
func a1Range(sheet, rng string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + rng
}

func expenseRows(expenses []core.Expense) [][]any {
	out := make([][]any, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, []any{e.ID, e.Date.String(), e.Category, e.Amount.Float64(), e.Description})
	}
	return out
}

// maxID ignores the header and anything else that is not a positive integer.
func maxID(values [][]any) int64 {
	var highest int64
	for _, row := range values {
		if len(row) == 0 {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(row[0])), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		if id > highest {
			highest = id
		}
	}
	return highest
}
