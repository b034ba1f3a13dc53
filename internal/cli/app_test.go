package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cashcraft/internal/config"
	"cashcraft/internal/core"
	applog "cashcraft/internal/log"
)

type testApp struct {
	*App
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	dir    string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{DBPath: filepath.Join(dir, "expenses.db")}
	logger := applog.New(applog.Config{Output: &bytes.Buffer{}})

	svc, err := OpenService(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("open service: %v", err)
	}
	t.Cleanup(func() { svc.Close() })

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	app := NewApp(svc, cfg.DBPath, stdout, stderr)
	app.today = func() core.Date { return core.NewDate(2024, 7, 1) }
	return &testApp{App: app, stdout: stdout, stderr: stderr, dir: dir}
}

func (a *testApp) run(t *testing.T, args ...string) error {
	t.Helper()
	a.stdout.Reset()
	a.stderr.Reset()
	return a.Run(context.Background(), args)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"usage", ErrUsage, 2},
		{"validation", &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}, 2},
		{"storage", &core.StorageError{Op: "insert", Err: errors.New("disk I/O error")}, 1},
		{"other", errors.New("boom"), 1},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("%s: ExitCode() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestAddAndList(t *testing.T) {
	app := newTestApp(t)

	if err := app.run(t, "add", "-category", "Food", "-amount", "12.50", "-description", "lunch", "-date", "2024-06-30"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(app.stdout.String(), "Added expense #1") {
		t.Fatalf("unexpected add output: %q", app.stdout.String())
	}

	// Date defaults to today
	if err := app.run(t, "add", "-category", "Bills", "-amount", "3"); err != nil {
		t.Fatalf("add without date: %v", err)
	}

	if err := app.run(t, "list"); err != nil {
		t.Fatalf("list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(app.stdout.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %q", app.stdout.String())
	}
	if !strings.Contains(lines[1], "2024-07-01") || !strings.Contains(lines[1], "3.00") {
		t.Errorf("newest row should be first: %q", lines[1])
	}
	if !strings.Contains(lines[2], "lunch") || !strings.Contains(lines[2], "12.50") {
		t.Errorf("unexpected second row: %q", lines[2])
	}
}

func TestAddRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{"zero amount", []string{"-category", "Food", "-amount", "0"}, "amount"},
		{"negative amount", []string{"-category", "Food", "-amount", "-5"}, "amount"},
		{"missing amount", []string{"-category", "Food"}, "amount"},
		{"bad date", []string{"-category", "Food", "-amount", "1", "-date", "2024/01/01"}, "date"},
		{"unknown category", []string{"-category", "Gadgets", "-amount", "1"}, "category"},
		{"missing category", []string{"-amount", "1"}, "category"},
	}

	app := newTestApp(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := app.run(t, append([]string{"add"}, tt.args...)...)
			var ve *core.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Fatalf("expected %s validation error, got %v", tt.field, err)
			}
			if ExitCode(err) != 2 {
				t.Fatalf("expected exit code 2, got %d", ExitCode(err))
			}
		})
	}

	if err := app.run(t, "list"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(app.stdout.String(), "No expenses recorded") {
		t.Fatalf("rejected adds must not store rows: %q", app.stdout.String())
	}
}

func TestTotalsAndSummary(t *testing.T) {
	app := newTestApp(t)
	for _, args := range [][]string{
		{"add", "-category", "Food", "-amount", "10", "-date", "2024-01-01"},
		{"add", "-category", "Food", "-amount", "5.50", "-date", "2024-01-02"},
		{"add", "-category", "Bills", "-amount", "3", "-date", "2024-02-03"},
	} {
		if err := app.run(t, args...); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	if err := app.run(t, "totals"); err != nil {
		t.Fatalf("totals: %v", err)
	}
	out := app.stdout.String()
	bills := strings.Index(out, "Bills")
	food := strings.Index(out, "Food")
	if bills < 0 || food < 0 || bills > food {
		t.Fatalf("categories should be sorted by name: %q", out)
	}
	if !strings.Contains(out, "15.50") || !strings.Contains(out, "18.50") {
		t.Fatalf("missing totals: %q", out)
	}

	if err := app.run(t, "summary"); err != nil {
		t.Fatalf("summary: %v", err)
	}
	out = app.stdout.String()
	for _, want := range []string{"18.50", "Transactions:", "6.17", "2024-01-01 to 2024-02-03", "2024-01", "2024-02"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q: %q", want, out)
		}
	}
}

func TestImportAndExport(t *testing.T) {
	app := newTestApp(t)

	csvPath := filepath.Join(app.dir, "in.csv")
	content := "date,category,amount,description\n" +
		"2024-01-05,Food,12.50,lunch\n" +
		"2024-01-06,Bills,,electricity\n" +
		"2024-01-07,Transport,3.20,bus\n"
	if err := os.WriteFile(csvPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	if err := app.run(t, "import", "-file", csvPath); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(app.stdout.String(), "Imported 2 rows, skipped 1") {
		t.Fatalf("unexpected import output: %q", app.stdout.String())
	}
	if !strings.Contains(app.stderr.String(), "row 2") {
		t.Fatalf("skipped row should be reported: %q", app.stderr.String())
	}

	if err := app.run(t, "export"); err != nil {
		t.Fatalf("export to stdout: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(app.stdout.String()), "\n")
	if len(lines) != 3 || lines[0] != "id,date,category,amount,description" {
		t.Fatalf("unexpected csv: %q", app.stdout.String())
	}
	if !strings.HasPrefix(lines[1], "2,2024-01-07,Transport,3.20") {
		t.Fatalf("unexpected first row: %q", lines[1])
	}

	for _, name := range []string{"out.xlsx", "out.pdf"} {
		path := filepath.Join(app.dir, name)
		if err := app.run(t, "export", "-out", path); err != nil {
			t.Fatalf("export %s: %v", name, err)
		}
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			t.Fatalf("export %s not written: %v", name, err)
		}
	}
}

func TestUsageErrors(t *testing.T) {
	app := newTestApp(t)

	tests := [][]string{
		{},
		{"frobnicate"},
		{"import"},
		{"export", "-format", "json"},
		{"list", "extra"},
	}
	for _, args := range tests {
		err := app.run(t, args...)
		if !errors.Is(err, ErrUsage) {
			t.Errorf("%v: expected usage error, got %v", args, err)
		}
	}

	if err := app.run(t, "help"); err != nil {
		t.Errorf("help: %v", err)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	app := newTestApp(t)
	for i := 0; i < 2; i++ {
		if err := app.run(t, "init"); err != nil {
			t.Fatalf("init #%d: %v", i+1, err)
		}
	}
	if !strings.Contains(app.stdout.String(), "expenses.db") {
		t.Fatalf("unexpected init output: %q", app.stdout.String())
	}
}
