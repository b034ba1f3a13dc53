package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"cashcraft/internal/core"
	"cashcraft/internal/export"
	"cashcraft/internal/importer"
	applog "cashcraft/internal/log"
	"cashcraft/internal/services"
)

// ErrUsage marks a malformed command line.
var ErrUsage = errors.New("usage error")

const usage = `Usage: cashcraft <command> [flags]

Commands:
  init                          create the expense table if missing
  add -category C -amount A     record an expense (-date YYYY-MM-DD, -description D)
  list                          all expenses, newest first
  totals                        total per category
  summary                       headline figures and monthly totals
  import -file F                load expenses from a CSV file
  export -format F -out PATH    write csv, xlsx or pdf ("-" for stdout)
`

// App runs cashcraft subcommands against an expense service.
type App struct {
	svc    *services.ExpenseService
	dbPath string
	stdout io.Writer
	stderr io.Writer
	today  func() core.Date
}

func NewApp(svc *services.ExpenseService, dbPath string, stdout, stderr io.Writer) *App {
	return &App{
		svc:    svc,
		dbPath: dbPath,
		stdout: stdout,
		stderr: stderr,
		today:  core.Today,
	}
}

// ExitCode maps a command error to the process exit status: 0 on success,
// 2 for bad input, 1 for everything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage), core.IsValidation(err):
		return 2
	default:
		return 1
	}
}

// Run dispatches args[0] to its subcommand.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.stderr, usage)
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]
	ctx = applog.NewContext(ctx, applog.FromContext(ctx).With(applog.FieldCommand, cmd))

	switch cmd {
	case "init", "list", "totals", "summary":
		if len(rest) > 0 {
			return fmt.Errorf("%w: %s takes no arguments", ErrUsage, cmd)
		}
	}

	switch cmd {
	case "init":
		return a.runInit(ctx)
	case "add":
		return a.runAdd(ctx, rest)
	case "list":
		return a.runList(ctx)
	case "totals":
		return a.runTotals(ctx)
	case "summary":
		return a.runSummary(ctx)
	case "import":
		return a.runImport(ctx, rest)
	case "export":
		return a.runExport(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(a.stdout, usage)
		return nil
	default:
		fmt.Fprint(a.stderr, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func (a *App) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", ErrUsage, fs.Args())
	}
	return nil
}

func (a *App) runInit(ctx context.Context) error {
	if err := a.svc.Initialize(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Expense store ready at %s\n", a.dbPath)
	return nil
}

func (a *App) runAdd(ctx context.Context, args []string) error {
	fs := a.flagSet("add")
	date := fs.String("date", "", "expense date, YYYY-MM-DD (default today)")
	category := fs.String("category", "", "one of: "+strings.Join(core.KnownCategories, ", "))
	amount := fs.String("amount", "", "amount greater than 0, e.g. 12.50")
	description := fs.String("description", "", "optional note")
	if err := parseFlags(fs, args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	e := core.Expense{
		Date:        a.today(),
		Category:    strings.TrimSpace(*category),
		Description: strings.TrimSpace(*description),
	}
	if *date != "" {
		d, err := core.ParseDate(*date)
		if err != nil {
			return &core.ValidationError{Field: "date", Err: err}
		}
		e.Date = d
	}
	m, err := core.ParseAmount(*amount)
	if err != nil {
		return &core.ValidationError{Field: "amount", Err: err}
	}
	e.Amount = m
	if e.Category != "" && !core.IsKnownCategory(e.Category) {
		return &core.ValidationError{
			Field: "category",
			Err:   fmt.Errorf("unknown category %q (choose from %s)", e.Category, strings.Join(core.KnownCategories, ", ")),
		}
	}

	id, err := a.svc.Insert(ctx, e)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Added expense #%d: %s %s %s\n", id, e.Date, e.Category, e.Amount)
	return nil
}

func (a *App) runList(ctx context.Context) error {
	expenses, err := a.svc.QueryAll(ctx)
	if err != nil {
		return err
	}
	if len(expenses) == 0 {
		fmt.Fprintln(a.stdout, "No expenses recorded")
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tAMOUNT\tDESCRIPTION")
	for _, e := range expenses {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.Date, e.Category, e.Amount, e.Description)
	}
	return tw.Flush()
}

func (a *App) runTotals(ctx context.Context) error {
	totals, err := a.svc.QueryCategoryTotals(ctx)
	if err != nil {
		return err
	}
	if len(totals) == 0 {
		fmt.Fprintln(a.stdout, "No data to display")
		return nil
	}

	var grand core.Money
	for _, m := range totals {
		grand = grand.Add(m)
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tTOTAL\tSHARE")
	for _, c := range core.SortedCategories(totals) {
		fmt.Fprintf(tw, "%s\t%s\t%.1f%%\n", c.Name, c.Amount, core.Share(c.Amount, grand))
	}
	fmt.Fprintf(tw, "TOTAL\t%s\t\n", grand)
	return tw.Flush()
}

func (a *App) runSummary(ctx context.Context) error {
	s, err := a.svc.Summary(ctx)
	if err != nil {
		return err
	}
	monthly, err := a.svc.MonthlyTotals(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total expenses:\t%s\n", s.Total)
	fmt.Fprintf(tw, "Transactions:\t%d\n", s.Count)
	fmt.Fprintf(tw, "Average expense:\t%s\n", s.Average)
	if s.Count > 0 {
		fmt.Fprintf(tw, "Period:\t%s to %s\n", s.Earliest, s.Latest)
	}
	if len(monthly) > 0 {
		fmt.Fprintln(tw, "\nMONTH\tTOTAL")
		for _, m := range monthly {
			fmt.Fprintf(tw, "%s\t%s\n", m.Month, m.Amount)
		}
	}
	return tw.Flush()
}

func (a *App) runImport(ctx context.Context, args []string) error {
	fs := a.flagSet("import")
	path := fs.String("file", "", "CSV file with date, category, amount and optional description columns")
	if err := parseFlags(fs, args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if *path == "" {
		return fmt.Errorf("%w: import requires -file", ErrUsage)
	}

	f, err := os.Open(*path)
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	res, err := importer.Import(ctx, f, a.svc)
	if res != nil {
		for _, skipped := range res.Skipped {
			fmt.Fprintf(a.stderr, "skipped %v\n", skipped)
		}
		fmt.Fprintf(a.stdout, "Imported %d rows, skipped %d\n", len(res.Imported), len(res.Skipped))
	}
	return err
}

func (a *App) runExport(ctx context.Context, args []string) error {
	fs := a.flagSet("export")
	formatName := fs.String("format", "", "csv, xlsx or pdf (default from -out extension, else csv)")
	out := fs.String("out", "-", "output file, - for stdout")
	if err := parseFlags(fs, args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	name := *formatName
	if name == "" {
		name = string(export.FormatCSV)
		if ext := filepath.Ext(*out); ext != "" && *out != "-" {
			name = ext
		}
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	report, err := export.Load(ctx, a.svc)
	if err != nil {
		return err
	}

	if *out == "" || *out == "-" {
		return export.Write(a.stdout, format, report)
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := export.Write(f, format, report); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentExport).InfoContext(ctx, "Export written",
		applog.FieldPath, *out,
		applog.FieldFormat, string(format),
		applog.FieldCount, len(report.Expenses))
	fmt.Fprintf(a.stdout, "Exported %d expenses to %s\n", len(report.Expenses), *out)
	return nil
}
