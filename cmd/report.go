package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/spendline/spendline/internal/cli"
	"github.com/spendline/spendline/internal/model"
	"github.com/spendline/spendline/internal/report"
)

const stdoutPath = "-"

var (
	flagReportExport string
	flagExportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report [YYYY-MM]",
	Short: "Monthly report by category and day",
	Long: "Show the report for one month (default: the current month).\n" +
		"--export writes the month as CSV; without a value it uses the default file name, \"-\" writes to stdout.",
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download every expense as CSV from the server",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	reportCmd.Flags().StringVar(&flagReportExport, "export", "", "Write the report as CSV to FILE")
	reportCmd.Flags().Lookup("export").NoOptDefVal = "auto"

	exportCmd.Flags().StringVarP(&flagExportOutput, "output", "o", "", "Output file (default expense_data_<username>.csv, \"-\" for stdout)")

	rootCmd.AddCommand(reportCmd, exportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	year, month := time.Now().Year(), time.Now().Month()
	if len(args) == 1 {
		y, m, err := report.ParseMonth(args[0])
		if err != nil {
			return err
		}
		year, month = y, m
	}

	ctx := cmd.Context()
	ws, u, err := signedIn(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	progress("Loading %s...", monthTitle(year, month))
	r, err := ws.Reports.Select(ctx, year, month)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("export") {
		path := flagReportExport
		if path == "auto" {
			path = report.Filename(year, month)
		}
		if err := writeTo(path, func(w io.Writer) error { return report.WriteCSV(w, r) }); err != nil {
			return err
		}
		if path != stdoutPath {
			progress("Wrote %d expenses to %s", r.ExpenseCount, path)
		}
		return nil
	}

	printReport(r, u.MonthlyBudget)
	return nil
}

func printReport(r model.MonthlyReport, budget decimal.Decimal) {
	fmt.Println()
	fmt.Println(cli.RenderTitle("SPENDING  " + monthTitle(r.Year, r.Month)))
	fmt.Println()

	if r.ExpenseCount == 0 {
		fmt.Println("  No expenses this month.")
		return
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total", cli.FormatMoney(r.TotalExpenses)},
			{"Expenses", cli.FormatNumber(int64(r.ExpenseCount))},
			{"Categories", cli.FormatNumber(int64(len(r.CategoryBreakdown)))},
		},
	}))
	fmt.Println()

	type share struct {
		cat   model.Category
		total decimal.Decimal
	}
	shares := make([]share, 0, len(r.CategoryBreakdown))
	for c, t := range r.CategoryBreakdown {
		shares = append(shares, share{c, t})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].total.Equal(shares[j].total) {
			return shares[i].cat < shares[j].cat
		}
		return shares[i].total.GreaterThan(shares[j].total)
	})

	fmt.Println("  By category")
	for _, s := range shares {
		fmt.Println(cli.RenderHorizontalBar(s.cat.String(), s.total, shares[0].total, 14, 30))
	}
	fmt.Println()

	days := time.Date(r.Year, r.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	daily := make([]float64, days)
	for d, v := range r.DailyBreakdown {
		if d >= 1 && d <= days {
			daily[d-1], _ = v.Float64()
		}
	}
	fmt.Printf("  Daily  %s\n", cli.RenderSparkline(daily))
	if r.OutsideMonth > 0 {
		fmt.Println("  " + cli.RenderMuted(fmt.Sprintf("%d expenses dated outside %s are included as the server reported them", r.OutsideMonth, monthTitle(r.Year, r.Month))))
	}

	if bar := cli.RenderBudgetBar(r.TotalExpenses, budget, 30); bar != "" {
		fmt.Println()
		fmt.Printf("  Budget %s\n", bar)
		if r.TotalExpenses.GreaterThan(budget) {
			fmt.Println("  " + cli.RenderWarning("Over budget by "+cli.FormatMoney(r.TotalExpenses.Sub(budget))))
		}
	}
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	ws, u, err := signedIn(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	path := flagExportOutput
	if path == "" {
		path = "expense_data_" + u.Username + ".csv"
	}

	var n int64
	err = writeTo(path, func(w io.Writer) error {
		var werr error
		n, werr = ws.Gateway.ExportExpenses(ctx, w)
		return werr
	})
	if err != nil {
		return err
	}
	if path != stdoutPath {
		progress("Wrote %s bytes to %s", cli.FormatNumber(n), path)
	}
	return nil
}

// writeTo runs fn against path, or stdout for "-". A failed write removes
// the partial file.
func writeTo(path string, fn func(io.Writer) error) error {
	if path == stdoutPath {
		return fn(os.Stdout)
	}
	f, err := os.Create(path) //nolint:gosec // user-chosen output path
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

func monthTitle(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", month, year)
}
