package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/spendline/spendline/internal/cli"
	"github.com/spendline/spendline/internal/model"
	"github.com/spendline/spendline/internal/query"
)

var (
	flagCategory string
	flagFrom     string
	flagTo       string
	flagSortBy   string
	flagOrder    string
	flagMatch    string

	flagAmount      string
	flagDescription string
	flagDate        string
)

var expensesCmd = &cobra.Command{
	Use:     "expenses",
	Aliases: []string{"exp"},
	Short:   "List and manage expenses",
	Args:    cobra.NoArgs,
	RunE:    runExpensesList,
}

var expensesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List expenses with optional filters",
	Args:  cobra.NoArgs,
	RunE:  runExpensesList,
}

var expensesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a new expense",
	Args:  cobra.NoArgs,
	RunE:  runExpensesAdd,
}

var expensesEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change fields of an existing expense",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpensesEdit,
}

var expensesRmCmd = &cobra.Command{
	Use:     "rm ID",
	Aliases: []string{"delete"},
	Short:   "Delete an expense",
	Args:    cobra.ExactArgs(1),
	RunE:    runExpensesRm,
}

func init() {
	for _, c := range []*cobra.Command{expensesCmd, expensesListCmd} {
		c.Flags().StringVarP(&flagCategory, "category", "c", "", "Only this category")
		c.Flags().StringVar(&flagFrom, "from", "", "Earliest date (YYYY-MM-DD)")
		c.Flags().StringVar(&flagTo, "to", "", "Latest date, inclusive (YYYY-MM-DD)")
		c.Flags().StringVarP(&flagSortBy, "sort", "s", "", "Sort by date, amount or category")
		c.Flags().StringVar(&flagOrder, "order", "", "Sort order: asc or desc")
		c.Flags().StringVarP(&flagMatch, "match", "m", "", "Description glob, e.g. '*coffee*'")
	}

	for _, c := range []*cobra.Command{expensesAddCmd, expensesEditCmd} {
		c.Flags().StringVarP(&flagAmount, "amount", "a", "", "Amount, e.g. 12.50")
		c.Flags().StringVarP(&flagCategory, "category", "c", "", "Category")
		c.Flags().StringVarP(&flagDescription, "description", "d", "", "Description")
		c.Flags().StringVar(&flagDate, "date", "", "Date (YYYY-MM-DD, default today)")
	}
	_ = expensesAddCmd.MarkFlagRequired("amount")
	_ = expensesAddCmd.MarkFlagRequired("category")
	_ = expensesAddCmd.MarkFlagRequired("description")

	expensesCmd.AddCommand(expensesListCmd, expensesAddCmd, expensesEditCmd, expensesRmCmd)
	rootCmd.AddCommand(expensesCmd)
}

func runExpensesList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	ws, _, err := signedIn(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	q, err := listQuery(ws.DefaultQuery())
	if err != nil {
		return err
	}

	progress("Loading expenses...")
	if _, err := ws.Expenses.Refresh(ctx); err != nil {
		return err
	}
	list := ws.Expenses.Query(q)

	if len(list) == 0 {
		fmt.Println("\n  No expenses match.")
		return nil
	}

	total := decimal.Zero
	rows := make([][]string, 0, len(list)+2)
	for _, e := range list {
		total = total.Add(e.Amount)
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			cli.FormatDate(e.Date.Time),
			cli.Truncate(e.Description, 40),
			e.Category.String(),
			cli.FormatMoney(e.Amount),
		})
	}
	rows = append(rows,
		[]string{"---"},
		[]string{"", "", fmt.Sprintf("%d expenses", len(list)), "", cli.FormatMoney(total)},
	)

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Expenses (" + q.Sort.String() + ")",
		Headers: []string{"ID", "Date", "Description", "Category", "Amount"},
		Rows:    rows,
		Right:   []int{4},
	}))
	return nil
}

// listQuery applies the list flags on top of base.
func listQuery(base query.Query) (query.Query, error) {
	q := base
	if flagCategory != "" {
		c, err := model.ParseCategory(flagCategory)
		if err != nil {
			return q, err
		}
		q.Category = c
	}
	if flagFrom != "" {
		ts, err := model.ParseTimestamp(flagFrom)
		if err != nil {
			return q, fmt.Errorf("--from: %w", err)
		}
		q.From = ts.Time
	}
	if flagTo != "" {
		ts, err := model.ParseTimestamp(flagTo)
		if err != nil {
			return q, fmt.Errorf("--to: %w", err)
		}
		q.To = query.EndOfDay(ts.Time)
	}
	q.Match = flagMatch
	if flagSortBy != "" {
		f, err := query.ParseField(flagSortBy)
		if err != nil {
			return q, err
		}
		q.Sort.Field = f
	}
	if flagOrder != "" {
		o, err := query.ParseOrder(flagOrder)
		if err != nil {
			return q, err
		}
		q.Sort.Order = o
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return q, errors.New("--to is before --from")
	}
	return q, nil
}

func runExpensesAdd(cmd *cobra.Command, _ []string) error {
	d := model.Draft{Date: model.NewTimestamp(today())}
	if err := applyDraftFlags(cmd, &d); err != nil {
		return err
	}

	ctx := cmd.Context()
	ws, _, err := signedIn(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	e, err := ws.Expenses.Create(ctx, d)
	if err != nil {
		return err
	}
	fmt.Printf("  Added #%d  %s  %s  %s\n", e.ID, cli.FormatDate(e.Date.Time), e.Category, cli.FormatMoney(e.Amount))
	return nil
}

func runExpensesEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	ws, _, err := signedIn(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	current, err := ws.Gateway.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	d := model.DraftOf(current)
	if err := applyDraftFlags(cmd, &d); err != nil {
		return err
	}

	e, err := ws.Expenses.Update(ctx, id, d)
	if err != nil {
		return err
	}
	fmt.Printf("  Updated #%d  %s  %s  %s\n", e.ID, cli.FormatDate(e.Date.Time), e.Category, cli.FormatMoney(e.Amount))
	return nil
}

func runExpensesRm(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	ws, _, err := signedIn(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	if err := ws.Expenses.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Printf("  Deleted #%d\n", id)
	return nil
}

// applyDraftFlags overwrites the fields of d whose flags were set.
func applyDraftFlags(cmd *cobra.Command, d *model.Draft) error {
	fl := cmd.Flags()
	if fl.Changed("amount") {
		a, err := decimal.NewFromString(flagAmount)
		if err != nil {
			return fmt.Errorf("--amount: %q is not a number", flagAmount)
		}
		d.Amount = a
	}
	if fl.Changed("category") {
		c, err := model.ParseCategory(flagCategory)
		if err != nil {
			return err
		}
		d.Category = c
	}
	if fl.Changed("description") {
		d.Description = flagDescription
	}
	if fl.Changed("date") {
		ts, err := model.ParseTimestamp(flagDate)
		if err != nil {
			return fmt.Errorf("--date: %w", err)
		}
		d.Date = ts
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
