package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/spendline/spendline/internal/cli"
	"github.com/spendline/spendline/internal/model"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Current month spending against the budget",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	ws, u, err := signedIn(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	progress("Loading summary...")
	s, err := ws.Reports.Summary(ctx)
	if err != nil {
		return err
	}
	unread, err := ws.Gateway.UnreadCount(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("SPENDLINE  " + u.Username))
	fmt.Println()

	rows := [][]string{
		{"Spent this month", cli.FormatMoney(s.CurrentMonthTotal)},
		{"Budget", cli.FormatMoney(s.Budget)},
		{"Remaining", cli.FormatMoney(s.RemainingBudget)},
	}

	cats := make([]model.Category, 0, len(s.CategoryBreakdown))
	for c := range s.CategoryBreakdown {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		return s.CategoryBreakdown[cats[i]].GreaterThan(s.CategoryBreakdown[cats[j]])
	})
	if len(cats) > 0 {
		rows = append(rows, []string{"---"})
		for _, c := range cats {
			rows = append(rows, []string{c.String(), cli.FormatMoney(s.CategoryBreakdown[c])})
		}
	}
	rows = append(rows, []string{"---"}, []string{"Unread notifications", cli.FormatNumber(int64(unread))})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if bar := cli.RenderBudgetBar(s.CurrentMonthTotal, s.Budget, 30); bar != "" {
		fmt.Println()
		fmt.Printf("  %s\n", bar)
	} else {
		fmt.Println()
		fmt.Println("  " + cli.RenderMuted("No monthly budget set. Try `spendline profile update --budget 500`."))
	}
	return nil
}
