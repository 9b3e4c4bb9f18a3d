package report

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendline/spendline/internal/model"
)

const dateLayout = "2006-01-02"

var header = []string{"Date", "Description", "Category", "Amount"}

// Filename is the default export name for a monthly report.
func Filename(year int, month time.Month) string {
	return fmt.Sprintf("monthly-report-%04d-%02d.csv", year, int(month))
}

// WriteCSV writes r's expenses in report order. Descriptions are always
// quoted; amounts carry exactly two decimals.
func WriteCSV(w io.Writer, r model.MonthlyReport) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(header, ",") + "\n"); err != nil {
		return err
	}
	for _, e := range r.Expenses {
		line := strings.Join([]string{
			e.Date.Format(dateLayout),
			quote(e.Description),
			quoteIfNeeded(e.Category.String()),
			e.Amount.StringFixed(2),
		}, ",")
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteIfNeeded(s string) string {
	if strings.ContainsAny(s, "\",\r\n") || strings.TrimSpace(s) != s {
		return quote(s)
	}
	return s
}

// Row is one parsed export line.
type Row struct {
	Date        time.Time
	Description string
	Category    model.Category
	Amount      decimal.Decimal
}

// ParseCSV reads back what WriteCSV produced.
func ParseCSV(rd io.Reader) ([]Row, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = len(header)

	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty report")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if strings.Join(first, ",") != strings.Join(header, ",") {
		return nil, fmt.Errorf("unexpected header %q", strings.Join(first, ","))
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		date, err := time.Parse(dateLayout, rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: date: %w", line, err)
		}
		amount, err := decimal.NewFromString(rec[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: amount: %w", line, err)
		}
		rows = append(rows, Row{Date: date, Description: rec[1], Category: model.Category(rec[2]), Amount: amount})
	}
}

// Total sums the parsed amounts.
func Total(rows []Row) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.Amount)
	}
	return sum
}
