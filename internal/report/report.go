// Package report turns transactions into tabular rows and writes them as
// spreadsheet files.
package report

import (
	"errors"

	"dailyexpense/internal/core"
)

// ErrNoTransactions is returned when asked to write an empty report.
var ErrNoTransactions = errors.New("no transactions found to download")

// DateLayout renders report dates as "05 Mar 2024".
const DateLayout = "02 Jan 2006"

// Header is the first row of every report.
var Header = []string{"Date", "Category", "Description", "Amount", "Type"}

// Row is one formatted transaction line.
type Row struct {
	Date        string
	Category    string
	Description string
	Amount      string
	Type        string
}

// Values returns the row cells in Header order.
func (r Row) Values() []string {
	return []string{r.Date, r.Category, r.Description, r.Amount, r.Type}
}

// BuildRows formats txs in the given order.
func BuildRows(txs []core.Transaction) []Row {
	rows := make([]Row, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, Row{
			Date:        t.Date.Format(DateLayout),
			Category:    t.Category.Label(),
			Description: t.Description,
			Amount:      core.FormatAmount(t.Amount),
			Type:        t.Type.Label(),
		})
	}
	return rows
}

// Table is the header followed by every row, as plain cells.
func Table(rows []Row) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, append([]string(nil), Header...))
	for _, r := range rows {
		out = append(out, r.Values())
	}
	return out
}
