// Package ledger derives balances, totals and per-category sums from
// transaction snapshots.
//
// Every function here is pure and total: inputs are never modified and an
// empty input yields zero or neutral values, never an error.
package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dailyexpense/internal/core"
)

// neutralRatio is shown when there is nothing to compare.
const neutralRatio = 0.5

// SumByType totals the amounts of one transaction type.
func SumByType(txs []core.Transaction, t core.TransactionType) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range txs {
		if tx.Type == t {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum
}

// CurrentBalance is total income minus total expense.
func CurrentBalance(txs []core.Transaction) decimal.Decimal {
	return SumByType(txs, core.Income).Sub(SumByType(txs, core.Expense))
}

// CategoryWiseSum groups transactions of type t by category. Only
// categories that occur are returned, in order of first appearance.
func CategoryWiseSum(txs []core.Transaction, t core.TransactionType) []core.CategorySum {
	index := make(map[core.Category]int)
	var sums []core.CategorySum
	for _, tx := range txs {
		if tx.Type != t {
			continue
		}
		i, ok := index[tx.Category]
		if !ok {
			i = len(sums)
			index[tx.Category] = i
			sums = append(sums, core.CategorySum{Category: tx.Category, TotalAmount: decimal.Zero})
		}
		sums[i].TotalAmount = sums[i].TotalAmount.Add(tx.Amount)
	}
	return sums
}

// Between keeps transactions whose date lies in [start, end], both ends
// inclusive, compared at the instant level.
func Between(txs []core.Transaction, start, end time.Time) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !tx.Date.Before(start) && !tx.Date.After(end) {
			out = append(out, tx)
		}
	}
	return out
}

// ByDateRange keeps transactions dated from the first instant of start's
// day through the last millisecond of end's day. Passing the same day for
// both selects that whole day.
func ByDateRange(txs []core.Transaction, start, end time.Time) []core.Transaction {
	from, _ := DayRange(start)
	_, to := DayRange(end)
	return Between(txs, from, to)
}

// IncomeProgressRatio is income's share of income+expense, clamped to
// [0, 1]. With nothing recorded it is 0.5.
func IncomeProgressRatio(totalIncome, totalExpense decimal.Decimal) float64 {
	total := totalIncome.Add(totalExpense)
	if !total.IsPositive() {
		return neutralRatio
	}
	r := totalIncome.Div(total).InexactFloat64()
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}

// MatchesQuery reports whether the description contains q, ignoring case.
// An empty query matches everything.
func MatchesQuery(tx core.Transaction, q string) bool {
	return strings.Contains(strings.ToLower(tx.Description), strings.ToLower(q))
}

// Search keeps transactions whose description matches q.
func Search(txs []core.Transaction, q string) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if MatchesQuery(tx, q) {
			out = append(out, tx)
		}
	}
	return out
}

// Totals summarises a filtered transaction set.
type Totals struct {
	Income         decimal.Decimal
	Expense        decimal.Decimal
	Balance        decimal.Decimal
	IncomeProgress float64
}

// ComputeTotals derives the summary card figures for txs.
func ComputeTotals(txs []core.Transaction) Totals {
	income := SumByType(txs, core.Income)
	expense := SumByType(txs, core.Expense)
	return Totals{
		Income:         income,
		Expense:        expense,
		Balance:        income.Sub(expense),
		IncomeProgress: IncomeProgressRatio(income, expense),
	}
}

// Filter combines the list-screen selectors. Zero fields match everything.
type Filter struct {
	Type     core.TransactionType
	Category core.Category
	Query    string
	Day      time.Time
}

// Apply returns the transactions that pass every selector, keeping order.
func (f Filter) Apply(txs []core.Transaction) []core.Transaction {
	var dayStart, dayEnd time.Time
	byDay := !f.Day.IsZero()
	if byDay {
		dayStart, dayEnd = DayRange(f.Day)
	}

	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if f.Category != "" && tx.Category != f.Category {
			continue
		}
		if !MatchesQuery(tx, f.Query) {
			continue
		}
		if byDay && (tx.Date.Before(dayStart) || tx.Date.After(dayEnd)) {
			continue
		}
		out = append(out, tx)
	}
	return out
}
