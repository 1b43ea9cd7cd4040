package ledger

import (
	"github.com/shopspring/decimal"

	"dailyexpense/internal/core"
)

// NoteSummary is the header card of the notes list.
type NoteSummary struct {
	TotalDebt          decimal.Decimal
	TotalReceivable    decimal.Decimal
	Balance            decimal.Decimal // receivable minus debt
	ReceivableProgress float64
}

// FilterNotes keeps notes of type t; an empty t keeps all of them.
func FilterNotes(notes []core.Note, t core.NoteType) []core.Note {
	if t == "" {
		return append([]core.Note(nil), notes...)
	}
	out := make([]core.Note, 0, len(notes))
	for _, n := range notes {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// SummarizeNotes totals debts and receivables.
func SummarizeNotes(notes []core.Note) NoteSummary {
	debt, receivable := decimal.Zero, decimal.Zero
	for _, n := range notes {
		if n.Type == core.Receivable {
			receivable = receivable.Add(n.Amount)
		} else {
			debt = debt.Add(n.Amount)
		}
	}
	return NoteSummary{
		TotalDebt:          debt,
		TotalReceivable:    receivable,
		Balance:            receivable.Sub(debt),
		ReceivableProgress: IncomeProgressRatio(receivable, debt),
	}
}
