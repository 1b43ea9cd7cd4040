package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"dailyexpense/internal/core"
	"dailyexpense/internal/ledger"
)

// Summary is the home screen state derived from one snapshot.
type Summary struct {
	Version           uint64
	Balance           decimal.Decimal
	Totals            ledger.Totals
	IncomeByCategory  []core.CategorySum
	ExpenseByCategory []core.CategorySum
	Notes             ledger.NoteSummary
}

// Summarize recomputes every figure from s.
func Summarize(s Snapshot) Summary {
	return Summary{
		Version:           s.Version,
		Balance:           ledger.CurrentBalance(s.Transactions),
		Totals:            ledger.ComputeTotals(s.Transactions),
		IncomeByCategory:  ledger.CategoryWiseSum(s.Transactions, core.Income),
		ExpenseByCategory: ledger.CategoryWiseSum(s.Transactions, core.Expense),
		Notes:             ledger.SummarizeNotes(s.Notes),
	}
}

// Dashboard keeps a Summary in step with the hub.
type Dashboard struct {
	hub *Hub

	mu     sync.RWMutex
	latest Summary
}

func NewDashboard(hub *Hub) *Dashboard {
	return &Dashboard{hub: hub, latest: Summarize(hub.Current())}
}

// Run recomputes the summary on every snapshot until ctx is done.
func (d *Dashboard) Run(ctx context.Context) {
	for snap := range d.hub.Subscribe(ctx) {
		sum := Summarize(snap)
		d.mu.Lock()
		d.latest = sum
		d.mu.Unlock()
		slog.DebugContext(ctx, "Dashboard refreshed", "version", sum.Version)
	}
}

// Latest returns the most recent summary.
func (d *Dashboard) Latest() Summary {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.latest
}
