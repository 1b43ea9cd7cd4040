package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"dailyexpense/internal/amqp"
	"dailyexpense/internal/core"
	"dailyexpense/internal/report"
	"dailyexpense/internal/sheets/memory"
)

type stubLister struct {
	txs   []core.Transaction
	err   error
	calls int
}

func (s *stubLister) ListTransactions(context.Context) ([]core.Transaction, error) {
	s.calls++
	return s.txs, s.err
}

func TestHandleLedgerChangedMirrorsReport(t *testing.T) {
	store := &stubLister{txs: []core.Transaction{{
		Category:    core.Transport,
		Description: "Bus pass",
		Amount:      decimal.RequireFromString("35"),
		Date:        time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC),
		Type:        core.Expense,
	}}}
	sheet := memory.New()
	w := NewReportWorker(store, sheet)

	msg := amqp.NewLedgerChangedMessage(amqp.EntityTransaction, amqp.ActionCreated, 1, 2)
	require.NoError(t, w.HandleLedgerChanged(context.Background(), msg))

	rows := sheet.Rows()
	require.Len(t, rows, 2)
	require.Equal(t, report.Header, rows[0])
	require.Equal(t, []string{"01 Feb 2024", "Transport", "Bus pass", "35.00", "Expense"}, rows[1])

	// a redelivery of the same message is a no-op
	require.NoError(t, w.HandleLedgerChanged(context.Background(), msg))
	require.Equal(t, 1, store.calls)
	require.Equal(t, 1, sheet.Writes())
}

func TestHandleLedgerChangedEmptyStoreWritesHeaderOnly(t *testing.T) {
	sheet := memory.New()
	w := NewReportWorker(&stubLister{}, sheet)

	msg := amqp.NewLedgerChangedMessage(amqp.EntityStore, amqp.ActionRestored, 0, 1)
	require.NoError(t, w.HandleLedgerChanged(context.Background(), msg))
	require.Equal(t, [][]string{report.Header}, sheet.Rows())
}

func TestHandleLedgerChangedPropagatesStoreError(t *testing.T) {
	sheet := memory.New()
	w := NewReportWorker(&stubLister{err: errors.New("locked")}, sheet)

	msg := amqp.NewLedgerChangedMessage(amqp.EntityNote, amqp.ActionDeleted, 4, 9)
	err := w.HandleLedgerChanged(context.Background(), msg)
	require.Error(t, err)
	require.Zero(t, sheet.Writes())

	// the failed message is retried, not treated as already seen
	w.store = &stubLister{}
	require.NoError(t, w.HandleLedgerChanged(context.Background(), msg))
	require.Equal(t, 1, sheet.Writes())
}
