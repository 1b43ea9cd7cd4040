package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"dailyexpense/internal/amqp"
	"dailyexpense/internal/core"
	"dailyexpense/internal/report"
	"dailyexpense/internal/sheets"
)

// TransactionLister is the read side of the store the worker needs.
type TransactionLister interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
}

// ReportWorker mirrors the full transaction report into a sheet whenever
// the ledger changes.
type ReportWorker struct {
	store  TransactionLister
	writer sheets.ReportWriter

	mu       sync.Mutex
	lastSeen string
}

func NewReportWorker(store TransactionLister, writer sheets.ReportWriter) *ReportWorker {
	return &ReportWorker{store: store, writer: writer}
}

// HandleLedgerChanged rebuilds the report from the store. Messages carry
// no data, so replays and out-of-order deliveries converge on the same
// sheet contents.
func (w *ReportWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	w.mu.Lock()
	dup := msg.MessageID != "" && msg.MessageID == w.lastSeen
	w.mu.Unlock()
	if dup {
		slog.DebugContext(ctx, "Skipping redelivered message", "message_id", msg.MessageID)
		return nil
	}

	slog.InfoContext(ctx, "Processing ledger change",
		"message_id", msg.MessageID,
		"entity", msg.Entity,
		"action", msg.Action,
		"version", msg.Version)

	if err := w.Sync(ctx); err != nil {
		return err
	}

	w.mu.Lock()
	w.lastSeen = msg.MessageID
	w.mu.Unlock()
	return nil
}

// Sync writes the current store contents to the sheet.
func (w *ReportWorker) Sync(ctx context.Context) error {
	txs, err := w.store.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}

	rows := report.Table(report.BuildRows(txs))
	if err := w.writer.WriteReport(ctx, rows); err != nil {
		return fmt.Errorf("write report sheet: %w", err)
	}

	slog.InfoContext(ctx, "Report sheet synchronized", "transactions", len(txs))
	return nil
}
