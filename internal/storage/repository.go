package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"dailyexpense/internal/core"
	"dailyexpense/internal/ledger"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single connection keeps writers serialized on the same file
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// InsertTransaction stores t, replacing any row that shares its id. It
// returns the id the row was stored under.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	id, err := r.queries.UpsertTransaction(ctx, toTransactionRow(t))
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	slog.DebugContext(ctx, "Transaction saved",
		"id", id,
		"type", t.Type,
		"category", t.Category)
	return id, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	n, err := r.queries.UpdateTransaction(ctx, toTransactionRow(t))
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update transaction %d: %w", t.ID, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete transaction %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteAllTransactions(ctx context.Context) error {
	if err := r.queries.DeleteAllTransactions(ctx); err != nil {
		return fmt.Errorf("delete all transactions: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return fromTransactionRow(row)
}

// ListTransactions returns every transaction, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return fromTransactionRows(rows)
}

func (r *SQLiteRepository) ListTransactionsByType(ctx context.Context, t core.TransactionType) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByType(ctx, string(t))
	if err != nil {
		return nil, fmt.Errorf("list %s transactions: %w", t, err)
	}
	return fromTransactionRows(rows)
}

// ListTransactionsByRange returns transactions dated within [start, end].
func (r *SQLiteRepository) ListTransactionsByRange(ctx context.Context, start, end time.Time) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByRange(ctx, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list transactions by range: %w", err)
	}
	return fromTransactionRows(rows)
}

// CurrentBalance is total income minus total expense over all rows.
// Amounts are summed as decimals rather than in SQL to stay exact.
func (r *SQLiteRepository) CurrentBalance(ctx context.Context) (decimal.Decimal, error) {
	txs, err := r.ListTransactions(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("current balance: %w", err)
	}
	return ledger.CurrentBalance(txs), nil
}

func (r *SQLiteRepository) CategoryWiseSum(ctx context.Context, t core.TransactionType) ([]core.CategorySum, error) {
	txs, err := r.ListTransactionsByType(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("category sums: %w", err)
	}
	return ledger.CategoryWiseSum(txs, t), nil
}

func (r *SQLiteRepository) CategoryWiseSumByRange(ctx context.Context, t core.TransactionType, start, end time.Time) ([]core.CategorySum, error) {
	rows, err := r.queries.ListTransactionsByTypeAndRange(ctx, string(t), start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("category sums by range: %w", err)
	}
	txs, err := fromTransactionRows(rows)
	if err != nil {
		return nil, err
	}
	return ledger.CategoryWiseSum(txs, t), nil
}

func (r *SQLiteRepository) InsertNote(ctx context.Context, n core.Note) (int64, error) {
	id, err := r.queries.UpsertNote(ctx, toNoteRow(n))
	if err != nil {
		return 0, fmt.Errorf("insert note: %w", err)
	}
	slog.DebugContext(ctx, "Note saved", "id", id, "type", n.Type)
	return id, nil
}

func (r *SQLiteRepository) DeleteNote(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteNote(ctx, id)
	if err != nil {
		return fmt.Errorf("delete note %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete note %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteAllNotes(ctx context.Context) error {
	if err := r.queries.DeleteAllNotes(ctx); err != nil {
		return fmt.Errorf("delete all notes: %w", err)
	}
	return nil
}

// ListNotes returns every note, most recently created first.
func (r *SQLiteRepository) ListNotes(ctx context.Context) ([]core.Note, error) {
	rows, err := r.queries.ListNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return fromNoteRows(rows)
}

func (r *SQLiteRepository) ListNotesByType(ctx context.Context, t core.NoteType) ([]core.Note, error) {
	rows, err := r.queries.ListNotesByType(ctx, string(t))
	if err != nil {
		return nil, fmt.Errorf("list %s notes: %w", t, err)
	}
	return fromNoteRows(rows)
}

// ReplaceAll swaps the whole store for data. Both tables are cleared and
// refilled inside one transaction; on any failure nothing changes.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, data core.AppBackupData) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin restore: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.ErrorContext(ctx, "Restore rollback failed", "error", rbErr)
			}
		}
	}()

	q := r.queries.WithTx(tx)
	if err = q.DeleteAllTransactions(ctx); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	if err = q.DeleteAllNotes(ctx); err != nil {
		return fmt.Errorf("clear notes: %w", err)
	}
	for _, t := range data.Transactions {
		if _, err = q.UpsertTransaction(ctx, toTransactionRow(t)); err != nil {
			return fmt.Errorf("restore transaction %d: %w", t.ID, err)
		}
	}
	for _, n := range data.Notes {
		if _, err = q.UpsertNote(ctx, toNoteRow(n)); err != nil {
			return fmt.Errorf("restore note %d: %w", n.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit restore: %w", err)
	}

	slog.InfoContext(ctx, "Store replaced from backup",
		"transactions", len(data.Transactions),
		"notes", len(data.Notes))
	return nil
}

func toTransactionRow(t core.Transaction) TransactionRow {
	return TransactionRow{
		ID:              t.ID,
		Category:        string(t.Category),
		Description:     t.Description,
		Amount:          t.Amount.String(),
		Date:            t.Date.UnixMilli(),
		TransactionType: string(t.Type),
	}
}

func fromTransactionRow(r TransactionRow) (core.Transaction, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d amount %q: %w", r.ID, r.Amount, err)
	}
	t := core.Transaction{
		ID:          r.ID,
		Category:    core.Category(r.Category),
		Description: r.Description,
		Amount:      amount,
		Date:        core.FromMillis(r.Date),
		Type:        core.TransactionType(r.TransactionType),
	}
	return t.Normalize(), nil
}

func fromTransactionRows(rows []TransactionRow) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := fromTransactionRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func toNoteRow(n core.Note) NoteRow {
	return NoteRow{
		ID:          n.ID,
		Amount:      n.Amount.String(),
		Description: n.Description,
		Date:        n.Date.UnixMilli(),
		Type:        string(n.Type),
	}
}

func fromNoteRows(rows []NoteRow) ([]core.Note, error) {
	out := make([]core.Note, 0, len(rows))
	for _, row := range rows {
		amount, err := decimal.NewFromString(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("note %d amount %q: %w", row.ID, row.Amount, err)
		}
		n := core.Note{
			ID:          row.ID,
			Amount:      amount,
			Description: row.Description,
			Date:        core.FromMillis(row.Date),
			Type:        core.NoteType(row.Type),
		}
		out = append(out, n.Normalize())
	}
	return out, nil
}
