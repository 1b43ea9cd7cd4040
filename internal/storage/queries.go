package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the raw SQL of the store. Values crossing this layer are
// plain rows; mapping to domain types happens in the repository.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// TransactionRow mirrors one row of the transactions table.
type TransactionRow struct {
	ID              int64
	Category        string
	Description     string
	Amount          string
	Date            int64
	TransactionType string
}

// NoteRow mirrors one row of the notes table.
type NoteRow struct {
	ID          int64
	Amount      string
	Description string
	Date        int64
	Type        string
}

const transactionColumns = `id, category, description, amount, date, transaction_type`

const upsertTransaction = `INSERT OR REPLACE INTO transactions (id, category, description, amount, date, transaction_type)
VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?)`

// UpsertTransaction inserts a row, replacing any existing row with the same
// id. A zero id lets SQLite assign one.
func (q *Queries) UpsertTransaction(ctx context.Context, arg TransactionRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, upsertTransaction,
		arg.ID, arg.Category, arg.Description, arg.Amount, arg.Date, arg.TransactionType)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const updateTransaction = `UPDATE transactions
SET category = ?, description = ?, amount = ?, date = ?, transaction_type = ?
WHERE id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, arg TransactionRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Category, arg.Description, arg.Amount, arg.Date, arg.TransactionType, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteAllTransactions = `DELETE FROM transactions`

func (q *Queries) DeleteAllTransactions(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllTransactions)
	return err
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (TransactionRow, error) {
	var r TransactionRow
	err := q.db.QueryRowContext(ctx, getTransaction, id).Scan(
		&r.ID, &r.Category, &r.Description, &r.Amount, &r.Date, &r.TransactionType)
	return r, err
}

const listTransactions = `SELECT ` + transactionColumns + ` FROM transactions ORDER BY date DESC, id DESC`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, listTransactions)
}

const listTransactionsByType = `SELECT ` + transactionColumns + ` FROM transactions
WHERE transaction_type = ? ORDER BY date DESC, id DESC`

func (q *Queries) ListTransactionsByType(ctx context.Context, transactionType string) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, listTransactionsByType, transactionType)
}

const listTransactionsByRange = `SELECT ` + transactionColumns + ` FROM transactions
WHERE date BETWEEN ? AND ? ORDER BY date DESC, id DESC`

func (q *Queries) ListTransactionsByRange(ctx context.Context, start, end int64) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, listTransactionsByRange, start, end)
}

const listTransactionsByTypeAndRange = `SELECT ` + transactionColumns + ` FROM transactions
WHERE transaction_type = ? AND date BETWEEN ? AND ? ORDER BY date DESC, id DESC`

func (q *Queries) ListTransactionsByTypeAndRange(ctx context.Context, transactionType string, start, end int64) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, listTransactionsByTypeAndRange, transactionType, start, end)
}

func (q *Queries) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TransactionRow
	for rows.Next() {
		var r TransactionRow
		if err := rows.Scan(&r.ID, &r.Category, &r.Description, &r.Amount, &r.Date, &r.TransactionType); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertNote = `INSERT OR REPLACE INTO notes (id, amount, description, date, type)
VALUES (NULLIF(?, 0), ?, ?, ?, ?)`

func (q *Queries) UpsertNote(ctx context.Context, arg NoteRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, upsertNote, arg.ID, arg.Amount, arg.Description, arg.Date, arg.Type)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const deleteNote = `DELETE FROM notes WHERE id = ?`

func (q *Queries) DeleteNote(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteNote, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteAllNotes = `DELETE FROM notes`

func (q *Queries) DeleteAllNotes(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllNotes)
	return err
}

const listNotes = `SELECT id, amount, description, date, type FROM notes ORDER BY id DESC`

func (q *Queries) ListNotes(ctx context.Context) ([]NoteRow, error) {
	return q.queryNotes(ctx, listNotes)
}

const listNotesByType = `SELECT id, amount, description, date, type FROM notes WHERE type = ? ORDER BY id DESC`

func (q *Queries) ListNotesByType(ctx context.Context, noteType string) ([]NoteRow, error) {
	return q.queryNotes(ctx, listNotesByType, noteType)
}

func (q *Queries) queryNotes(ctx context.Context, query string, args ...interface{}) ([]NoteRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []NoteRow
	for rows.Next() {
		var r NoteRow
		if err := rows.Scan(&r.ID, &r.Amount, &r.Description, &r.Date, &r.Type); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
