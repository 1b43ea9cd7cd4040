package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"dailyexpense/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func tx(cat core.Category, desc, amount string, when time.Time, typ core.TransactionType) core.Transaction {
	return core.Transaction{
		Category:    cat,
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
		Date:        when,
		Type:        typ,
	}
}

func TestTransactionsCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	day := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	salaryID, err := repo.InsertTransaction(ctx, tx(core.Salary, "Salary", "1000", day, core.Income))
	require.NoError(t, err)
	lunchID, err := repo.InsertTransaction(ctx, tx(core.Food, "Lunch", "12.35", day.Add(time.Hour), core.Expense))
	require.NoError(t, err)
	require.NotEqual(t, salaryID, lunchID)

	all, err := repo.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, lunchID, all[0].ID, "newest first")
	require.Equal(t, "12.35", all[0].Amount.String())
	require.True(t, all[0].Date.Equal(day.Add(time.Hour)))

	lunch := all[0]
	lunch.Description = "Team lunch"
	lunch.Amount = decimal.RequireFromString("20")
	require.NoError(t, repo.UpdateTransaction(ctx, lunch))

	got, err := repo.GetTransaction(ctx, lunchID)
	require.NoError(t, err)
	require.Equal(t, "Team lunch", got.Description)

	balance, err := repo.CurrentBalance(ctx)
	require.NoError(t, err)
	require.Equal(t, "980", balance.String())

	require.NoError(t, repo.DeleteTransaction(ctx, salaryID))
	err = repo.DeleteTransaction(ctx, salaryID)
	require.True(t, errors.Is(err, core.ErrNotFound))

	_, err = repo.GetTransaction(ctx, salaryID)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestInsertReplacesSameID(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	now := time.Now()
	first := tx(core.Food, "Coffee", "3", now, core.Expense)
	first.ID = 42
	_, err := repo.InsertTransaction(ctx, first)
	require.NoError(t, err)

	first.Amount = decimal.RequireFromString("4.50")
	_, err = repo.InsertTransaction(ctx, first)
	require.NoError(t, err)

	all, err := repo.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "4.5", all[0].Amount.String())
}

func TestRangeAndCategoryQueries(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	d1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	for _, item := range []core.Transaction{
		tx(core.Food, "Breakfast", "5", d1, core.Expense),
		tx(core.Food, "Dinner", "15", d2, core.Expense),
		tx(core.Rent, "Rent", "500", d2, core.Expense),
		tx(core.Salary, "Salary", "2000", d1, core.Income),
	} {
		_, err := repo.InsertTransaction(ctx, item)
		require.NoError(t, err)
	}

	inRange, err := repo.ListTransactionsByRange(ctx, d2, d2.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, inRange, 2)

	sums, err := repo.CategoryWiseSum(ctx, core.Expense)
	require.NoError(t, err)
	require.Len(t, sums, 2)
	total := decimal.Zero
	for _, s := range sums {
		total = total.Add(s.TotalAmount)
	}
	require.Equal(t, "520", total.String())

	daySums, err := repo.CategoryWiseSumByRange(ctx, core.Expense, d1, d1.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, daySums, 1)
	require.Equal(t, core.Food, daySums[0].Category)

	incomes, err := repo.ListTransactionsByType(ctx, core.Income)
	require.NoError(t, err)
	require.Len(t, incomes, 1)
}

func TestUnknownKeysFallBack(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.queries.UpsertTransaction(ctx, TransactionRow{
		Category:        "LOTTERY",
		Description:     "Ticket",
		Amount:          "2",
		Date:            time.Now().UnixMilli(),
		TransactionType: "???",
	})
	require.NoError(t, err)
	_, err = repo.queries.UpsertNote(ctx, NoteRow{Amount: "1", Description: "x", Date: 1, Type: "IOU"})
	require.NoError(t, err)

	txs, err := repo.ListTransactions(ctx)
	require.NoError(t, err)
	require.Equal(t, core.Others, txs[0].Category)
	require.Equal(t, core.Expense, txs[0].Type)

	notes, err := repo.ListNotes(ctx)
	require.NoError(t, err)
	require.Equal(t, core.Debt, notes[0].Type)
}

func TestNotes(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	now := time.Now()
	first, err := repo.InsertNote(ctx, core.Note{Amount: decimal.NewFromInt(10), Description: "Owed to Kim", Date: now, Type: core.Debt})
	require.NoError(t, err)
	second, err := repo.InsertNote(ctx, core.Note{Amount: decimal.NewFromInt(25), Description: "Lent to Lee", Date: now, Type: core.Receivable})
	require.NoError(t, err)

	notes, err := repo.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	require.Equal(t, second, notes[0].ID, "highest id first")

	debts, err := repo.ListNotesByType(ctx, core.Debt)
	require.NoError(t, err)
	require.Len(t, debts, 1)
	require.Equal(t, first, debts[0].ID)

	require.NoError(t, repo.DeleteNote(ctx, first))
	require.ErrorIs(t, repo.DeleteNote(ctx, first), core.ErrNotFound)
}

func TestReplaceAll(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.InsertTransaction(ctx, tx(core.Food, "Old", "1", time.Now(), core.Expense))
	require.NoError(t, err)
	_, err = repo.InsertNote(ctx, core.Note{Amount: decimal.NewFromInt(1), Description: "Old", Date: time.Now(), Type: core.Debt})
	require.NoError(t, err)

	when := time.UnixMilli(1_700_000_000_000)
	backup := core.AppBackupData{
		Transactions: []core.Transaction{
			{ID: 7, Category: core.Gift, Description: "Present", Amount: decimal.RequireFromString("99.99"), Date: when, Type: core.Income},
		},
		Notes: []core.Note{
			{ID: 3, Amount: decimal.NewFromInt(5), Description: "Snacks", Date: when, Type: core.Receivable},
		},
	}
	require.NoError(t, repo.ReplaceAll(ctx, backup))

	txs, err := repo.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, int64(7), txs[0].ID)
	require.Equal(t, "99.99", txs[0].Amount.String())
	require.Equal(t, when.UnixMilli(), txs[0].Date.UnixMilli())

	notes, err := repo.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, "Snacks", notes[0].Description)
}

func TestReplaceAllRollsBackOnCancel(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.InsertTransaction(context.Background(), tx(core.Food, "Keep me", "1", time.Now(), core.Expense))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, repo.ReplaceAll(ctx, core.AppBackupData{}))

	txs, err := repo.ListTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 1)
}
