package backup

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"dailyexpense/internal/core"
)

func sampleData() core.AppBackupData {
	when := time.UnixMilli(1_709_280_000_000)
	return core.AppBackupData{
		Transactions: []core.Transaction{
			{ID: 2, Category: core.Food, Description: "Groceries", Amount: decimal.RequireFromString("45.10"), Date: when, Type: core.Expense},
			{ID: 1, Category: core.Salary, Description: "Pay", Amount: decimal.RequireFromString("2500"), Date: when.Add(-time.Hour), Type: core.Income},
		},
		Notes: []core.Note{
			{ID: 1, Amount: decimal.NewFromInt(20), Description: "Borrowed from Ana", Date: when, Type: core.Debt},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := sampleData()
	require.NoError(t, Encode(&buf, in))

	out, err := Decode(&buf)
	require.NoError(t, err)
	require.Len(t, out.Transactions, len(in.Transactions))
	require.Len(t, out.Notes, len(in.Notes))

	for i := range in.Transactions {
		want, got := in.Transactions[i], out.Transactions[i]
		require.Equal(t, want.ID, got.ID)
		require.Equal(t, want.Category, got.Category)
		require.Equal(t, want.Description, got.Description)
		require.True(t, want.Amount.Equal(got.Amount), "amount %s != %s", want.Amount, got.Amount)
		require.Equal(t, want.Date.UnixMilli(), got.Date.UnixMilli())
		require.Equal(t, want.Type, got.Type)
	}
	require.Equal(t, in.Notes[0].Description, out.Notes[0].Description)
	require.Equal(t, core.Debt, out.Notes[0].Type)
}

func TestEncodeWritesNumbersAndKeys(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleData()))
	doc := buf.String()

	require.Contains(t, doc, `"amount": 45.1`)
	require.Contains(t, doc, `"transactionType": "EXPENSE"`)
	require.Contains(t, doc, `"date": 1709280000000`)
}

func TestDecodeFallsBackOnUnknownKeys(t *testing.T) {
	doc := `{"transactions":[{"id":1,"category":"PETS","description":"Food","amount":3,"date":0,"transactionType":"GIFT"}],"notes":[{"id":1,"amount":1.5,"description":"x","date":0,"type":"LOAN"}]}`
	data, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, core.Others, data.Transactions[0].Category)
	require.Equal(t, core.Expense, data.Transactions[0].Type)
	require.Equal(t, core.Debt, data.Notes[0].Type)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for name, doc := range map[string]string{
		"not json":                 `hello`,
		"truncated":                `{"transactions":[`,
		"missing notes":            `{"transactions":[]}`,
		"null lists":               `{"transactions":null,"notes":null}`,
		"string amount":            `{"transactions":[{"amount":"ten"}],"notes":[]}`,
		"trailing object":          `{"transactions":[],"notes":[]} {}`,
		"negative amount":          `{"transactions":[{"id":1,"category":"FOOD","description":"Tea","amount":-5,"date":1,"transactionType":"EXPENSE"}],"notes":[]}`,
		"blank description":        `{"transactions":[{"id":1,"category":"FOOD","description":"   ","amount":5,"date":1,"transactionType":"EXPENSE"}],"notes":[]}`,
		"zero note amount":         `{"transactions":[],"notes":[{"id":1,"amount":0,"description":"Owed","date":1,"type":"DEBT"}]}`,
		"empty note description":   `{"transactions":[],"notes":[{"id":1,"amount":2,"description":"","date":1,"type":"DEBT"}]}`,
		"duplicate transaction id": `{"transactions":[{"id":7,"category":"FOOD","description":"A","amount":1,"date":1,"transactionType":"EXPENSE"},{"id":7,"category":"FOOD","description":"B","amount":2,"date":1,"transactionType":"EXPENSE"}],"notes":[]}`,
		"duplicate note id":        `{"transactions":[],"notes":[{"id":3,"amount":1,"description":"A","date":1,"type":"DEBT"},{"id":3,"amount":2,"description":"B","date":1,"type":"RECEIVABLE"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrMalformed), err.Error())
		})
	}
}

func TestEmptyBackupIsValid(t *testing.T) {
	data, err := Decode(strings.NewReader(`{"transactions":[],"notes":[]}`))
	require.NoError(t, err)
	require.Empty(t, data.Transactions)
	require.Empty(t, data.Notes)
}

func TestExportImport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Daily Expense", "Backup")
	now := time.Date(2024, 3, 5, 18, 30, 0, 0, time.UTC)

	path, err := Export(dir, now, sampleData())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "DailyExpense_Backup_2024_03_05.json"), path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary files left behind")

	data, err := Import(path)
	require.NoError(t, err)
	require.Len(t, data.Transactions, 2)

	_, err = Import(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrMalformed))
}
