// Package backup reads and writes the portable JSON snapshot of the whole
// store.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"dailyexpense/internal/core"
)

// ErrMalformed marks a backup document that cannot be restored.
var ErrMalformed = errors.New("malformed backup")

const fileDateLayout = "2006_01_02"

type document struct {
	Transactions []transactionRecord `json:"transactions"`
	Notes        []noteRecord        `json:"notes"`
}

type transactionRecord struct {
	ID              int64       `json:"id"`
	Category        string      `json:"category"`
	Description     string      `json:"description"`
	Amount          json.Number `json:"amount"`
	Date            int64       `json:"date"`
	TransactionType string      `json:"transactionType"`
}

type noteRecord struct {
	ID          int64       `json:"id"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
	Date        int64       `json:"date"`
	Type        string      `json:"type"`
}

// FileName is the backup name for the day of now.
func FileName(now time.Time) string {
	return "DailyExpense_Backup_" + now.Format(fileDateLayout) + ".json"
}

// Encode writes data as an indented JSON document.
func Encode(w io.Writer, data core.AppBackupData) error {
	doc := document{
		Transactions: make([]transactionRecord, 0, len(data.Transactions)),
		Notes:        make([]noteRecord, 0, len(data.Notes)),
	}
	for _, t := range data.Transactions {
		doc.Transactions = append(doc.Transactions, transactionRecord{
			ID:              t.ID,
			Category:        string(t.Category),
			Description:     t.Description,
			Amount:          json.Number(t.Amount.String()),
			Date:            t.Date.UnixMilli(),
			TransactionType: string(t.Type),
		})
	}
	for _, n := range data.Notes {
		doc.Notes = append(doc.Notes, noteRecord{
			ID:          n.ID,
			Amount:      json.Number(n.Amount.String()),
			Description: n.Description,
			Date:        n.Date.UnixMilli(),
			Type:        string(n.Type),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// Decode parses a whole backup document. Either every record is returned
// or an error wrapping ErrMalformed; enum keys resolve through their
// fallbacks. Records must pass the same validation as new entries and ids
// must be unique within each list.
func Decode(r io.Reader) (core.AppBackupData, error) {
	dec := json.NewDecoder(r)
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return core.AppBackupData{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if dec.More() {
		return core.AppBackupData{}, fmt.Errorf("%w: trailing data after document", ErrMalformed)
	}
	if doc.Transactions == nil || doc.Notes == nil {
		return core.AppBackupData{}, fmt.Errorf("%w: missing transactions or notes", ErrMalformed)
	}

	data := core.AppBackupData{
		Transactions: make([]core.Transaction, 0, len(doc.Transactions)),
		Notes:        make([]core.Note, 0, len(doc.Notes)),
	}
	seen := make(map[int64]bool, len(doc.Transactions))
	for i, rec := range doc.Transactions {
		amount, err := decimal.NewFromString(rec.Amount.String())
		if err != nil {
			return core.AppBackupData{}, fmt.Errorf("%w: transaction %d amount: %v", ErrMalformed, i, err)
		}
		t := core.Transaction{
			ID:          rec.ID,
			Category:    core.Category(rec.Category),
			Description: rec.Description,
			Amount:      amount,
			Date:        core.FromMillis(rec.Date),
			Type:        core.TransactionType(rec.TransactionType),
		}
		t = t.Normalize()
		if err := t.Validate(); err != nil {
			return core.AppBackupData{}, fmt.Errorf("%w: transaction %d: %v", ErrMalformed, i, err)
		}
		if err := checkID(seen, rec.ID); err != nil {
			return core.AppBackupData{}, fmt.Errorf("%w: transaction %d: %v", ErrMalformed, i, err)
		}
		data.Transactions = append(data.Transactions, t)
	}

	seen = make(map[int64]bool, len(doc.Notes))
	for i, rec := range doc.Notes {
		amount, err := decimal.NewFromString(rec.Amount.String())
		if err != nil {
			return core.AppBackupData{}, fmt.Errorf("%w: note %d amount: %v", ErrMalformed, i, err)
		}
		n := core.Note{
			ID:          rec.ID,
			Amount:      amount,
			Description: rec.Description,
			Date:        core.FromMillis(rec.Date),
			Type:        core.NoteType(rec.Type),
		}
		n = n.Normalize()
		if err := n.Validate(); err != nil {
			return core.AppBackupData{}, fmt.Errorf("%w: note %d: %v", ErrMalformed, i, err)
		}
		if err := checkID(seen, rec.ID); err != nil {
			return core.AppBackupData{}, fmt.Errorf("%w: note %d: %v", ErrMalformed, i, err)
		}
		data.Notes = append(data.Notes, n)
	}
	return data, nil
}

// checkID records id in seen. Zero ids are assigned on restore and may repeat.
func checkID(seen map[int64]bool, id int64) error {
	if id == 0 {
		return nil
	}
	if seen[id] {
		return fmt.Errorf("duplicate id %d", id)
	}
	seen[id] = true
	return nil
}

// Export writes data to dir under the dated backup name and returns the
// file path. The file is written to a temporary name first so a failed
// export never leaves a truncated backup behind.
func Export(dir string, now time.Time, data core.AppBackupData) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	path := filepath.Join(dir, FileName(now))
	tmp, err := os.CreateTemp(dir, ".backup-*.json")
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close backup file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("move backup into place: %w", err)
	}
	return path, nil
}

// Import reads and parses the backup at path.
func Import(path string) (core.AppBackupData, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.AppBackupData{}, fmt.Errorf("open backup: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
