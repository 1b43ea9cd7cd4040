package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

type (
	// Transaction is a single money movement.
	Transaction struct {
		ID          int64 // 0 until the store assigns one
		Category    Category
		Description string
		Amount      decimal.Decimal
		Date        time.Time
		Type        TransactionType
	}

	// Note is an informal debt or receivable kept outside the ledger.
	Note struct {
		ID          int64
		Amount      decimal.Decimal
		Description string
		Date        time.Time
		Type        NoteType
	}

	// CategorySum is the derived total of one category for a transaction type.
	CategorySum struct {
		Category    Category
		TotalAmount decimal.Decimal
	}

	// AppBackupData is the unit of export and import.
	AppBackupData struct {
		Transactions []Transaction
		Notes        []Note
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrInvalidDate      = errors.New("invalid date")
	ErrDescriptionLong  = errors.New("description too long (max 200 characters)")
	ErrNotFound         = errors.New("record not found")
)

const maxDescriptionLen = 200

func validateDescription(desc string) error {
	if len(strings.TrimSpace(desc)) == 0 {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(desc) > maxDescriptionLen {
		return ErrDescriptionLong
	}
	return nil
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(string(t.Category)) == "" {
		return ErrEmptyCategory
	}
	if err := validateDescription(t.Description); err != nil {
		return err
	}
	if err := validateAmount(t.Amount); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (n Note) Validate() error {
	if err := validateDescription(n.Description); err != nil {
		return err
	}
	if err := validateAmount(n.Amount); err != nil {
		return err
	}
	if n.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsIncome reports whether the transaction counts towards income.
func (t Transaction) IsIncome() bool {
	return t.Type == Income
}

// Normalize resolves every enumerated field through its fallback so that
// values read from outside the process always map to a known variant.
func (t Transaction) Normalize() Transaction {
	t.Category = CategoryFromKey(string(t.Category))
	t.Type = TransactionTypeFromKey(string(t.Type))
	return t
}

func (n Note) Normalize() Note {
	n.Type = NoteTypeFromKey(string(n.Type))
	return n
}

// FromMillis converts a stored epoch-millisecond instant to local time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
