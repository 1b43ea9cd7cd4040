package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dailyexpense/internal/core"
	"dailyexpense/internal/ledger"
)

// errBadRequest marks malformed requests, as opposed to well-formed
// requests carrying invalid values.
var errBadRequest = errors.New("bad request")

const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 32 << 20

	dayLayout = "2006-01-02"
)

// decodeJSON reads one JSON value from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, limit int64) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON body", errBadRequest)
	}
	return nil
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, raw)
	}
	return id, nil
}

// amountField accepts an amount as a JSON number or string.
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	switch {
	case string(b) == "null":
		*a = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountField(s)
	default:
		*a = amountField(b)
	}
	return nil
}

type transactionRequest struct {
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Amount      amountField `json:"amount"`
	Date        string      `json:"date"`
	Type        string      `json:"type"`
}

func (req transactionRequest) toTransaction(now time.Time) (core.Transaction, error) {
	category := strings.ToUpper(sanitizeInput(req.Category))
	if category == "" {
		return core.Transaction{}, core.ErrEmptyCategory
	}
	amount, err := core.ParseAmount(string(req.Amount))
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := parseDate(req.Date, now)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Category:    core.CategoryFromKey(category),
		Description: sanitizeInput(req.Description),
		Amount:      amount,
		Date:        date,
		Type:        core.TransactionTypeFromKey(strings.ToUpper(sanitizeInput(req.Type))),
	}, nil
}

type noteRequest struct {
	Description string      `json:"description"`
	Amount      amountField `json:"amount"`
	Date        string      `json:"date"`
	Type        string      `json:"type"`
}

func (req noteRequest) toNote(now time.Time) (core.Note, error) {
	amount, err := core.ParseAmount(string(req.Amount))
	if err != nil {
		return core.Note{}, err
	}
	date, err := parseDate(req.Date, now)
	if err != nil {
		return core.Note{}, err
	}
	return core.Note{
		Amount:      amount,
		Description: sanitizeInput(req.Description),
		Date:        date,
		Type:        core.NoteTypeFromKey(strings.ToUpper(sanitizeInput(req.Type))),
	}, nil
}

// parseDate accepts YYYY-MM-DD (local midnight), RFC 3339, or epoch
// milliseconds. Empty means now.
func parseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}
	if t, err := time.ParseInLocation(dayLayout, s, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
		return core.FromMillis(ms), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, s)
}

// parseDay reads an optional YYYY-MM-DD query value.
func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dayLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: day must be YYYY-MM-DD", errBadRequest)
	}
	return t, nil
}

func parseTransactionType(s string) (core.TransactionType, error) {
	switch t := core.TransactionType(strings.ToUpper(strings.TrimSpace(s))); t {
	case "", core.Income, core.Expense:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown transaction type %q", errBadRequest, s)
	}
}

func parseNoteType(s string) (core.NoteType, error) {
	switch t := core.NoteType(strings.ToUpper(strings.TrimSpace(s))); t {
	case "", core.Debt, core.Receivable:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown note type %q", errBadRequest, s)
	}
}

func parseCategory(s string) (core.Category, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	c := core.CategoryFromKey(s)
	if string(c) != s {
		return "", fmt.Errorf("%w: unknown category %q", errBadRequest, s)
	}
	return c, nil
}

// parseTransactionFilter reads type, category, q and day.
func parseTransactionFilter(q url.Values) (ledger.Filter, error) {
	var (
		f   ledger.Filter
		err error
	)
	if f.Type, err = parseTransactionType(q.Get("type")); err != nil {
		return ledger.Filter{}, err
	}
	if f.Category, err = parseCategory(q.Get("category")); err != nil {
		return ledger.Filter{}, err
	}
	if f.Day, err = parseDay(q.Get("day")); err != nil {
		return ledger.Filter{}, err
	}
	f.Query = sanitizeInput(q.Get("q"))
	return f, nil
}

// parsePeriod reads period (default TODAY) and the reference date
// (default now).
func parsePeriod(q url.Values, now time.Time) (core.TransactionPeriod, time.Time, error) {
	period := core.TransactionPeriodFromKey(strings.ToUpper(strings.TrimSpace(q.Get("period"))))
	at, err := parseDay(q.Get("date"))
	if err != nil {
		return "", time.Time{}, err
	}
	if at.IsZero() {
		at = now
	}
	return period, at, nil
}
