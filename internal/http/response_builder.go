package http

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"dailyexpense/internal/backup"
	"dailyexpense/internal/core"
	"dailyexpense/internal/ledger"
	"dailyexpense/internal/log"
	"dailyexpense/internal/report"
	"dailyexpense/internal/services"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrEmptyDescription,
	core.ErrEmptyCategory,
	core.ErrInvalidDate,
	core.ErrDescriptionLong,
	report.ErrNoTransactions,
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) (int, string) {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity, log.ErrorTypeValidation
		}
	}
	switch {
	case errors.Is(err, core.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound, log.ErrorTypeNotFound
	case errors.Is(err, errBadRequest), errors.Is(err, backup.ErrMalformed):
		return http.StatusBadRequest, log.ErrorTypeMalformed
	default:
		return http.StatusInternalServerError, log.ErrorTypeInternal
	}
}

// writeError answers with the mapped status. Internal failures are logged
// and hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		fields := log.NewFields().WithError(err).WithErrorType(kind)
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
		msg = "internal server error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func unavailable(w http.ResponseWriter, feature string) {
	writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: feature + " is not configured"})
}

type transactionView struct {
	ID            int64  `json:"id"`
	Category      string `json:"category"`
	CategoryLabel string `json:"categoryLabel"`
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	DateMillis    int64  `json:"dateMillis"`
	Type          string `json:"type"`
}

func newTransactionView(t core.Transaction) transactionView {
	return transactionView{
		ID:            t.ID,
		Category:      t.Category.String(),
		CategoryLabel: t.Category.Label(),
		Description:   t.Description,
		Amount:        core.FormatAmount(t.Amount),
		Date:          t.Date.Format(time.RFC3339),
		DateMillis:    t.Date.UnixMilli(),
		Type:          t.Type.String(),
	}
}

func newTransactionViews(txs []core.Transaction) []transactionView {
	out := make([]transactionView, 0, len(txs))
	for _, t := range txs {
		out = append(out, newTransactionView(t))
	}
	return out
}

type noteView struct {
	ID          int64  `json:"id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
	DateMillis  int64  `json:"dateMillis"`
	Type        string `json:"type"`
}

func newNoteView(n core.Note) noteView {
	return noteView{
		ID:          n.ID,
		Amount:      core.FormatAmount(n.Amount),
		Description: n.Description,
		Date:        n.Date.Format(time.RFC3339),
		DateMillis:  n.Date.UnixMilli(),
		Type:        n.Type.String(),
	}
}

func newNoteViews(notes []core.Note) []noteView {
	out := make([]noteView, 0, len(notes))
	for _, n := range notes {
		out = append(out, newNoteView(n))
	}
	return out
}

type totalsView struct {
	Income         string  `json:"income"`
	Expense        string  `json:"expense"`
	Balance        string  `json:"balance"`
	IncomeProgress float64 `json:"incomeProgress"`
}

func newTotalsView(t ledger.Totals) totalsView {
	return totalsView{
		Income:         core.FormatAmount(t.Income),
		Expense:        core.FormatAmount(t.Expense),
		Balance:        core.FormatAmount(t.Balance),
		IncomeProgress: t.IncomeProgress,
	}
}

type noteSummaryView struct {
	TotalDebt          string  `json:"totalDebt"`
	TotalReceivable    string  `json:"totalReceivable"`
	Balance            string  `json:"balance"`
	ReceivableProgress float64 `json:"receivableProgress"`
}

func newNoteSummaryView(s ledger.NoteSummary) noteSummaryView {
	return noteSummaryView{
		TotalDebt:          core.FormatAmount(s.TotalDebt),
		TotalReceivable:    core.FormatAmount(s.TotalReceivable),
		Balance:            core.FormatAmount(s.Balance),
		ReceivableProgress: s.ReceivableProgress,
	}
}

type categorySumView struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Total    string `json:"total"`
}

func newCategorySumViews(sums []core.CategorySum) []categorySumView {
	out := make([]categorySumView, 0, len(sums))
	for _, s := range sums {
		out = append(out, categorySumView{
			Category: s.Category.String(),
			Label:    s.Category.Label(),
			Total:    core.FormatAmount(s.TotalAmount),
		})
	}
	return out
}

type sliceView struct {
	Category   string  `json:"category"`
	Label      string  `json:"label"`
	Amount     string  `json:"amount"`
	Fraction   float64 `json:"fraction"`
	Percentage int     `json:"percentage"`
	StartAngle float64 `json:"startAngle"`
	SweepAngle float64 `json:"sweepAngle"`
}

// categoryView is the cached response of /api/categories.
type categoryView struct {
	Version uint64            `json:"version"`
	Type    string            `json:"type"`
	Period  string            `json:"period"`
	From    string            `json:"from"`
	To      string            `json:"to"`
	Total   string            `json:"total"`
	Sums    []categorySumView `json:"sums"`
	Slices  []sliceView       `json:"slices"`
}

func newSliceViews(slices []ledger.Slice) []sliceView {
	out := make([]sliceView, 0, len(slices))
	for _, s := range slices {
		out = append(out, sliceView{
			Category:   s.Category.String(),
			Label:      s.Category.Label(),
			Amount:     core.FormatAmount(s.Amount),
			Fraction:   s.Fraction,
			Percentage: s.Percentage,
			StartAngle: s.StartAngle,
			SweepAngle: s.SweepAngle,
		})
	}
	return out
}

type summaryView struct {
	Version           uint64            `json:"version"`
	Balance           string            `json:"balance"`
	Totals            totalsView        `json:"totals"`
	IncomeByCategory  []categorySumView `json:"incomeByCategory"`
	ExpenseByCategory []categorySumView `json:"expenseByCategory"`
	Notes             noteSummaryView   `json:"notes"`
}

func newSummaryView(s services.Summary) summaryView {
	return summaryView{
		Version:           s.Version,
		Balance:           core.FormatAmount(s.Balance),
		Totals:            newTotalsView(s.Totals),
		IncomeByCategory:  newCategorySumViews(s.IncomeByCategory),
		ExpenseByCategory: newCategorySumViews(s.ExpenseByCategory),
		Notes:             newNoteSummaryView(s.Notes),
	}
}
