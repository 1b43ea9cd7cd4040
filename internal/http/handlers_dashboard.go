package http

import (
	"fmt"
	"net/http"
	"time"

	"dailyexpense/internal/core"
	"dailyexpense/internal/ledger"
	"dailyexpense/internal/log"
	"dailyexpense/internal/services"
)

// handleSummary serves the dashboard figures. When the background
// dashboard has not caught up with the latest write yet, the summary is
// computed from the current snapshot instead.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap := s.ledger.Snapshot()
	var sum services.Summary
	if s.dashboard != nil {
		sum = s.dashboard.Latest()
	}
	if s.dashboard == nil || sum.Version < snap.Version {
		sum = services.Summarize(snap)
	}
	writeJSON(w, http.StatusOK, newSummaryView(sum))
}

// handleCategories returns per-category sums and pie slices for one
// transaction type over a period.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t, err := parseTransactionType(q.Get("type"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if t == "" {
		t = core.Expense
	}
	period, at, err := parsePeriod(q, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	snap := s.ledger.Snapshot()
	start, end := ledger.PeriodRange(period, at)
	key := fmt.Sprintf("%d:%s:%s:%s", snap.Version, t, period, start.Format(dayLayout))

	view := s.categoryCache.GetOrCompute(key, func() categoryView {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Category breakdown computed",
			log.FieldVersion, snap.Version,
			log.FieldTxType, t)
		inRange := ledger.Between(snap.Transactions, start, end)
		sums := ledger.CategoryWiseSum(inRange, t)
		return categoryView{
			Version: snap.Version,
			Type:    t.String(),
			Period:  period.String(),
			From:    start.Format(time.RFC3339),
			To:      end.Format(time.RFC3339),
			Total:   core.FormatAmount(ledger.SumByType(inRange, t)),
			Sums:    newCategorySumViews(sums),
			Slices:  newSliceViews(ledger.CategoryShares(sums)),
		}
	})
	writeJSON(w, http.StatusOK, view)
}
