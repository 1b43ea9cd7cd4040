package http

import (
	"fmt"
	"net/http"
	"time"

	"dailyexpense/internal/core"
	"dailyexpense/internal/ledger"
)

type transactionListResponse struct {
	Version      uint64            `json:"version"`
	Transactions []transactionView `json:"transactions"`
	Totals       totalsView        `json:"totals"`
}

// handleListTransactions serves the filtered list with totals computed over
// the same selection.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := parseTransactionFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap := s.ledger.Snapshot()
	txs := f.Apply(snap.Transactions)
	writeJSON(w, http.StatusOK, transactionListResponse{
		Version:      snap.Version,
		Transactions: newTransactionViews(txs),
		Totals:       newTotalsView(ledger.ComputeTotals(txs)),
	})
}

type periodResponse struct {
	Period       string            `json:"period"`
	From         string            `json:"from"`
	To           string            `json:"to"`
	Transactions []transactionView `json:"transactions"`
	Totals       totalsView        `json:"totals"`
}

func (s *Server) handlePeriodTransactions(w http.ResponseWriter, r *http.Request) {
	period, at, err := parsePeriod(r.URL.Query(), time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, end := ledger.PeriodRange(period, at)
	txs := ledger.Between(s.ledger.Snapshot().Transactions, start, end)
	writeJSON(w, http.StatusOK, periodResponse{
		Period:       period.String(),
		From:         start.Format(time.RFC3339),
		To:           end.Format(time.RFC3339),
		Transactions: newTransactionViews(txs),
		Totals:       newTotalsView(ledger.ComputeTotals(txs)),
	})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	for _, t := range s.ledger.Snapshot().Transactions {
		if t.ID == id {
			writeJSON(w, http.StatusOK, newTransactionView(t))
			return
		}
	}
	writeError(w, r, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := req.toTransaction(time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.ledger.AddTransaction(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTransactionView(saved))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := req.toTransaction(time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	t.ID = id
	if err := s.ledger.UpdateTransaction(r.Context(), t); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionView(t.Normalize()))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
