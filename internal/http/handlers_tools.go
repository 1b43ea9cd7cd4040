package http

import (
	"net/http"

	"dailyexpense/internal/calc"
	"dailyexpense/internal/core"
	"dailyexpense/internal/log"
)

type calculatorRequest struct {
	Expression string   `json:"expression"`
	Result     string   `json:"result"`
	Keys       []string `json:"keys"`
}

type calculatorResponse struct {
	Expression string `json:"expression"`
	Result     string `json:"result"`
}

// handleCalculator replays keypad presses on top of a previous state. With
// no keys the expression is evaluated as is.
func (s *Server) handleCalculator(w http.ResponseWriter, r *http.Request) {
	var req calculatorRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		writeError(w, r, err)
		return
	}

	e := calc.Restore(req.Expression, req.Result)
	if len(req.Keys) == 0 {
		e.Evaluate()
	}
	for _, k := range req.Keys {
		e.Press(k)
	}
	expr, result := e.Snapshot()

	log.FromContext(r.Context()).WithComponent(log.ComponentCalc).DebugContext(r.Context(), "Expression evaluated",
		log.FieldOperation, log.OpEvaluate,
		"keys", len(req.Keys))
	writeJSON(w, http.StatusOK, calculatorResponse{Expression: expr, Result: result})
}

func (s *Server) handleBackupExport(w http.ResponseWriter, r *http.Request) {
	if s.backups == nil {
		unavailable(w, "backup")
		return
	}
	path, err := s.backups.Export(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

type importResponse struct {
	Version      uint64 `json:"version"`
	Transactions int    `json:"transactions"`
	Notes        int    `json:"notes"`
}

// handleBackupImport restores from ?file=<name> inside the backup folder,
// or from the backup document in the request body.
func (s *Server) handleBackupImport(w http.ResponseWriter, r *http.Request) {
	if s.backups == nil {
		unavailable(w, "backup")
		return
	}

	var (
		data core.AppBackupData
		err  error
	)
	if name := r.URL.Query().Get("file"); name != "" {
		data, err = s.backups.ImportNamed(r.Context(), name)
	} else {
		data, err = s.backups.Import(r.Context(), http.MaxBytesReader(w, r.Body, maxImportBytes))
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{
		Version:      s.ledger.Snapshot().Version,
		Transactions: len(data.Transactions),
		Notes:        len(data.Notes),
	})
}

// handleReport writes the transactions matching the list filters to a new
// spreadsheet file.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		unavailable(w, "report")
		return
	}
	f, err := parseTransactionFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	path, err := s.reports.Generate(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"path": path})
}
