package http

import (
	"net/http"
	"time"

	"dailyexpense/internal/ledger"
)

type noteListResponse struct {
	Version uint64          `json:"version"`
	Notes   []noteView      `json:"notes"`
	Summary noteSummaryView `json:"summary"`
}

// handleListNotes filters by ?type= while the summary always covers every
// note, matching the header card of the notes screen.
func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	t, err := parseNoteType(r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap := s.ledger.Snapshot()
	writeJSON(w, http.StatusOK, noteListResponse{
		Version: snap.Version,
		Notes:   newNoteViews(ledger.FilterNotes(snap.Notes, t)),
		Summary: newNoteSummaryView(ledger.SummarizeNotes(snap.Notes)),
	})
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := req.toNote(time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.ledger.AddNote(r.Context(), n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newNoteView(saved))
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteNote(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
