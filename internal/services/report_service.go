package services

import (
	"context"
	"log/slog"

	"dailyexpense/internal/ledger"
	"dailyexpense/internal/report"
)

// ReportFileWriter stores formatted rows and returns where they went.
type ReportFileWriter interface {
	Write(rows []report.Row) (string, error)
}

// ReportService exports the filtered transaction list as a spreadsheet.
type ReportService struct {
	hub    *Hub
	writer ReportFileWriter
}

func NewReportService(hub *Hub, writer ReportFileWriter) *ReportService {
	return &ReportService{hub: hub, writer: writer}
}

// Generate writes the transactions of the current snapshot that pass f.
func (s *ReportService) Generate(ctx context.Context, f ledger.Filter) (string, error) {
	txs := f.Apply(s.hub.Current().Transactions)
	if len(txs) == 0 {
		return "", report.ErrNoTransactions
	}

	path, err := s.writer.Write(report.BuildRows(txs))
	if err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Report generated", "path", path, "rows", len(txs))
	return path, nil
}
