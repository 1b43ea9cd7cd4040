package sheets

import "context"

// Ports for outbound adapters.
type (
	// ReportWriter mirrors the transaction report into an external sheet.
	// Each call replaces the previous contents; rows[0] is the header.
	ReportWriter interface {
		WriteReport(ctx context.Context, rows [][]string) error
	}
)
