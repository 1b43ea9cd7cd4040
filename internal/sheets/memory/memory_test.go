package memory

import (
	"context"
	"testing"
)

func TestStoreReplacesRows(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := [][]string{{"Date", "Amount"}, {"01 Jan 2024", "1.00"}}
	if err := s.WriteReport(ctx, first); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	first[1][1] = "mutated"

	got := s.Rows()
	if len(got) != 2 || got[1][1] != "1.00" {
		t.Fatalf("rows should be copied on write, got %v", got)
	}

	if err := s.WriteReport(ctx, [][]string{{"Date", "Amount"}}); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if len(s.Rows()) != 1 {
		t.Fatalf("second write should replace the first, got %v", s.Rows())
	}
	if s.Writes() != 2 {
		t.Errorf("Writes() = %d, want 2", s.Writes())
	}
}
