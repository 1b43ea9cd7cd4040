package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName        = "Transactions"
	descriptionCol   = "C"
	descriptionWidth = 30
	fileStampLayout  = "20060102_1504"
	maxNameAttempts  = 1000
)

// XLSXWriter writes report files into a directory.
type XLSXWriter struct {
	dir string
	now func() time.Time
}

func NewXLSXWriter(dir string) *XLSXWriter {
	return &XLSXWriter{dir: dir, now: time.Now}
}

// FileName is the base report name for the minute of now.
func FileName(now time.Time) string {
	return "Transaction_Report_" + now.Format(fileStampLayout) + ".xlsx"
}

// Write stores rows as a new workbook and returns its path. An existing
// file is never overwritten; clashing names get a "_(n)" suffix.
func (w *XLSXWriter) Write(rows []Row) (string, error) {
	if len(rows) == 0 {
		return "", ErrNoTransactions
	}
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return "", fmt.Errorf("name sheet: %w", err)
	}

	for i, values := range Table(rows) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return "", err
		}
		line := make([]interface{}, len(values))
		for j, v := range values {
			line[j] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &line); err != nil {
			return "", fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("create header style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(Header), 1)
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, bold); err != nil {
		return "", fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(SheetName, descriptionCol, descriptionCol, descriptionWidth); err != nil {
		return "", fmt.Errorf("size description column: %w", err)
	}

	path, err := uniquePath(w.dir, FileName(w.now()))
	if err != nil {
		return "", err
	}
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return path, nil
}

func uniquePath(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := filepath.Join(dir, name)
	for n := 1; n <= maxNameAttempts; n++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("check report path: %w", err)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_(%d)%s", base, n, ext))
	}
	return "", fmt.Errorf("no free report name for %s", name)
}
