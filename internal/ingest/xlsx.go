package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ConvertXLSXToCSV writes the first sheet of an XLSX workbook to a CSV
// file. The sheet is expected to carry a header row compatible with the
// CSV loaders.
func ConvertXLSXToCSV(xlsxPath, csvPath string) error {
	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		return fmt.Errorf("open xlsx file %s: %w", xlsxPath, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return fmt.Errorf("xlsx file %s has no sheets", xlsxPath)
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return fmt.Errorf("read rows from sheet %s: %w", sheets[0], err)
	}
	defer rows.Close()

	out, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("create csv file %s: %w", csvPath, err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	defer w.Flush()

	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("read row from %s: %w", xlsxPath, err)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv row to %s: %w", csvPath, err)
		}
	}
	return rows.Error()
}

// NormalizePath converts an XLSX input to a sibling CSV and returns the
// CSV path; CSV inputs pass through unchanged.
func NormalizePath(path string) (string, error) {
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return path, nil
	}
	csvPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".csv"
	if err := ConvertXLSXToCSV(path, csvPath); err != nil {
		return "", err
	}
	return csvPath, nil
}
