package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"curing-worklist/internal/table"
)

type Format string

const (
	XLSX Format = "xlsx"
	CSV  Format = "csv"
)

// ParseFormat reads "xlsx" or "csv".
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))) {
	case XLSX, "excel", "":
		return XLSX, nil
	case CSV:
		return CSV, nil
	default:
		return "", fmt.Errorf("%w %q (expected xlsx or csv)", ErrUnsupportedFormat, s)
	}
}

func (f Format) Ext() string {
	return "." + string(f)
}

const sheetName = "Sheet1"

// Write serialises t to w. Every cell is written as text so values
// round-trip unchanged.
func Write(w io.Writer, t *table.Table, format Format) error {
	switch format {
	case CSV:
		return writeCSV(w, t)
	case XLSX:
		return writeWorkbook(w, t)
	default:
		return fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
	}
}

func writeCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header()); err != nil {
		return err
	}
	for i := 0; i < t.Len(); i++ {
		if err := cw.Write(t.Row(i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeWorkbook(w io.Writer, t *table.Table) error {
	xl := excelize.NewFile()
	defer xl.Close()

	if err := setRow(xl, 1, t.Header()); err != nil {
		return err
	}
	for i := 0; i < t.Len(); i++ {
		if err := setRow(xl, i+2, t.Row(i)); err != nil {
			return err
		}
	}
	if _, err := xl.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(xl *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return xl.SetSheetRow(sheetName, cell, &cells)
}

// FileName names a partition output, e.g. "ACTIVE WORKLIST 030524.xlsx".
func FileName(partition string, runDate time.Time, format Format) string {
	return fmt.Sprintf("%s %s%s", partition, runDate.Format("010206"), format.Ext())
}

func WriteFile(dir, name string, t *table.Table, format Format) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := Write(f, t, format); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
