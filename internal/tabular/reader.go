// Package tabular reads spreadsheets and CSV files into tables and writes
// tables back out.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shakinm/xlsReader/xls"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"curing-worklist/internal/table"
)

// ErrUnsupportedFormat is returned for file extensions no reader handles.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Options control how a source is read.
type Options struct {
	// Password decrypts protected workbooks. A failed decrypt is retried
	// as plaintext.
	Password string
	// Sheet is a sheet name or zero-based index; empty means the first.
	Sheet string
	// HeaderRow is the zero-based row holding column names. Rows above it
	// are discarded.
	HeaderRow int
}

type Reader struct{}

// ReadFile opens path and reads it according to its extension.
func (Reader) ReadFile(path string, opts Options) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, filepath.Base(path), opts)
}

// Read parses src, using name's extension to pick the format.
func Read(src io.Reader, name string, opts Options) (*table.Table, error) {
	ext := strings.ToLower(filepath.Ext(name))
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	var rows [][]string
	switch ext {
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(data, opts)
	case ".xls":
		rows, err = readLegacyWorkbook(data, opts)
	case ".csv", ".txt":
		rows, err = readCSV(data)
	default:
		return nil, fmt.Errorf("%s: %w %q", name, ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return build(rows, opts.HeaderRow)
}

func readWorkbook(data []byte, opts Options) ([][]string, error) {
	xl, err := openWorkbook(data, opts.Password)
	if err != nil {
		return nil, err
	}
	defer xl.Close()

	sheets := xl.GetSheetList()
	sheet, err := pickSheet(sheets, opts.Sheet)
	if err != nil {
		return nil, err
	}
	rows, err := xl.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// openWorkbook tries the password first and falls back to plaintext.
func openWorkbook(data []byte, password string) (*excelize.File, error) {
	if password != "" {
		xl, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{Password: password, RawCellValue: true})
		if err == nil {
			return xl, nil
		}
		log.WithError(err).Debug("decrypt failed, retrying as plaintext")
	}
	xl, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return xl, nil
}

// readLegacyWorkbook reads BIFF .xls data. The xls reader only opens
// paths, so the bytes go through a temp file.
func readLegacyWorkbook(data []byte, opts Options) ([][]string, error) {
	tmp, err := os.CreateTemp("", "curing-worklist-*.xls")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	book, err := xls.OpenFile(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	names := make([]string, book.GetNumberSheets())
	for i := range names {
		if s, err := book.GetSheet(i); err == nil && s != nil {
			names[i] = s.GetName()
		}
	}
	name, err := pickSheet(names, opts.Sheet)
	if err != nil {
		return nil, err
	}
	idx := 0
	for i, n := range names {
		if n == name {
			idx = i
			break
		}
	}
	sheet, err := book.GetSheet(idx)
	if err != nil || sheet == nil {
		return nil, errors.New("failed to get xls sheet")
	}

	var rows [][]string
	for _, r := range sheet.GetRows() {
		var vals []string
		for _, col := range r.GetCols() {
			vals = append(vals, col.GetString())
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode csv: %w", err)
		}
		data = decoded
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

// pickSheet resolves a name or index selector against the sheet list.
func pickSheet(sheets []string, selector string) (string, error) {
	if len(sheets) == 0 {
		return "", errors.New("workbook has no sheets")
	}
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return sheets[0], nil
	}
	if idx, err := strconv.Atoi(selector); err == nil {
		if idx < 0 || idx >= len(sheets) {
			return "", fmt.Errorf("sheet index %d out of range (%d sheets)", idx, len(sheets))
		}
		return sheets[idx], nil
	}
	for _, name := range sheets {
		if strings.EqualFold(strings.TrimSpace(name), selector) {
			return name, nil
		}
	}
	return "", fmt.Errorf("sheet %q not found (have %s)", selector, strings.Join(sheets, ", "))
}

// build turns raw rows into a table using the header row offset. Blank rows
// are skipped and unnamed columns get positional names.
func build(rows [][]string, headerRow int) (*table.Table, error) {
	if headerRow < 0 {
		return nil, fmt.Errorf("invalid header row %d", headerRow)
	}
	if len(rows) <= headerRow {
		return nil, fmt.Errorf("header row %d not found (%d rows)", headerRow+1, len(rows))
	}
	raw := rows[headerRow]
	width := len(raw)
	for _, row := range rows[headerRow+1:] {
		if len(row) > width {
			width = len(row)
		}
	}
	header := make([]string, width)
	for i := range header {
		name := ""
		if i < len(raw) {
			name = strings.TrimSpace(raw[i])
		}
		if name == "" {
			name = fmt.Sprintf("UNNAMED: %d", i)
		}
		header[i] = name
	}

	t := table.New(header...)
	for _, row := range rows[headerRow+1:] {
		if table.IsBlankRow(row) {
			continue
		}
		t.AppendRow(row)
	}
	return t, nil
}
