// Package xlsx turns a downloaded spreadsheet into string records for summarization.
package xlsx

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DefaultMaxRowsPerSheet caps records read from each sheet.
const DefaultMaxRowsPerSheet = 2000

// Record maps a header to the cell text of one data row.
type Record map[string]string

// Stats describes what was loaded.
type Stats struct {
	SheetCount      int `json:"sheet_count"`
	TotalRowsLoaded int `json:"total_rows_loaded"`
	MaxRowsPerSheet int `json:"max_rows_per_sheet"`
}

// Workbook is the parsed spreadsheet.
type Workbook struct {
	// SheetNames keeps workbook order; Sheets is keyed by the same names.
	SheetNames []string
	Sheets     map[string][]Record
	Stats      Stats
}

// Parse reads every sheet of an xlsx file. The first row of each sheet is the
// header; at most maxRowsPerSheet data rows are kept. Blank rows are skipped.
func Parse(data []byte, maxRowsPerSheet int) (*Workbook, error) {
	if maxRowsPerSheet <= 0 {
		maxRowsPerSheet = DefaultMaxRowsPerSheet
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	wb := &Workbook{
		Sheets: make(map[string][]Record),
		Stats:  Stats{MaxRowsPerSheet: maxRowsPerSheet},
	}

	for _, name := range f.GetSheetList() {
		records, err := readSheet(f, name, maxRowsPerSheet)
		if err != nil {
			return nil, err
		}
		wb.SheetNames = append(wb.SheetNames, name)
		wb.Sheets[name] = records
		wb.Stats.TotalRowsLoaded += len(records)
	}
	wb.Stats.SheetCount = len(wb.SheetNames)

	return wb, nil
}

func readSheet(f *excelize.File, sheet string, maxRows int) ([]Record, error) {
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	var header []string
	records := []Record{}
	for rows.Next() && len(records) < maxRows {
		cols, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("read row in sheet %q: %w", sheet, err)
		}
		if header == nil {
			header = headerNames(cols)
			continue
		}
		if blank(cols) {
			continue
		}
		records = append(records, toRecord(header, cols))
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("iterate sheet %q: %w", sheet, err)
	}
	return records, nil
}

// headerNames trims header cells, names blank ones "Unnamed: N" and suffixes
// repeats with ".1", ".2", ...
func headerNames(cols []string) []string {
	out := make([]string, len(cols))
	used := make(map[string]int, len(cols))
	for i, c := range cols {
		name := strings.TrimSpace(c)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if n, dup := used[name]; dup {
			used[name] = n + 1
			name = name + "." + strconv.Itoa(n+1)
		} else {
			used[name] = 0
		}
		out[i] = name
	}
	return out
}

func toRecord(header, cols []string) Record {
	width := max(len(header), len(cols))
	r := make(Record, width)
	for i := range width {
		key := "Unnamed: " + strconv.Itoa(i)
		if i < len(header) {
			key = header[i]
		}
		val := ""
		if i < len(cols) {
			val = cols[i]
		}
		r[key] = val
	}
	return r
}

func blank(cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
