package orgs

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Park-MinJe/monthly-audit-report/internal/domain"
)

// NameColumn is the roster header holding organization names.
const NameColumn = "orgs_nm"

var (
	errNoSheet      = errors.New("workbook has no sheets")
	errNoNameColumn = fmt.Errorf("first sheet has no %q column", NameColumn)
	errEmptyRoster  = fmt.Errorf("no names found in %q column", NameColumn)
)

// LoadRoster reads organization names from the first sheet of an xlsx file.
// Every failure is a *domain.ConfigError.
func LoadRoster(path string) ([]Organization, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &domain.ConfigError{Source: path, Err: err}
	}
	defer f.Close()

	roster, err := readRoster(f)
	if err != nil {
		return nil, &domain.ConfigError{Source: path, Err: err}
	}
	return roster, nil
}

// ReadRoster is LoadRoster over an in-memory workbook.
func ReadRoster(r io.Reader) ([]Organization, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &domain.ConfigError{Source: "roster", Err: err}
	}
	defer f.Close()

	roster, err := readRoster(f)
	if err != nil {
		return nil, &domain.ConfigError{Source: "roster", Err: err}
	}
	return roster, nil
}

func readRoster(f *excelize.File) ([]Organization, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errNoSheet
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, errNoNameColumn
	}

	col := -1
	for i, h := range rows[0] {
		if strings.TrimSpace(h) == NameColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, errNoNameColumn
	}

	var roster []Organization
	for _, row := range rows[1:] {
		if col >= len(row) {
			continue
		}
		if name := strings.TrimSpace(row[col]); name != "" {
			roster = append(roster, New(name))
		}
	}
	if len(roster) == 0 {
		return nil, errEmptyRoster
	}
	return roster, nil
}
