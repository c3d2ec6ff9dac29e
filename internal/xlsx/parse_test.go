package xlsx_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Park-MinJe/monthly-audit-report/internal/xlsx"
)

func workbookBytes(t *testing.T, sheets map[string][][]any, order []string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParse(t *testing.T) {
	t.Parallel()

	data := workbookBytes(t, map[string][][]any{
		"집행내역": {
			{" 일자 ", "사용처", "금액", ""},
			{"2025-01-03", "식당", 45000, "비고"},
			{},
			{"2025-01-09", "", 12000},
		},
		"요약": {
			{"항목", "항목"},
			{"a", "b"},
		},
	}, []string{"집행내역", "요약"})

	wb, err := xlsx.Parse(data, 100)
	require.NoError(t, err)

	assert.Equal(t, []string{"집행내역", "요약"}, wb.SheetNames)
	assert.Equal(t, xlsx.Stats{SheetCount: 2, TotalRowsLoaded: 3, MaxRowsPerSheet: 100}, wb.Stats)

	rows := wb.Sheets["집행내역"]
	require.Len(t, rows, 2)
	assert.Equal(t, xlsx.Record{"일자": "2025-01-03", "사용처": "식당", "금액": "45000", "Unnamed: 3": "비고"}, rows[0])
	assert.Equal(t, "", rows[1]["사용처"])
	assert.Equal(t, "", rows[1]["Unnamed: 3"])

	assert.Equal(t, []xlsx.Record{{"항목": "a", "항목.1": "b"}}, wb.Sheets["요약"])
}

func TestParse_CapsRows(t *testing.T) {
	t.Parallel()

	rows := [][]any{{"n"}}
	for i := range 10 {
		rows = append(rows, []any{fmt.Sprint(i)})
	}
	data := workbookBytes(t, map[string][][]any{"Sheet1": rows}, []string{"Sheet1"})

	wb, err := xlsx.Parse(data, 3)
	require.NoError(t, err)
	assert.Len(t, wb.Sheets["Sheet1"], 3)
	assert.Equal(t, 3, wb.Stats.TotalRowsLoaded)
	assert.Equal(t, "2", wb.Sheets["Sheet1"][2]["n"])
}

func TestParse_EmptySheet(t *testing.T) {
	t.Parallel()

	data := workbookBytes(t, map[string][][]any{"Sheet1": nil}, []string{"Sheet1"})

	wb, err := xlsx.Parse(data, 0)
	require.NoError(t, err)
	assert.Empty(t, wb.Sheets["Sheet1"])
	assert.Equal(t, xlsx.DefaultMaxRowsPerSheet, wb.Stats.MaxRowsPerSheet)
}

func TestParse_NotAWorkbook(t *testing.T) {
	t.Parallel()

	_, err := xlsx.Parse([]byte("<html>not a spreadsheet</html>"), 10)
	require.Error(t, err)
}
