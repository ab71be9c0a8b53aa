/*
xlsx_test.go - Workbook reader tests

Builds small workbooks on disk and reads them back through the market
loader, covering sheet selection and blank-row skipping.
*/
package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

var marketHeader = []string{
	"specialty",
	"tcc_p25", "tcc_p50", "tcc_p75", "tcc_p90",
	"wrvu_p25", "wrvu_p50", "wrvu_p75", "wrvu_p90",
	"cf_p25", "cf_p50", "cf_p75", "cf_p90",
}

func writeWorkbook(t *testing.T, sheetName string, rows [][]string) string {
	t.Helper()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	require.NoError(t, err)

	for _, row := range rows {
		r := sheet.AddRow()
		for _, value := range row {
			r.AddCell().SetString(value)
		}
	}

	path := filepath.Join(t.TempDir(), "survey.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func cardiologyRowCells() []string {
	return []string{
		"Cardiology",
		"180000", "220000", "260000", "300000",
		"4000", "4800", "5600", "6200",
		"42", "46", "50", "54",
	}
}

func TestLoadMarketXLSX(t *testing.T) {
	path := writeWorkbook(t, "Survey", [][]string{
		marketHeader,
		cardiologyRowCells(),
	})

	rows, err := LoadMarketXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Cardiology", rows[0].Specialty)
	assert.Equal(t, 220000.0, rows[0].TCC.P50)
	assert.Equal(t, 46.0, rows[0].CF.P50)
}

func TestLoadMarketXLSXByName(t *testing.T) {
	path := writeWorkbook(t, "Benchmarks", [][]string{
		marketHeader,
		cardiologyRowCells(),
	})

	rows, err := LoadMarketXLSX(path, XLSXOptions{SheetName: "Benchmarks"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = LoadMarketXLSX(path, XLSXOptions{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadMarketXLSXSkipsBlankRows(t *testing.T) {
	path := writeWorkbook(t, "Survey", [][]string{
		marketHeader,
		cardiologyRowCells(),
		{""}, // trailing blank row
	})

	rows, err := LoadMarketXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestLoadMarketXLSXSheetIndexOutOfRange(t *testing.T) {
	path := writeWorkbook(t, "Survey", [][]string{marketHeader})

	_, err := LoadMarketXLSX(path, XLSXOptions{SheetIndex: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}
