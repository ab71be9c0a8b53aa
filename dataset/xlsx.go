/*
xlsx.go - Market survey workbook reader

PURPOSE:
  Survey vendors distribute benchmark tables as Excel workbooks. This
  reader pulls one sheet into the same header-driven row format the CSV
  loaders use, then reuses their parsing.
*/
package dataset

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/warp/comp-engine/engine"
)

// XLSXOptions selects the sheet to read. SheetName wins over SheetIndex.
type XLSXOptions struct {
	SheetIndex int
	SheetName  string
}

// LoadMarketXLSX reads a market survey table from an Excel workbook.
// The sheet's first row must be a header, same columns as the CSV form.
func LoadMarketXLSX(path string, opts XLSXOptions) ([]engine.MarketRow, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "opening workbook %s", path)
	}

	sheet, err := pickSheet(f, opts)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("sheet %q is empty", sheet.Name)
	}

	header := make(map[string]int)
	for i, cell := range sheet.Rows[0].Cells {
		header[normalizeHeader(cell.String())] = i
	}

	var market []engine.MarketRow
	for i, row := range sheet.Rows[1:] {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		get := cellGetter(header, cells)
		if get("specialty") == "" {
			continue // blank trailing rows are common in vendor workbooks
		}

		m, err := parseMarketRow(get)
		if err != nil {
			return nil, eris.Wrapf(err, "sheet %q row %d", sheet.Name, i+2)
		}
		market = append(market, m)
	}
	return market, nil
}

func pickSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}
	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("sheet index %d out of range (workbook has %d sheets)",
			opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}
