package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Column widths are sized to content, capped so one long note does not
// stretch a column across the screen.
const maxColWidth = 60

// WriteWorkbook renders the sheets into an .xlsx workbook at path. Header
// rows are bold and columns are sized to their widest cell.
func WriteWorkbook(path string, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("write workbook %s: no sheets", path)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, sheet := range sheets {
		name := sheet.Name
		if i == 0 {
			// Rename the default sheet instead of leaving an empty one.
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("name sheet %s: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}

		headers := sheet.Headers
		if len(headers) == 0 {
			headers = []string{"(no data)"}
		}
		headerRow := make([]any, len(headers))
		for c, h := range headers {
			headerRow[c] = h
		}
		if err := f.SetSheetRow(name, "A1", &headerRow); err != nil {
			return fmt.Errorf("write headers on %s: %w", name, err)
		}

		lastCol, err := excelize.ColumnNumberToName(len(headers))
		if err != nil {
			return fmt.Errorf("resolve last column on %s: %w", name, err)
		}
		if err := f.SetCellStyle(name, "A1", lastCol+"1", headerStyle); err != nil {
			return fmt.Errorf("style headers on %s: %w", name, err)
		}

		for r, row := range sheet.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return fmt.Errorf("resolve row %d on %s: %w", r+2, name, err)
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return fmt.Errorf("write row %d on %s: %w", r+2, name, err)
			}
		}

		if err := sizeColumns(f, name, headers, sheet.Rows); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func sizeColumns(f *excelize.File, sheet string, headers []string, rows [][]any) error {
	for c, header := range headers {
		width := len(header)
		for _, row := range rows {
			if c < len(row) {
				if n := len(cellString(row[c])); n > width {
					width = n
				}
			}
		}
		if width+2 < maxColWidth {
			width += 2
		} else {
			width = maxColWidth
		}

		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return fmt.Errorf("resolve column %d on %s: %w", c+1, sheet, err)
		}
		if err := f.SetColWidth(sheet, col, col, float64(width)); err != nil {
			return fmt.Errorf("size column %s on %s: %w", col, sheet, err)
		}
	}
	return nil
}
