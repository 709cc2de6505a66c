package export

import (
	"github.com/fredw/recommendit/internal/store"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderItems renders the effective-rating view as a console table.
func RenderItems(rows []store.EffectiveRow) string {
	cells := make([][]any, len(rows))
	for i, r := range rows {
		cells[i] = itemCells(r)
	}
	return renderTable(itemHeaders(), cells, map[int]bool{0: true, 5: true, 6: true, 8: true})
}

// RenderLedger renders the raw rating history as a console table.
func RenderLedger(rows []store.LedgerRow) string {
	cells := make([][]any, len(rows))
	for i, r := range rows {
		cells[i] = ledgerCells(r)
	}
	return renderTable(ledgerHeaders(), cells, map[int]bool{0: true, 6: true, 7: true, 8: true, 9: true})
}

func renderTable(headers []string, rows [][]any, rightAlign map[int]bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = cellString(row[i])
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if rightAlign[i] {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
