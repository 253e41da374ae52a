package console

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Alignment is the horizontal alignment of a table column.
type Alignment int

const (
	// AlignLeft aligns cell text to the left edge.
	AlignLeft Alignment = iota
	// AlignRight aligns cell text to the right edge.
	AlignRight
)

// Table prints rows under headers as a rounded box table.
func (c *Console) Table(headers []string, rows [][]string, aligns []Alignment) {
	rendered := RenderTable(headers, rows, aligns)
	if rendered == "" {
		return
	}

	c.write(rendered + "\n")
}

// RenderTable renders a table; short rows are padded with empty cells.
func RenderTable(headers []string, rows [][]string, aligns []Alignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}

	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}

		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
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
