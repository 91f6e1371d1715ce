// Package render formats settings for terminal output.
package render

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/daniellittledev/ReSpacer/internal/settings"
)

// ColumnAlignment controls how a column's cells are aligned.
type ColumnAlignment int

const (
	AlignLeft ColumnAlignment = iota
	AlignRight
)

// Table renders rows under headers with rounded borders.
func Table(headers []string, rows [][]string, aligns []ColumnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// Uncaptured is shown for values the document does not hold.
const Uncaptured = "-"

// Document renders one row per property page.
func Document(doc settings.Document) string {
	headers := []string{"Page", "Indent Style", "Tab Size", "Indent Size", "Insert Tabs"}
	aligns := []ColumnAlignment{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignLeft}

	rows := make([][]string, 0, len(doc.Pages))
	for _, p := range doc.Pages {
		tabs := p.Settings.TabSettings
		rows = append(rows, []string{
			p.Name,
			tabs.IndentStyle.String(),
			intCell(tabs.TabSize),
			intCell(tabs.IndentSize),
			boolCell(tabs.InsertTabs),
		})
	}
	return Table(headers, rows, aligns)
}

func intCell(v *int) string {
	if v == nil {
		return Uncaptured
	}
	return strconv.Itoa(*v)
}

func boolCell(v *bool) string {
	if v == nil {
		return Uncaptured
	}
	return strconv.FormatBool(*v)
}
