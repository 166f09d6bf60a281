package export

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func newTableWriter(doc document) table.Writer {
	tw := table.NewWriter()
	header := make(table.Row, len(doc.header))
	for i, h := range doc.header {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, r := range doc.rows {
		row := make(table.Row, len(r))
		for i, c := range r {
			row[i] = c
		}
		tw.AppendRow(row)
	}
	configs := make([]table.ColumnConfig, 0, len(doc.numeric))
	for col := range doc.numeric {
		configs = append(configs, table.ColumnConfig{Number: col + 1, Align: text.AlignRight})
	}
	tw.SetColumnConfigs(configs)
	return tw
}

func writeTable(w io.Writer, doc document, markdown bool) error {
	tw := newTableWriter(doc)
	var out string
	if markdown {
		out = tw.RenderMarkdown() + "\n"
		if doc.title != "" {
			out = "# " + doc.title + "\n\n" + out
		}
	} else {
		out = tw.RenderCSV() + "\n"
	}
	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}
