package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/alexanderramin/stagegate/internal/domain"
)

var ragFill = map[domain.RAG]string{
	domain.RAGRed:   "#F4B6B6",
	domain.RAGAmber: "#FCE4B6",
}

func writeXLSX(w io.Writer, doc document) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", cerr)
		}
	}()

	sheet := doc.sheetName
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	header := make([]any, len(doc.header))
	for i, h := range doc.header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(doc.header))
	if err != nil {
		return fmt.Errorf("header width: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, r := range doc.rows {
		row := make([]any, len(r))
		for c, v := range r {
			row[c] = cellValue(v, doc.numeric[c])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	for _, h := range doc.highlight {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{ragFill[h.rag]}, Pattern: 1},
		})
		if err != nil {
			return fmt.Errorf("create highlight style: %w", err)
		}
		rowNum := strconv.Itoa(h.row + 2)
		if err := f.SetCellStyle(sheet, "A"+rowNum, lastCol+rowNum, style); err != nil {
			return fmt.Errorf("highlight row %d: %w", h.row, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cellValue(v string, numeric bool) any {
	if numeric {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return v
}
