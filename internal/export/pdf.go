package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/alexanderramin/stagegate/internal/domain"
)

var ragRGB = map[domain.RAG][3]int{
	domain.RAGRed:   {244, 182, 182},
	domain.RAGAmber: {252, 228, 182},
}

// Column widths in mm on landscape A4 (277mm printable).
var pdfWidths = map[string][]float64{
	"Stages":    {12, 16, 58, 28, 30, 30, 30, 30, 16},
	"Portfolio": {24, 95, 20, 24, 34, 44},
}

func writePDF(w io.Writer, doc document) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(doc.title, true)
	pdf.SetCreator("stagegate", true)
	if !doc.generated.IsZero() {
		pdf.SetCreationDate(doc.generated)
		pdf.SetModificationDate(doc.generated)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr(doc.title), "", 1, "L", false, 0, "")
	if !doc.generated.IsZero() {
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 6, "Generated "+doc.generated.UTC().Format("2006-01-02 15:04 MST"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	widths := pdfWidths[doc.sheetName]
	if len(widths) != len(doc.header) {
		widths = make([]float64, len(doc.header))
		for i := range widths {
			widths[i] = 277 / float64(len(doc.header))
		}
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(217, 225, 242)
	for i, h := range doc.header {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	marks := make(map[int]domain.RAG, len(doc.highlight))
	for _, h := range doc.highlight {
		marks[h.row] = h.rag
	}
	pdf.SetFont("Helvetica", "", 9)
	for i, r := range doc.rows {
		rag, fill := marks[i]
		if fill {
			c := ragRGB[rag]
			pdf.SetFillColor(c[0], c[1], c[2])
		}
		for c, v := range r {
			align := "L"
			if doc.numeric[c] {
				align = "R"
			}
			pdf.CellFormat(widths[c], 6, tr(v), "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
