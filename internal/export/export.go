// Package export renders stage sheets and portfolio boards as CSV, Markdown,
// XLSX or PDF.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/stagegate/internal/domain"
)

// Format is an output format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatXLSX     Format = "xlsx"
	FormatPDF      Format = "pdf"
)

// ParseFormat accepts a format name or a file extension ("markdown" and
// ".csv" style spellings included).
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "xlsx":
		return FormatXLSX, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unknown export format %q (want csv, md, xlsx or pdf): %w", s, domain.ErrValidation)
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// StageRow is one line of a project stage sheet.
type StageRow struct {
	Sequence     int
	Code         string
	Name         string
	Status       domain.StageStatus
	PlannedStart *time.Time
	PlannedDue   *time.Time
	ForecastDue  *time.Time
	CompletedOn  *time.Time
	Slip         int
}

// StageSheet is a project's stage table with a heading.
type StageSheet struct {
	Title       string
	GeneratedAt time.Time
	Rows        []StageRow
}

// PortfolioRow is one project on the portfolio board.
type PortfolioRow struct {
	ShortID            string
	Name               string
	RAG                domain.RAG
	MaxSlip            int
	WorstStage         string
	ForecastCompletion *time.Time
}

// Portfolio is the board of all projects in reporting order.
type Portfolio struct {
	Title       string
	GeneratedAt time.Time
	Rows        []PortfolioRow
}

var stageHeader = []string{"Seq", "Code", "Stage", "Status", "Planned start", "Planned due", "Forecast due", "Completed", "Slip"}

var portfolioHeader = []string{"ID", "Project", "RAG", "Max slip", "Worst stage", "Forecast completion"}

func (r StageRow) cells() []string {
	return []string{
		strconv.Itoa(r.Sequence), r.Code, r.Name, string(r.Status),
		fmtDate(r.PlannedStart), fmtDate(r.PlannedDue), fmtDate(r.ForecastDue),
		fmtDate(r.CompletedOn), strconv.Itoa(r.Slip),
	}
}

func (r PortfolioRow) cells() []string {
	return []string{
		r.ShortID, r.Name, strings.ToUpper(string(r.RAG)),
		strconv.Itoa(r.MaxSlip), r.WorstStage, fmtDate(r.ForecastCompletion),
	}
}

func fmtDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(domain.DateLayout)
}

// WriteStageSheet renders sheet to w in format.
func WriteStageSheet(w io.Writer, format Format, sheet StageSheet) error {
	rows := make([][]string, len(sheet.Rows))
	for i, r := range sheet.Rows {
		rows[i] = r.cells()
	}
	doc := document{
		title:     sheet.Title,
		generated: sheet.GeneratedAt,
		sheetName: "Stages",
		header:    stageHeader,
		rows:      rows,
		numeric:   map[int]bool{0: true, 8: true},
	}
	for i, r := range sheet.Rows {
		if r.Slip > 0 {
			doc.highlight = append(doc.highlight, highlight{row: i, rag: slipRAG(r.Slip)})
		}
	}
	return write(w, format, doc)
}

// WritePortfolio renders p to w in format.
func WritePortfolio(w io.Writer, format Format, p Portfolio) error {
	rows := make([][]string, len(p.Rows))
	doc := document{
		title:     p.Title,
		generated: p.GeneratedAt,
		sheetName: "Portfolio",
		header:    portfolioHeader,
		numeric:   map[int]bool{3: true},
	}
	for i, r := range p.Rows {
		rows[i] = r.cells()
		if r.RAG != domain.RAGGreen && r.RAG != "" {
			doc.highlight = append(doc.highlight, highlight{row: i, rag: r.RAG})
		}
	}
	doc.rows = rows
	return write(w, format, doc)
}

func slipRAG(slip int) domain.RAG {
	if slip >= 7 {
		return domain.RAGRed
	}
	return domain.RAGAmber
}

// document is the format-independent table handed to each renderer.
type document struct {
	title     string
	generated time.Time
	sheetName string
	header    []string
	rows      [][]string
	numeric   map[int]bool
	highlight []highlight
}

type highlight struct {
	row int
	rag domain.RAG
}

func write(w io.Writer, format Format, doc document) error {
	switch format {
	case FormatCSV:
		return writeTable(w, doc, false)
	case FormatMarkdown:
		return writeTable(w, doc, true)
	case FormatXLSX:
		return writeXLSX(w, doc)
	case FormatPDF:
		return writePDF(w, doc)
	}
	return fmt.Errorf("unknown export format %q: %w", format, domain.ErrValidation)
}
