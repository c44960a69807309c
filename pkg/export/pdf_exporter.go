package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Ranked reports carry up to eleven columns, so the table is laid out in
// landscape. A4 landscape is 297mm wide; margins leave 277mm for cells.
const pdfTableWidth = 277.0

// PDFExporter renders ranked-report datasets as a landscape PDF table
// with metric columns right aligned.
type PDFExporter struct {
	now func() time.Time
}

// NewPDFExporter builds a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{now: time.Now}
}

// Render draws the report title, a generated-at line, and the table.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Columns) == 0 {
		return nil, fmt.Errorf("pdf export requires at least one column")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 9, title, "", 1, "L", false, 0, "")
	}
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 5, "Generated "+e.now().UTC().Format("2006-01-02 15:04 UTC"), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	colWidth := pdfTableWidth / float64(len(data.Columns))
	pdf.SetFont("Arial", "B", 9)
	for _, col := range data.Columns {
		pdf.CellFormat(colWidth, 7, col.Label, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range data.Rows {
		for _, col := range data.Columns {
			align := "L"
			if col.Numeric {
				align = "R"
			}
			pdf.CellFormat(colWidth, 6, row[col.Key], "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
