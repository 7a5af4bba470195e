package report

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

type PDFExporter struct{}

func (PDFExporter) ContentType() string { return "application/pdf" }

func (PDFExporter) Extension() string { return FormatPDF }

// Export writes the title and generation time, then one line per record. Long listings flow onto new pages.
func (PDFExporter) Export(w io.Writer, doc Document) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// core fonts are cp1252
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(doc.Title()))
	pdf.Ln(12)

	pdf.SetFont("Arial", "I", 10)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Gerado em %s", doc.GeneratedAt.Format("02/01/2006 15:04:05"))))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(30, 8, "Data")
	pdf.Cell(30, 8, "Entrada")
	pdf.Cell(30, 8, tr("Saída"))
	pdf.Cell(0, 8, "Horas trabalhadas")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 11)
	if len(doc.Rows) == 0 {
		pdf.Cell(0, 8, tr("Nenhum ponto encontrado no período."))
		pdf.Ln(8)
	}
	for _, row := range doc.Rows {
		pdf.Cell(30, 8, row.Date.Format("02/01/2006"))
		pdf.Cell(30, 8, row.Entry)
		pdf.Cell(30, 8, row.Exit)
		pdf.Cell(0, 8, tr(row.Worked))
		pdf.Ln(8)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}
