// Package report renders attendance listings as downloadable documents.
package report

import (
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

var ErrUnknownFormat = errors.New("unknown report format")

type Row struct {
	Date   time.Time
	Entry  string
	Exit   string
	Worked string
}

type Document struct {
	EmployeeName string
	GeneratedAt  time.Time
	Rows         []Row
}

func (d Document) Title() string {
	return fmt.Sprintf("Pontos de %s", d.EmployeeName)
}

type Exporter interface {
	Export(w io.Writer, doc Document) error
	ContentType() string
	Extension() string
}

// ForFormat picks the exporter of a "formato" form value.
func ForFormat(format string) (Exporter, error) {
	switch format {
	case FormatPDF:
		return PDFExporter{}, nil
	case FormatXLSX:
		return XLSXExporter{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Filename is the attachment name of doc for exporter e.
func Filename(e Exporter, doc Document) string {
	return fmt.Sprintf("pontos_%s.%s", doc.GeneratedAt.Format("20060102_150405"), e.Extension())
}
