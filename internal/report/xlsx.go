package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Pontos"

type XLSXExporter struct{}

func (XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSXExporter) Extension() string { return FormatXLSX }

func (XLSXExporter) Export(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	cells := map[string]interface{}{
		"A1": doc.Title(),
		"A2": "Gerado em",
		"B2": doc.GeneratedAt.Format("02/01/2006 15:04:05"),
		"A4": "Data",
		"B4": "Entrada",
		"C4": "Saída",
		"D4": "Horas trabalhadas",
	}
	for cell, value := range cells {
		if err := f.SetCellValue(sheetName, cell, value); err != nil {
			return fmt.Errorf("set %s: %w", cell, err)
		}
	}
	if err := f.SetCellStyle(sheetName, "A4", "D4", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", "A1", headerStyle); err != nil {
		return fmt.Errorf("style title: %w", err)
	}

	for i, row := range doc.Rows {
		line := i + 5
		values := []interface{}{row.Date.Format("02/01/2006"), row.Entry, row.Exit, row.Worked}
		cell, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", line, err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", "D", 20); err != nil {
		return fmt.Errorf("size columns: %w", err)
	}

	_, err = f.WriteTo(w)
	return err
}
