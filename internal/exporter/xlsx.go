package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"finscrape/pkg/contracts/domain"
)

// WorkbookSheet is the sheet name of exported result workbooks
const WorkbookSheet = "Results"

// textColumns are never converted to numbers even when they look numeric
var textColumns = map[string]bool{
	string(domain.FieldStockSymbol): true,
	string(domain.FieldExchange):    true,
	string(domain.FieldStockName):   true,
	string(domain.FieldResolution):  true,
}

// ExportWorkbook converts a result file into an xlsx workbook. The header row
// is bold; numeric cells are written as numbers and N/A stays text.
func ExportWorkbook(csvPath, xlsxPath string) error {
	rows, err := ReadRows(csvPath)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("result file %s is empty", csvPath)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", WorkbookSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	header := rows[0]
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(WorkbookSheet, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(WorkbookSheet, "A1", last, bold); err != nil {
		return err
	}

	for r, row := range rows[1:] {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(WorkbookSheet, cell, cellValue(header, c, v)); err != nil {
				return err
			}
		}
	}

	if err := f.SetPanes(WorkbookSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(xlsxPath), 0o755); err != nil {
		return err
	}
	if err := f.SaveAs(xlsxPath); err != nil {
		return fmt.Errorf("save workbook %s: %w", xlsxPath, err)
	}
	return nil
}

func cellValue(header []string, col int, v string) any {
	if v == domain.MissingText || col >= len(header) || textColumns[header[col]] {
		return v
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}
