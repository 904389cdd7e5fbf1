// Package export renders committed history as an Excel workbook, one sheet
// per record kind.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"nestlog-reconcile/internal/domain"
)

// HistoryHeader is the column set shared by every sheet.
var HistoryHeader = []string{
	"Start Time",
	"End Time",
	"Quantity",
}

// sheetOrder fixes the workbook layout. Other-kind records are merged into
// activities by the history provider before they get here.
var sheetOrder = []struct {
	name string
	kind domain.EventKind
}{
	{"Sleep", domain.KindSleep},
	{"Feeds", domain.KindFeed},
	{"Diapers", domain.KindDiaper},
	{"Activities", domain.KindActivity},
}

// BuildHistoryWorkbook writes one sheet per kind, headers always present even
// when a kind has no records in the window.
func BuildHistoryWorkbook(records []domain.ExistingRecord) ([]byte, error) {
	f := excelize.NewFile()
	// Don't defer Close() here, WriteTo needs the file open.

	byKind := make(map[domain.EventKind][]domain.ExistingRecord)
	for _, record := range records {
		kind := record.Kind
		if kind == domain.KindOther {
			kind = domain.KindActivity
		}
		byKind[kind] = append(byKind[kind], record)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, sheet := range sheetOrder {
		index, err := f.NewSheet(sheet.name)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", sheet.name, err)
		}
		if i == 0 {
			f.SetActiveSheet(index)
		}
		if err := writeSheet(f, sheet.name, headerStyle, byKind[sheet.kind]); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheetName string, headerStyle int, records []domain.ExistingRecord) error {
	for col, header := range HistoryHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for col := range HistoryHeader {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, name, name, 22); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for rowIdx, record := range records {
		row := rowIdx + 2
		values := []string{
			formatTime(record.StartTime),
			"",
			record.QuantityText,
		}
		if record.EndTime != nil {
			values[1] = formatTime(*record.EndTime)
		}
		for col, value := range values {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
