package audit

import (
	"fmt"
	"io"
	"time"

	"lifelines-backend/internal/domain"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Audit"

var exportHeader = []string{"Seq", "Timestamp", "Entity Type", "Entity ID", "Action", "Actor ID", "Details"}

// WriteXLSX writes records as a single-sheet workbook.
func WriteXLSX(w io.Writer, records []domain.AuditRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for col, h := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(exportSheet, cell, cell, headerStyle); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(exportSheet, "B", "B", 24)
	_ = f.SetColWidth(exportSheet, "D", "D", 38)
	_ = f.SetColWidth(exportSheet, "G", "G", 60)

	for i, r := range records {
		row := []interface{}{
			r.Seq,
			r.Timestamp.UTC().Format(time.RFC3339),
			r.EntityType,
			r.EntityID,
			r.Action,
			r.ActorID,
			string(r.Details),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	_, err = f.WriteTo(w)
	return err
}
