package services

import (
	"errors"
	"fmt"
	"io"

	"imdcheck/internal/models"

	"github.com/xuri/excelize/v2"
)

const exportSheetName = "IMD"

var exportHeader = []any{"Postcode", "LSOA Name", "IMD Rank", "IMD Decile"}

type ExportService struct{}

func NewExportService() (*ExportService, error) {
	return &ExportService{}, nil
}

// WriteWorkbook writes rows as a single-sheet XLSX workbook with a header row.
func (s *ExportService) WriteWorkbook(w io.Writer, rows []models.ResultRow) error {
	if s == nil {
		return errors.New("export service is nil")
	}
	if w == nil {
		return errors.New("writer is nil")
	}

	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName(file.GetSheetName(0), exportSheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := file.SetSheetRow(exportSheetName, "A1", &exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		values := []any{row.Postcode, row.AreaName, row.IMDRank, row.IMDDecile}
		if err := file.SetSheetRow(exportSheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if _, err := file.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	return nil
}
