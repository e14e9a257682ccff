// backend-go/internal/service/export.go
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/sellerpulse/backend-go/internal/domain"
	"github.com/sellerpulse/backend-go/internal/storage"
	"github.com/sellerpulse/backend-go/pkg/logger"
)

const shipmentSheet = "Shipment"

// Exporter writes the shipment workbook for one cycle result and
// optionally mirrors it to object storage. A nil Storage keeps exports
// local only.
type Exporter struct {
	Dir     string
	Storage storage.ObjectStorage
}

// Export writes an XLSX with one row per SKU included in the order and
// returns the path of the written file. The file name carries the
// export date, so one export per day overwrites the previous run.
func (e *Exporter) Export(ctx context.Context, result *CycleResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("export: nil cycle result")
	}

	dir := e.Dir
	if dir == "" {
		dir = "exports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: create dir: %w", err)
	}

	name := fmt.Sprintf("shipment-%s.xlsx", result.RanAt.Format("02-01-2006"))
	path := filepath.Join(dir, name)

	if err := writeShipmentFile(path, result.Items); err != nil {
		return "", err
	}

	if e.Storage != nil {
		if err := e.Storage.UploadFile(ctx, name, path); err != nil {
			logger.Log.Warn().Err(err).Str("file", name).Msg("shipment upload failed, file kept locally")
		}
	}

	return path, nil
}

func writeShipmentFile(path string, items []domain.ReplenishmentItem) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(shipmentSheet)
	if err != nil {
		return fmt.Errorf("export: new sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("export: drop default sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}

	header := []interface{}{"offer_id", "name", "quantity"}
	if err := f.SetSheetRow(shipmentSheet, "A1", &header); err != nil {
		return fmt.Errorf("export: header row: %w", err)
	}
	if err := f.SetCellStyle(shipmentSheet, "A1", "C1", bold); err != nil {
		return fmt.Errorf("export: header style apply: %w", err)
	}
	if err := f.SetColWidth(shipmentSheet, "A", "B", 40); err != nil {
		return fmt.Errorf("export: column width: %w", err)
	}

	row := 2
	for _, item := range items {
		if !item.IncludedInOrder {
			continue
		}
		cell := fmt.Sprintf("A%d", row)
		values := []interface{}{item.OfferID, item.Name, item.OrderQuantity}
		if err := f.SetSheetRow(shipmentSheet, cell, &values); err != nil {
			return fmt.Errorf("export: row %d: %w", row, err)
		}
		row++
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("export: save: %w", err)
	}
	return nil
}
