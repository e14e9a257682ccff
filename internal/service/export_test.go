// backend-go/internal/service/export_test.go
package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sellerpulse/backend-go/internal/domain"
)

func TestExporter_WritesOrderedRowsOnly(t *testing.T) {
	dir := t.TempDir()
	e := &Exporter{Dir: dir}

	result := &CycleResult{
		RanAt: fixedClock(),
		Items: []domain.ReplenishmentItem{
			{OfferID: "OFF-A", Name: "Ordered product", OrderQuantity: 20, IncludedInOrder: true},
			{OfferID: "OFF-B", Name: "Skipped product", OrderQuantity: 0},
			{OfferID: "OFF-C", Name: "Also ordered", OrderQuantity: 6, IncludedInOrder: true},
		},
	}

	path, err := e.Export(context.Background(), result)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "shipment-15-06-2025.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(shipmentSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus the two ordered SKUs")

	assert.Equal(t, []string{"offer_id", "name", "quantity"}, rows[0])
	assert.Equal(t, []string{"OFF-A", "Ordered product", "20"}, rows[1])
	assert.Equal(t, []string{"OFF-C", "Also ordered", "6"}, rows[2])
}

func TestExporter_NilResult(t *testing.T) {
	e := &Exporter{Dir: t.TempDir()}
	_, err := e.Export(context.Background(), nil)
	assert.Error(t, err)
}
