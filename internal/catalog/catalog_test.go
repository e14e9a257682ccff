// backend-go/internal/catalog/catalog_test.go
package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellerpulse/backend-go/internal/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSV_SemicolonDelimited(t *testing.T) {
	path := writeFile(t, "products.csv",
		"sku;offer_id;name;min_stock;pack_size;disabled\n"+
			"111;OFF-1;Widget;4;2;0\n"+
			"222;OFF-2;Gadget;;;1\n")

	products, err := NewCSV(path).Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "111", products[0].SKU)
	assert.Equal(t, "OFF-1", products[0].OfferID)
	require.NotNil(t, products[0].MinStock)
	assert.Equal(t, 4, *products[0].MinStock)
	require.NotNil(t, products[0].PackSize)
	assert.Equal(t, 2, *products[0].PackSize)
	assert.False(t, products[0].Disabled)

	assert.Nil(t, products[1].MinStock)
	assert.Nil(t, products[1].PackSize)
	assert.True(t, products[1].Disabled)
}

func TestCSV_CommaDelimited(t *testing.T) {
	path := writeFile(t, "products.csv",
		"sku,offer_id,name\n"+
			"111,OFF-1,Widget\n")

	products, err := NewCSV(path).Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Widget", products[0].Name)
}

func TestCSV_SkipsRowsWithoutSKU(t *testing.T) {
	path := writeFile(t, "products.csv",
		"sku;offer_id;name\n"+
			";OFF-1;Orphan\n"+
			"222;OFF-2;Kept\n")

	products, err := NewCSV(path).Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "222", products[0].SKU)
}

func TestCSV_MissingFileIsEmptyCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.csv")

	products, err := NewCSV(path).Products(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestCSV_DecimalCommaInNumericColumns(t *testing.T) {
	path := writeFile(t, "products.csv",
		"sku;min_stock\n"+
			"111;\"4,0\"\n")

	products, err := NewCSV(path).Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.NotNil(t, products[0].MinStock)
	assert.Equal(t, 4, *products[0].MinStock)
}

func TestApplyOverrides(t *testing.T) {
	four, six := 4, 6
	yes := true

	products := []domain.Product{
		{SKU: "111", MinStock: &four},
		{SKU: "222"},
	}
	overrides := map[string]Override{
		"111": {SKU: "111", PackSize: &six, Disabled: &yes},
	}

	out := ApplyOverrides(products, overrides)

	require.NotNil(t, out[0].MinStock)
	assert.Equal(t, 4, *out[0].MinStock, "untouched field keeps the catalog value")
	require.NotNil(t, out[0].PackSize)
	assert.Equal(t, 6, *out[0].PackSize)
	assert.True(t, out[0].Disabled)

	assert.False(t, out[1].Disabled, "SKU without an override stays as-is")
}

func TestLoadOverrides_MissingFileMeansNone(t *testing.T) {
	overrides, err := LoadOverrides(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, overrides)
}

func TestSource_MergesOverridesOverCSV(t *testing.T) {
	csvPath := writeFile(t, "products.csv",
		"sku;offer_id;pack_size\n"+
			"111;OFF-1;2\n")
	ovrPath := writeFile(t, "overrides.json",
		`[{"sku":"111","pack_size":10}]`)

	products, err := NewSource(csvPath, ovrPath).Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.NotNil(t, products[0].PackSize)
	assert.Equal(t, 10, *products[0].PackSize)
}

func TestDisabledMap_SetAndClear(t *testing.T) {
	d := NewDisabledMap(filepath.Join(t.TempDir(), "disabled.json"))

	m, err := d.Set("111", true)
	require.NoError(t, err)
	assert.True(t, m["111"])
	assert.True(t, d.IsDisabled("111"))

	m, err = d.Set("111", false)
	require.NoError(t, err)
	_, present := m["111"]
	assert.False(t, present, "re-enabling removes the entry")
	assert.False(t, d.IsDisabled("111"))
}

func TestDisabledMap_UnreadableFileMeansAllEnabled(t *testing.T) {
	path := writeFile(t, "disabled.json", "{not json")

	d := NewDisabledMap(path)
	assert.Empty(t, d.All())
}
