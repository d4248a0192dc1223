package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadOrders(t *testing.T) {
	path := writeCSV(t, "orders.csv", `Product ID,SKU,Brand,Quantity,Unit Price,Location,Ordered At
p1,SKU-1,Acme,3,"1,250.50",Jakarta,2025-07-01
p1,SKU-1,Acme,2,10,Jakarta,2025-07-02 10:30:00
,SKU-2,Acme,1,5,Jakarta,2025-07-03
p2,SKU-2,Acme,1,5,Jakarta,not-a-date
`)

	lines, err := LoadOrders(path)
	require.NoError(t, err)

	// Rows without a product id or parseable date are skipped.
	require.Len(t, lines, 2)
	assert.Equal(t, "p1", lines[0].ProductID)
	assert.Equal(t, 3.0, lines[0].Quantity)
	assert.Equal(t, 1250.50, lines[0].UnitPrice)
	assert.Equal(t, "Jakarta", lines[0].Location)
	assert.Equal(t, 2025, lines[0].OrderedAt.Year())
	assert.Equal(t, 10, lines[1].OrderedAt.Hour())
}

func TestLoadOrdersColumnAliases(t *testing.T) {
	path := writeCSV(t, "orders.csv", `product id,qty,order_date,vendor,store
p1,4,2025-06-15,Acme,Padang
`)

	lines, err := LoadOrders(path)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 4.0, lines[0].Quantity)
	assert.Equal(t, "Acme", lines[0].Brand)
	assert.Equal(t, "Padang", lines[0].Location)
}

func TestLoadOrdersMissingRequiredColumn(t *testing.T) {
	path := writeCSV(t, "orders.csv", `product_id,ordered_at
p1,2025-06-15
`)

	_, err := LoadOrders(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantity")
}

func TestLoadOrdersMissingColumnFailsEvenWhenEmpty(t *testing.T) {
	path := writeCSV(t, "orders.csv", "sku,quantity,ordered_at\n")

	_, err := LoadOrders(path)
	assert.Error(t, err)
}

func TestLoadInventory(t *testing.T) {
	path := writeCSV(t, "inventory.csv", `product_id,sku,location,stock
p1,SKU-1,Jakarta,25
p1,SKU-1,Padang,4
,SKU-9,Jakarta,99
`)

	records, err := LoadInventory(path)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, 25.0, records[0].OnHand)
	assert.Equal(t, "Padang", records[1].Location)
}

func TestLoadInventoryMissingOnHand(t *testing.T) {
	path := writeCSV(t, "inventory.csv", "product_id,location\np1,Jakarta\n")

	_, err := LoadInventory(path)
	assert.Error(t, err)
}

func TestLoadPending(t *testing.T) {
	path := writeCSV(t, "pending.csv", `style,variant,quantity,location,eta
SKU-1,Red/M,40,Jakarta,2025-08-20
,Blue/S,10,Jakarta,2025-08-22
`)

	pending, err := LoadPending(path)
	require.NoError(t, err)

	require.Len(t, pending, 1)
	assert.Equal(t, "SKU-1", pending[0].SKU)
	assert.Equal(t, 40.0, pending[0].Quantity)
	assert.False(t, pending[0].ExpectedAt.IsZero())
}

func TestLoadDataset(t *testing.T) {
	orders := writeCSV(t, "orders.csv", "product_id,quantity,ordered_at\np1,2,2025-07-01\n")
	inventory := writeCSV(t, "inventory.csv", "product_id,on_hand\np1,12\n")

	ds, err := LoadDataset(orders, inventory, "")
	require.NoError(t, err)

	assert.Len(t, ds.Orders, 1)
	assert.Len(t, ds.Inventory, 1)
	assert.Empty(t, ds.Pending)
}

func TestLoadDatasetWithPending(t *testing.T) {
	orders := writeCSV(t, "orders.csv", "product_id,quantity,ordered_at\np1,2,2025-07-01\n")
	inventory := writeCSV(t, "inventory.csv", "product_id,on_hand\np1,12\n")
	pending := writeCSV(t, "pending.csv", "sku,quantity\nSKU-1,30\n")

	ds, err := LoadDataset(orders, inventory, pending)
	require.NoError(t, err)
	require.Len(t, ds.Pending, 1)
	assert.Equal(t, 30.0, ds.Pending[0].Quantity)
}

func TestNormalizePathPassesCSVThrough(t *testing.T) {
	got, err := NormalizePath("/tmp/data.csv")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/data.csv", got)
}
