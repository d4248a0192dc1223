package ingest

import (
	"fmt"
	"os"

	"github.com/retailpulse/stocksense/internal/domain"
)

// Dataset is one fully loaded analysis input set.
type Dataset struct {
	Orders    []domain.OrderLine
	Inventory []domain.InventoryRecord
	Pending   []domain.PendingOrder
}

// LoadDataset reads the order history and inventory snapshot, plus the
// optional pending-order file when pendingPath is non-empty. XLSX inputs
// are converted to CSV first.
func LoadDataset(ordersPath, inventoryPath, pendingPath string) (*Dataset, error) {
	ordersPath, err := NormalizePath(ordersPath)
	if err != nil {
		return nil, fmt.Errorf("normalize orders file: %w", err)
	}
	orders, err := LoadOrders(ordersPath)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	inventoryPath, err = NormalizePath(inventoryPath)
	if err != nil {
		return nil, fmt.Errorf("normalize inventory file: %w", err)
	}
	inventory, err := LoadInventory(inventoryPath)
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}

	ds := &Dataset{Orders: orders, Inventory: inventory}

	if pendingPath != "" {
		if _, err := os.Stat(pendingPath); err == nil {
			pendingPath, err = NormalizePath(pendingPath)
			if err != nil {
				return nil, fmt.Errorf("normalize pending file: %w", err)
			}
			ds.Pending, err = LoadPending(pendingPath)
			if err != nil {
				return nil, fmt.Errorf("load pending orders: %w", err)
			}
		}
	}

	return ds, nil
}
