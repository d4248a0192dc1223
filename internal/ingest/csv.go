package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/retailpulse/stocksense/internal/domain"
)

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// header wraps a CSV header row with alias-aware column lookup.
type header struct {
	columns []string
}

func (h header) index(names ...string) int {
	targets := make(map[string]struct{}, len(names))
	for _, name := range names {
		targets[normalizeColumnName(name)] = struct{}{}
	}
	for i, c := range h.columns {
		if _, ok := targets[normalizeColumnName(c)]; ok {
			return i
		}
	}
	return -1
}

// require returns the index of a column that must exist; a missing
// required column fails the whole load since no row can be analyzed
// without it.
func (h header) require(names ...string) (int, error) {
	if idx := h.index(names...); idx >= 0 {
		return idx, nil
	}
	return -1, fmt.Errorf("required column %q not found in header %v", names[0], h.columns)
}

func get(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseFloat(record []string, idx int) float64 {
	v := get(record, idx)
	if v == "" {
		return 0
	}
	v = strings.ReplaceAll(v, ",", "")
	f, _ := strconv.ParseFloat(v, 64)
	return f
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

func parseDate(record []string, idx int) time.Time {
	v := get(record, idx)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// readAll streams a CSV file: bind resolves column indexes from the
// header (and fails the load on missing required columns), row handles
// each data record.
func readAll(path string, bind func(h header) error, row func(record []string) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headerRow, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read header from %s: %w", path, err)
	}
	if err := bind(header{columns: headerRow}); err != nil {
		return err
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read row from %s: %w", path, err)
		}
		if err := row(record); err != nil {
			return err
		}
	}
	return nil
}

// LoadOrders reads an order export CSV. product_id, quantity and the
// order date are required; everything else is optional.
func LoadOrders(path string) ([]domain.OrderLine, error) {
	var lines []domain.OrderLine
	var idxProduct, idxDate, idxQty int
	var idxVariant, idxSKU, idxDesc, idxBrand, idxPrice, idxLocation int

	bind := func(h header) error {
		var err error
		if idxProduct, err = h.require("product_id", "product id"); err != nil {
			return err
		}
		if idxQty, err = h.require("quantity", "qty", "units"); err != nil {
			return err
		}
		if idxDate, err = h.require("ordered_at", "order_date", "created_at", "date"); err != nil {
			return err
		}
		idxVariant = h.index("variant_id", "variant id")
		idxSKU = h.index("sku", "style", "style_number")
		idxDesc = h.index("description", "product name", "title")
		idxBrand = h.index("brand", "vendor")
		idxPrice = h.index("unit_price", "price")
		idxLocation = h.index("location", "store", "warehouse")
		return nil
	}

	err := readAll(path, bind, func(record []string) error {
		productID := get(record, idxProduct)
		orderedAt := parseDate(record, idxDate)
		if productID == "" || orderedAt.IsZero() {
			log.Debug().Strs("record", record).Msg("skipping order row without product or date")
			return nil
		}

		lines = append(lines, domain.OrderLine{
			ProductID:   productID,
			VariantID:   get(record, idxVariant),
			SKU:         get(record, idxSKU),
			Description: get(record, idxDesc),
			Brand:       get(record, idxBrand),
			Quantity:    parseFloat(record, idxQty),
			UnitPrice:   parseFloat(record, idxPrice),
			Location:    get(record, idxLocation),
			OrderedAt:   orderedAt,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("path", path).Int("rows", len(lines)).Msg("loaded order lines")
	return lines, nil
}

// LoadInventory reads an inventory snapshot CSV. product_id and on_hand
// are required.
func LoadInventory(path string) ([]domain.InventoryRecord, error) {
	var records []domain.InventoryRecord
	var idxProduct, idxOnHand int
	var idxVariant, idxSKU, idxDesc, idxBrand, idxLocation int

	bind := func(h header) error {
		var err error
		if idxProduct, err = h.require("product_id", "product id"); err != nil {
			return err
		}
		if idxOnHand, err = h.require("on_hand", "stock", "available", "inventory_quantity"); err != nil {
			return err
		}
		idxVariant = h.index("variant_id", "variant id")
		idxSKU = h.index("sku", "style", "style_number")
		idxDesc = h.index("description", "product name", "title")
		idxBrand = h.index("brand", "vendor")
		idxLocation = h.index("location", "store", "warehouse")
		return nil
	}

	err := readAll(path, bind, func(record []string) error {
		productID := get(record, idxProduct)
		if productID == "" {
			return nil
		}

		records = append(records, domain.InventoryRecord{
			ProductID:   productID,
			VariantID:   get(record, idxVariant),
			SKU:         get(record, idxSKU),
			Description: get(record, idxDesc),
			Brand:       get(record, idxBrand),
			Location:    get(record, idxLocation),
			OnHand:      parseFloat(record, idxOnHand),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("path", path).Int("rows", len(records)).Msg("loaded inventory snapshot")
	return records, nil
}

// LoadPending reads a pending-order CSV. The file is optional upstream,
// but once given it must carry the style and quantity columns.
func LoadPending(path string) ([]domain.PendingOrder, error) {
	var pending []domain.PendingOrder
	var idxSKU, idxQty int
	var idxVariant, idxLocation, idxExpected, idxBrand int

	bind := func(h header) error {
		var err error
		if idxSKU, err = h.require("sku", "style", "style_number"); err != nil {
			return err
		}
		if idxQty, err = h.require("quantity", "qty", "units"); err != nil {
			return err
		}
		idxVariant = h.index("variant", "variant_id")
		idxLocation = h.index("location", "store", "warehouse")
		idxExpected = h.index("expected_at", "expected", "eta", "arrival_date")
		idxBrand = h.index("brand", "vendor")
		return nil
	}

	err := readAll(path, bind, func(record []string) error {
		sku := get(record, idxSKU)
		if sku == "" {
			return nil
		}

		pending = append(pending, domain.PendingOrder{
			SKU:        sku,
			Variant:    get(record, idxVariant),
			Quantity:   parseFloat(record, idxQty),
			Location:   get(record, idxLocation),
			ExpectedAt: parseDate(record, idxExpected),
			Brand:      get(record, idxBrand),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("path", path).Int("rows", len(pending)).Msg("loaded pending orders")
	return pending, nil
}
