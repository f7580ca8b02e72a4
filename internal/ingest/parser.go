// Package ingest parses supplier price lists (CSV or XLSX) into catalog
// variants. One input row is one variant; rows with missing identifiers,
// duplicate identifiers, or empty names are skipped and counted, never
// fatal.
package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/model"
)

// Input column names. Header cells are trimmed before matching, so the
// supplier's stray padding around "TAX" is tolerated.
const (
	colBrand = "PIM | Brand"
	colUPC   = "UPC Code"
	colName  = "Name"
	colQty   = "qty"
	colPrice = "PRICE"
	colTax   = "TAX"
)

var requiredColumns = []string{colBrand, colUPC, colName, colQty, colPrice}

// ParseStats counts ingestion outcomes for one file.
type ParseStats struct {
	RowsRead   int
	Valid      int
	Duplicates int
	Incomplete int
	Errors     int
}

// ParseFile parses a price list, dispatching on file extension. ".xlsx"
// goes through the spreadsheet reader; anything else is treated as CSV.
func ParseFile(path string) ([]*model.Variant, ParseStats, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ParseXLSX(path)
	}
	return ParseCSV(path)
}

// ParseCSV reads a supplier CSV and returns the valid variants plus parse
// counters. Returns an error only for unreadable files or a header missing
// required columns.
func ParseCSV(path string) ([]*model.Variant, ParseStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ParseStats{}, eris.Wrap(err, "ingest: open input file")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, ParseStats{}, eris.Wrap(err, "ingest: read header")
	}

	cols, err := indexColumns(header)
	if err != nil {
		return nil, ParseStats{}, err
	}

	var (
		variants []*model.Variant
		stats    ParseStats
		seen     = make(map[string]struct{})
	)

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			stats.RowsRead++
			stats.Errors++
			zap.L().Warn("ingest: malformed row", zap.Error(err))
			continue
		}
		stats.RowsRead++

		v := parseRecord(record, cols, seen, &stats)
		if v != nil {
			variants = append(variants, v)
			stats.Valid++
		}
	}

	zap.L().Info("ingest: parse complete",
		zap.String("path", path),
		zap.Int("rows_read", stats.RowsRead),
		zap.Int("valid", stats.Valid),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("incomplete", stats.Incomplete),
		zap.Int("errors", stats.Errors))
	return variants, stats, nil
}

// indexColumns maps trimmed header names to positions and checks required
// columns are present. A UTF-8 BOM on the first cell is stripped.
func indexColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		cols[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, req := range requiredColumns {
		if _, ok := cols[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, eris.New("ingest: missing required columns: " + strings.Join(missing, ", "))
	}
	return cols, nil
}

// parseRecord converts one row into a variant, applying the lenient
// coercions: blank brand becomes "Unknown", unparsable quantity becomes 1,
// unparsable or negative price becomes 0. Returns nil for skipped rows.
func parseRecord(record []string, cols map[string]int, seen map[string]struct{}, stats *ParseStats) *model.Variant {
	cell := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	upc := cell(colUPC)
	name := cell(colName)
	if upc == "" || name == "" {
		stats.Incomplete++
		return nil
	}
	if _, dup := seen[upc]; dup {
		stats.Duplicates++
		zap.L().Debug("ingest: duplicate identifier skipped", zap.String("upc", upc))
		return nil
	}
	seen[upc] = struct{}{}

	brand := cell(colBrand)
	if brand == "" {
		brand = "Unknown"
	}

	qty := 1
	if raw := cell(colQty); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && int(parsed) > 0 {
			qty = int(parsed)
		}
	}

	price := decimal.Zero
	if raw := cell(colPrice); raw != "" {
		if parsed, err := decimal.NewFromString(raw); err == nil && !parsed.IsNegative() {
			price = parsed
		}
	}

	tax := cell(colTax)
	if tax == "" {
		tax = "No tax info"
	}

	return &model.Variant{
		Brand:      brand,
		ExternalID: upc,
		RawName:    name,
		Quantity:   qty,
		Price:      price,
		TaxInfo:    tax,
	}
}
