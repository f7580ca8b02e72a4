package ingest

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/model"
)

// ParseXLSX reads the first sheet of a supplier workbook with the same
// column contract and coercions as ParseCSV.
func ParseXLSX(path string) ([]*model.Variant, ParseStats, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, ParseStats{}, eris.Wrap(err, "ingest: open workbook")
	}
	if len(f.Sheets) == 0 {
		return nil, ParseStats{}, eris.New("ingest: workbook has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, ParseStats{}, eris.New("ingest: sheet is empty")
	}

	cols, err := indexColumns(rowCells(sheet.Rows[0]))
	if err != nil {
		return nil, ParseStats{}, err
	}

	var (
		variants []*model.Variant
		stats    ParseStats
		seen     = make(map[string]struct{})
	)
	for _, row := range sheet.Rows[1:] {
		stats.RowsRead++
		v := parseRecord(rowCells(row), cols, seen, &stats)
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

func rowCells(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}
