package shopify

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultRecordsPerFile caps rows per output file before splitting.
const DefaultRecordsPerFile = 1000

// Writer writes compiled rows to CSV files, one header per file, splitting
// a batch across numbered part files when it exceeds the per-file cap.
type Writer struct {
	basePath       string
	recordsPerFile int
}

// NewWriter creates a writer rooted at the base output path. Batch and part
// suffixes are derived from it. A non-positive cap falls back to the
// default.
func NewWriter(basePath string, recordsPerFile int) *Writer {
	if recordsPerFile <= 0 {
		recordsPerFile = DefaultRecordsPerFile
	}
	return &Writer{basePath: basePath, recordsPerFile: recordsPerFile}
}

// WriteBatch writes one batch's rows and returns the paths written. A
// single-batch run that fits the cap writes the base path unchanged;
// multi-batch runs suffix _batchNNN; batches over the cap split into
// _batchNNN_partNNN files with contiguous row ranges.
func (w *Writer) WriteBatch(rows []Row, batchNum, totalBatches int) ([]string, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	dir := filepath.Dir(w.basePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "shopify: create output dir")
	}

	ext := filepath.Ext(w.basePath)
	stem := strings.TrimSuffix(w.basePath, ext)

	batchPath := w.basePath
	if totalBatches > 1 {
		batchPath = fmt.Sprintf("%s_batch%03d%s", stem, batchNum, ext)
	}

	if len(rows) <= w.recordsPerFile {
		if err := w.writeFile(batchPath, rows); err != nil {
			return nil, err
		}
		return []string{batchPath}, nil
	}

	var paths []string
	for part, start := 1, 0; start < len(rows); part, start = part+1, start+w.recordsPerFile {
		end := start + w.recordsPerFile
		if end > len(rows) {
			end = len(rows)
		}
		path := fmt.Sprintf("%s_batch%03d_part%03d%s", stem, batchNum, part, ext)
		if err := w.writeFile(path, rows[start:end]); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (w *Writer) writeFile(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "shopify: create output file")
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "shopify: write header")
	}
	for _, row := range rows {
		if err := cw.Write(row.Record()); err != nil {
			return eris.Wrap(err, "shopify: write row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "shopify: flush output")
	}
	if err := f.Close(); err != nil {
		return eris.Wrap(err, "shopify: close output file")
	}

	zap.L().Debug("shopify: wrote output file",
		zap.String("path", path),
		zap.Int("rows", len(rows)))
	return nil
}
