// Package checkpoint persists per-batch progress so an interrupted run can
// resume without repeating completed batches. One JSON file per batch,
// written atomically.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/model"
)

const filePattern = "checkpoint_batch_%d.json"

// Store writes and reads batch checkpoints under a single directory.
type Store struct {
	dir string
}

// NewStore creates a checkpoint store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

type batchCheckpoint struct {
	BatchNum    int                 `json:"batch_num"`
	SavedAt     time.Time           `json:"saved_at"`
	RowsWritten int                 `json:"rows_written"`
	Stats       model.StatsSnapshot `json:"stats"`
	Products    []*model.Product    `json:"products"`
}

// Save writes the batch checkpoint atomically: serialize to a temp sibling,
// then rename over the target so readers never see a partial file.
func (s *Store) Save(batchNum int, products []*model.Product, stats model.StatsSnapshot, rowsWritten int) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return eris.Wrap(err, "checkpoint: create dir")
	}

	cp := batchCheckpoint{
		BatchNum:    batchNum,
		SavedAt:     time.Now().UTC(),
		RowsWritten: rowsWritten,
		Stats:       stats,
		Products:    products,
	}
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return eris.Wrap(err, "checkpoint: marshal")
	}

	target := s.path(batchNum)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrap(err, "checkpoint: write temp file")
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return eris.Wrap(err, "checkpoint: commit")
	}

	zap.L().Debug("checkpoint: saved batch",
		zap.Int("batch", batchNum),
		zap.Int("products", len(products)),
		zap.Int("rows_written", rowsWritten))
	return nil
}

// Load reads the checkpoint for a batch. A missing or corrupt file is
// treated as no prior progress, never an error.
func (s *Store) Load(batchNum int) ([]*model.Product, int, bool) {
	data, err := os.ReadFile(s.path(batchNum))
	if err != nil {
		return nil, 0, false
	}

	var cp batchCheckpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		zap.L().Warn("checkpoint: corrupt file ignored",
			zap.Int("batch", batchNum),
			zap.Error(err))
		return nil, 0, false
	}
	return cp.Products, cp.RowsWritten, true
}

// Clear removes every checkpoint file in the store's directory. Missing
// directory is a no-op.
func (s *Store) Clear() error {
	matches, err := filepath.Glob(filepath.Join(s.dir, "checkpoint_batch_*.json"))
	if err != nil {
		return eris.Wrap(err, "checkpoint: glob")
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			return eris.Wrap(err, "checkpoint: remove")
		}
	}
	if len(matches) > 0 {
		zap.L().Info("checkpoint: cleared", zap.Int("files", len(matches)))
	}
	return nil
}

func (s *Store) path(batchNum int) string {
	return filepath.Join(s.dir, fmt.Sprintf(filePattern, batchNum))
}
