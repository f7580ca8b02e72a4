package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/catalog-cli/internal/model"
)

func checkpointProduct() *model.Product {
	v := &model.Variant{
		Brand:      "Acme",
		ExternalID: "12345",
		RawName:    "Shampoo 8oz",
		Quantity:   2,
		Price:      decimal.NewFromFloat(7.25),
		Images:     []string{"https://img/a.jpg"},
	}
	p := model.NewProduct("Acme", "Shampoo", v)
	p.Handle = "acme-shampoo"
	return p
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())
	stats := model.NewProcessingStats()
	stats.RecordGrouping(1, 1)

	require.NoError(t, s.Save(3, []*model.Product{checkpointProduct()}, stats.Snapshot(), 42))

	products, rows, ok := s.Load(3)
	require.True(t, ok)
	assert.Equal(t, 42, rows)
	require.Len(t, products, 1)
	assert.Equal(t, "acme-shampoo", products[0].Handle)
	require.Len(t, products[0].Variants, 1)
	assert.Equal(t, "12345", products[0].Variants[0].ExternalID)
	assert.True(t, products[0].Variants[0].Price.Equal(decimal.NewFromFloat(7.25)))
}

func TestLoadMissingIsAbsent(t *testing.T) {
	s := NewStore(t.TempDir())
	_, _, ok := s.Load(1)
	assert.False(t, ok)
}

func TestLoadCorruptIsAbsent(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checkpoint_batch_1.json"), []byte("{not json"), 0o644))

	_, _, ok := s.Load(1)
	assert.False(t, ok)
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	require.NoError(t, s.Save(1, nil, model.StatsSnapshot{}, 0))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "checkpoint_batch_1.json", entries[0].Name())
}

func TestClearRemovesOnlyCheckpoints(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	require.NoError(t, s.Save(1, nil, model.StatsSnapshot{}, 0))
	require.NoError(t, s.Save(2, nil, model.StatsSnapshot{}, 0))
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("keep"), 0o644))

	require.NoError(t, s.Clear())

	_, _, ok := s.Load(1)
	assert.False(t, ok)
	_, err := os.Stat(other)
	assert.NoError(t, err)
}

func TestClearMissingDirIsNoop(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nope"))
	assert.NoError(t, s.Clear())
}
