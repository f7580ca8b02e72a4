package shopify

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/catalog-cli/internal/model"
)

func compilerVariant(id, name string, price float64, images ...string) *model.Variant {
	return &model.Variant{
		Brand:      "Acme",
		ExternalID: id,
		RawName:    name,
		Quantity:   3,
		Price:      decimal.NewFromFloat(price),
		Images:     images,
	}
}

func compilerProduct() *model.Product {
	a := compilerVariant("111122223333", "Shampoo 8oz", 9.5,
		"https://img/a1.jpg", "https://img/a2.jpg")
	a.DetectedOptions = []model.OptionPair{{Name: "Size", Value: "8oz"}}
	b := compilerVariant("444455556666", "Shampoo 16oz", 14)
	b.DetectedOptions = []model.OptionPair{{Name: "Volume", Value: "16oz"}}

	p := model.NewProduct("Acme", "Shampoo", a)
	p.AddVariant(b)
	p.Handle = "acme-shampoo"
	p.Description = "<p>Gentle daily shampoo.</p>"
	p.Category = "Health & Beauty"
	p.Tags = []string{"hair", "shampoo"}
	return p
}

func TestCompileRowExpansion(t *testing.T) {
	rows := Compile(compilerProduct())
	// Variant a has 2 images → 2 rows; variant b has none → 1 row.
	require.Len(t, rows, 3)

	first := rows[0]
	assert.Equal(t, "acme-shampoo", first.Handle)
	assert.Equal(t, "Shampoo", first.Title)
	assert.Equal(t, "<p>Gentle daily shampoo.</p>", first.BodyHTML)
	assert.Equal(t, "hair,shampoo", first.Tags)
	assert.Equal(t, "TRUE", first.Published)
	assert.Equal(t, "active", first.Status)
	assert.Equal(t, "Acme", first.Vendor)
	assert.Equal(t, "Health & Beauty", first.ProductCategory)
	assert.Equal(t, "Size", first.Option1Name)
	assert.Equal(t, "8oz", first.Option1Value)
	assert.Equal(t, "9.50", first.VariantPrice)
	assert.Equal(t, "111122223333", first.SKU)
	assert.Equal(t, "111122223333", first.Barcode)
	assert.Equal(t, "3", first.InventoryQty)
	assert.Equal(t, "https://img/a1.jpg", first.ImageSrc)
	assert.Equal(t, "1", first.ImagePosition)

	second := rows[1]
	assert.Empty(t, second.Title)
	assert.Empty(t, second.Vendor)
	assert.Empty(t, second.SKU, "image row must not re-declare inventory")
	assert.Empty(t, second.InventoryQty)
	assert.Equal(t, "Size", second.Option1Name)
	assert.Equal(t, "8oz", second.Option1Value)
	assert.Equal(t, "9.50", second.VariantPrice)
	assert.Equal(t, "https://img/a2.jpg", second.ImageSrc)
	assert.Equal(t, "2", second.ImagePosition)

	third := rows[2]
	assert.Empty(t, third.Title, "product fields only on the very first row")
	assert.Equal(t, "Acme", third.Vendor, "vendor re-stated on variant first row")
	assert.Equal(t, "Health & Beauty", third.ProductCategory)
	assert.Equal(t, "444455556666", third.SKU)
	assert.Equal(t, "16oz", third.Option1Value)
	assert.Equal(t, "14.00", third.VariantPrice)
	assert.Empty(t, third.ImageSrc)
	assert.Empty(t, third.ImagePosition)
}

func TestCompileNoOrphanOptionValues(t *testing.T) {
	rows := Compile(compilerProduct())
	for i, row := range rows {
		pairs := [][2]string{
			{row.Option1Name, row.Option1Value},
			{row.Option2Name, row.Option2Value},
			{row.Option3Name, row.Option3Value},
		}
		for n, pair := range pairs {
			if pair[0] == "" {
				assert.Empty(t, pair[1], "row %d option %d has orphan value", i, n+1)
			}
		}
	}
}

func TestCompileCategoryFallback(t *testing.T) {
	p := compilerProduct()
	p.Category = ""
	rows := Compile(p)
	require.NotEmpty(t, rows)
	assert.Equal(t, "Other", rows[0].ProductCategory)
	assert.Empty(t, rows[0].Type)
}

func TestCompileEmptyProduct(t *testing.T) {
	p := &model.Product{Brand: "Acme", BaseName: "Ghost", Handle: "acme-ghost"}
	assert.Nil(t, Compile(p))
}

func TestCompileMissingHandle(t *testing.T) {
	p := compilerProduct()
	p.Handle = ""
	assert.Nil(t, Compile(p))
}

func TestRowRecordMatchesColumns(t *testing.T) {
	assert.Len(t, Row{}.Record(), len(Columns))
}

func TestWriterSingleFile(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "out.csv")
	w := NewWriter(base, 100)

	rows := Compile(compilerProduct())
	paths, err := w.WriteBatch(rows, 1, 1)
	require.NoError(t, err)
	require.Equal(t, []string{base}, paths)

	f, err := os.Open(base)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, Columns, records[0])
	assert.Len(t, records, len(rows)+1)
}

func TestWriterBatchSuffix(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(filepath.Join(dir, "out.csv"), 100)

	paths, err := w.WriteBatch(Compile(compilerProduct()), 2, 3)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(dir, "out_batch002.csv"), paths[0])
}

func TestWriterSplitsAtCap(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(filepath.Join(dir, "out.csv"), 2)

	var rows []Row
	for i := 0; i < 5; i++ {
		rows = append(rows, Row{Handle: fmt.Sprintf("h-%d", i)})
	}

	paths, err := w.WriteBatch(rows, 1, 1)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "out_batch001_part001.csv"),
		filepath.Join(dir, "out_batch001_part002.csv"),
		filepath.Join(dir, "out_batch001_part003.csv"),
	}, paths)

	f, err := os.Open(paths[2])
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "h-4", records[1][0])
}

func TestWriterNoRows(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "out.csv"), 10)
	paths, err := w.WriteBatch(nil, 1, 1)
	require.NoError(t, err)
	assert.Nil(t, paths)
}
