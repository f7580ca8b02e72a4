package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validHeader = "PIM | Brand,UPC Code,Name,qty,PRICE,TAX\n"

func TestParseCSVValidRows(t *testing.T) {
	path := writeCSV(t, validHeader+
		"Acme,111122223333,Shampoo 8oz,2,9.50,VAT 20%\n"+
		"Acme,444455556666,Shampoo 16oz,1,14.00,\n")

	variants, stats, err := ParseCSV(path)
	require.NoError(t, err)
	require.Len(t, variants, 2)
	assert.Equal(t, 2, stats.RowsRead)
	assert.Equal(t, 2, stats.Valid)

	v := variants[0]
	assert.Equal(t, "Acme", v.Brand)
	assert.Equal(t, "111122223333", v.ExternalID)
	assert.Equal(t, "Shampoo 8oz", v.RawName)
	assert.Equal(t, 2, v.Quantity)
	assert.True(t, v.Price.Equal(decimal.NewFromFloat(9.5)))
	assert.Equal(t, "VAT 20%", v.TaxInfo)
	assert.Equal(t, "No tax info", variants[1].TaxInfo)
}

func TestParseCSVSkipsDuplicatesAndIncomplete(t *testing.T) {
	path := writeCSV(t, validHeader+
		"Acme,111,Shampoo,1,5,\n"+
		"Acme,111,Shampoo again,1,5,\n"+
		"Acme,,No UPC,1,5,\n"+
		"Acme,222,,1,5,\n")

	variants, stats, err := ParseCSV(path)
	require.NoError(t, err)
	assert.Len(t, variants, 1)
	assert.Equal(t, 4, stats.RowsRead)
	assert.Equal(t, 1, stats.Valid)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, 2, stats.Incomplete)
}

func TestParseCSVCoercions(t *testing.T) {
	path := writeCSV(t, validHeader+
		"  ,111,Mystery Soap,abc,-3.50,\n")

	variants, _, err := ParseCSV(path)
	require.NoError(t, err)
	require.Len(t, variants, 1)

	v := variants[0]
	assert.Equal(t, "Unknown", v.Brand)
	assert.Equal(t, 1, v.Quantity)
	assert.True(t, v.Price.IsZero())
}

func TestParseCSVMissingColumns(t *testing.T) {
	path := writeCSV(t, "Brand,Barcode,Title\nAcme,111,Soap\n")

	_, _, err := ParseCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns")
}

func TestParseCSVHeaderWithPaddedTax(t *testing.T) {
	path := writeCSV(t, "PIM | Brand,UPC Code,Name,qty,PRICE,TAX  \n"+
		"Acme,111,Soap,1,2.00,included\n")

	variants, _, err := ParseCSV(path)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, "included", variants[0].TaxInfo)
}

func TestParseCSVStripsBOM(t *testing.T) {
	path := writeCSV(t, "\ufeff"+validHeader+"Acme,111,Soap,1,2.00,\n")

	variants, _, err := ParseCSV(path)
	require.NoError(t, err)
	assert.Len(t, variants, 1)
}

func TestParseCSVMissingFile(t *testing.T) {
	_, _, err := ParseCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestParseFileDispatch(t *testing.T) {
	path := writeCSV(t, validHeader+"Acme,111,Soap,1,2.00,\n")
	variants, _, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, variants, 1)
}
