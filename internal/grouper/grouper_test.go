package grouper

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/catalog-cli/internal/model"
)

func variant(brand, id, name string) *model.Variant {
	return &model.Variant{
		Brand:      brand,
		ExternalID: id,
		RawName:    name,
		Quantity:   1,
		Price:      decimal.NewFromFloat(12.50),
	}
}

func TestExtractBaseName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Shampoo Black 50ml", "Shampoo"},
		{"Lipstick Red #45", "Lipstick"},
		{"Cream 100g Vanilla", "Cream"},
		{"Daily Moisturizer (travel size)", "Daily Moisturizer"},
		{"Hydrating Serum - Rose", "Hydrating Serum"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractBaseName(tt.in))
		})
	}
}

func TestExtractBaseNameShortFallback(t *testing.T) {
	// Everything strips away, so the first words of the original survive.
	got := ExtractBaseName("XL #12")
	assert.Equal(t, "Xl #12", got)
}

func TestGroupClustersColorAndSizeVariants(t *testing.T) {
	g := New(0)
	variants := []*model.Variant{
		variant("Acme", "1", "Shampoo Black 50ml"),
		variant("Acme", "2", "Shampoo Red 50ml"),
		variant("Acme", "3", "Shampoo Black 100ml"),
	}

	products := g.Group(variants)
	require.Len(t, products, 1)
	assert.Equal(t, "Shampoo", products[0].BaseName)
	assert.Len(t, products[0].Variants, 3)
}

func TestGroupKeepsDistinctProductsApart(t *testing.T) {
	g := New(0)
	variants := []*model.Variant{
		variant("Acme", "1", "Moisture Shampoo 8oz"),
		variant("Acme", "2", "Moisture Shampoo 16oz"),
		variant("Acme", "3", "Repair Conditioner 8oz"),
	}

	products := g.Group(variants)
	require.Len(t, products, 2)
	assert.Equal(t, "Moisture Shampoo", products[0].BaseName)
	assert.Len(t, products[0].Variants, 2)
	assert.Equal(t, "Repair Conditioner", products[1].BaseName)
	assert.Len(t, products[1].Variants, 1)
}

func TestGroupNeverMergesAcrossBrands(t *testing.T) {
	g := New(0)
	variants := []*model.Variant{
		variant("Acme", "1", "Shampoo 50ml"),
		variant("Zenith", "2", "Shampoo 50ml"),
	}

	products := g.Group(variants)
	require.Len(t, products, 2)
	assert.Equal(t, "Acme", products[0].Brand)
	assert.Equal(t, "Zenith", products[1].Brand)
}

func TestGroupAssignsEveryVariantOnce(t *testing.T) {
	g := New(0)
	variants := []*model.Variant{
		variant("Acme", "1", "Shampoo Black 50ml"),
		variant("Acme", "2", "Shampoo Red 50ml"),
		variant("Acme", "3", "Face Cream 100g"),
		variant("Zenith", "4", "Body Lotion 200ml"),
	}

	products := g.Group(variants)
	total := 0
	seen := map[string]bool{}
	for _, p := range products {
		for _, v := range p.Variants {
			assert.False(t, seen[v.ExternalID], "variant %s assigned twice", v.ExternalID)
			seen[v.ExternalID] = true
			assert.Equal(t, p.GroupID(), v.ProductGroupID)
			total++
		}
	}
	assert.Equal(t, len(variants), total)
}

func TestGroupEmptyInput(t *testing.T) {
	assert.Nil(t, New(0).Group(nil))
}

func TestSharedTokenSubsetMatch(t *testing.T) {
	g := New(0.99)
	// Ratio check fails at this threshold; the token subset check catches it.
	assert.True(t, g.similar("Argan Oil", "Acme Argan Oil Treatment Deluxe"))
	assert.False(t, g.similar("Argan Oil", "Acme Coconut Oil Treatment"))
}
