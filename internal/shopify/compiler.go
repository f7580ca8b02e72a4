// Package shopify compiles enriched products into the flat import-table
// format: handle reservation, variant row expansion, and CSV file output
// with per-file row caps.
package shopify

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/options"
)

// Compile expands a product into output rows. The product's first row
// carries the product-level fields (title, body, tags, publish flag,
// status); vendor, category and type are re-stated on each variant's first
// row. Every variant emits one row per image it owns, or exactly one row
// when it has none. Image positions run across the whole product starting
// at 1. SKU and inventory fields appear only on a variant's first row.
// A product with no variants yields nil.
func Compile(p *model.Product) []Row {
	if len(p.Variants) == 0 {
		zap.L().Warn("shopify: product has no variants, skipping",
			zap.String("base_name", p.BaseName),
			zap.String("brand", p.Brand))
		return nil
	}
	if p.Handle == "" {
		zap.L().Warn("shopify: product has no handle, skipping",
			zap.String("base_name", p.BaseName))
		return nil
	}

	schema := options.DeriveSchema(p)
	category := p.Category
	if category == "" {
		category = "Other"
	}

	var rows []Row
	imagePos := 0

	for vi, v := range p.Variants {
		values := options.ProjectValues(v, schema)

		images := v.Images
		if len(images) == 0 {
			images = []string{""}
		}

		for ii, img := range images {
			row := Row{
				Handle:       p.Handle,
				Option1Name:  schema[0],
				Option1Value: values[0],
				Option2Name:  schema[1],
				Option2Value: values[1],
				Option3Name:  schema[2],
				Option3Value: values[2],
				VariantPrice: v.Price.StringFixed(2),

				RequiresShipping: "TRUE",
				Taxable:          "TRUE",
			}

			firstOfProduct := vi == 0 && ii == 0
			firstOfVariant := ii == 0

			if firstOfProduct {
				row.Title = p.BaseName
				row.BodyHTML = p.Description
				row.Tags = strings.Join(p.Tags, ",")
				row.Published = "TRUE"
				row.Status = "active"
			}

			if firstOfVariant {
				row.Vendor = p.Brand
				row.ProductCategory = category
				row.Type = p.Category
				row.SKU = v.ExternalID
				row.Barcode = v.ExternalID
				row.FulfillmentService = "manual"
				row.InventoryTracker = "shopify"
				row.InventoryQty = strconv.Itoa(v.Quantity)
				row.InventoryPolicy = "continue"
			}

			if img != "" {
				imagePos++
				row.ImageSrc = img
				row.ImagePosition = strconv.Itoa(imagePos)
				row.ImageAltText = v.Brand + " " + v.RawName
			}

			rows = append(rows, row)
		}
	}

	return rows
}
