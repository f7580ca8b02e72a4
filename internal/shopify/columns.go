package shopify

// Columns is the fixed output header. Order is significant; importers match
// fields by this exact column set.
var Columns = []string{
	"Handle", "Title", "Body (HTML)", "Vendor", "Product Category",
	"Type", "Tags", "Published", "Option1 Name", "Option1 Value",
	"Option2 Name", "Option2 Value", "Option3 Name", "Option3 Value",
	"Variant Price", "Variant Compare At Price", "Variant Requires Shipping",
	"Variant Taxable", "Image Src", "Image Position", "Image Alt Text",
	"SKU", "Variant Barcode", "Variant Fulfillment Service",
	"Variant Inventory Tracker", "Variant Inventory Qty",
	"Variant Inventory Policy", "Status",
}

// Row is one output record with fields in column order.
type Row struct {
	Handle             string
	Title              string
	BodyHTML           string
	Vendor             string
	ProductCategory    string
	Type               string
	Tags               string
	Published          string
	Option1Name        string
	Option1Value       string
	Option2Name        string
	Option2Value       string
	Option3Name        string
	Option3Value       string
	VariantPrice       string
	CompareAtPrice     string
	RequiresShipping   string
	Taxable            string
	ImageSrc           string
	ImagePosition      string
	ImageAltText       string
	SKU                string
	Barcode            string
	FulfillmentService string
	InventoryTracker   string
	InventoryQty       string
	InventoryPolicy    string
	Status             string
}

// Record returns the row's fields in Columns order for CSV encoding.
func (r Row) Record() []string {
	return []string{
		r.Handle, r.Title, r.BodyHTML, r.Vendor, r.ProductCategory,
		r.Type, r.Tags, r.Published, r.Option1Name, r.Option1Value,
		r.Option2Name, r.Option2Value, r.Option3Name, r.Option3Value,
		r.VariantPrice, r.CompareAtPrice, r.RequiresShipping,
		r.Taxable, r.ImageSrc, r.ImagePosition, r.ImageAltText,
		r.SKU, r.Barcode, r.FulfillmentService,
		r.InventoryTracker, r.InventoryQty,
		r.InventoryPolicy, r.Status,
	}
}
