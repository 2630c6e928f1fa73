package domain

import "time"

// Entity is a taxonomy record (brand, category, product type, collection,
// tag) as a dynamic document. Records come from two sources with different
// freshness: the search index carries a denormalized copy embedded in each
// product document, the document store carries the authoritative version.
// Keeping the shape dynamic lets the enricher merge them field by field
// without caring which attributes a given tenant defines.
type Entity map[string]any

// ID returns the entity identifier, or "" when absent.
func (e Entity) ID() string {
	if e == nil {
		return ""
	}
	if id, ok := e["id"].(string); ok {
		return id
	}
	return ""
}

// Image is a single product image.
type Image struct {
	URL   string `json:"url" bson:"url"`
	Alt   string `json:"alt,omitempty" bson:"alt,omitempty"`
	Order int    `json:"order,omitempty" bson:"order,omitempty"`
}

// Media is a non-image media item (video, PDF datasheet, 3D model) or a
// gallery entry.
type Media struct {
	URL   string `json:"url" bson:"url"`
	Type  string `json:"type,omitempty" bson:"type,omitempty"`
	Label string `json:"label,omitempty" bson:"label,omitempty"`
	Order int    `json:"order,omitempty" bson:"order,omitempty"`
}

// Attribute is one product attribute entry, already localized.
// HiddenFromStorefront entries are dropped during enrichment and the flag is
// never serialized back to callers.
type Attribute struct {
	Key                  string `json:"key" bson:"key"`
	Label                string `json:"label" bson:"label"`
	Value                string `json:"value" bson:"value"`
	Order                *int   `json:"order,omitempty" bson:"order,omitempty"`
	HiddenFromStorefront bool   `json:"-" bson:"hidden_from_storefront,omitempty"`
}

// Spec is one technical-specification entry, localized.
type Spec struct {
	Key   string `json:"key" bson:"key"`
	Label string `json:"label" bson:"label"`
	Value string `json:"value" bson:"value"`
	Order *int   `json:"order,omitempty" bson:"order,omitempty"`
}

// Promotion is a time-bound price promotion. Exactly one of
// DiscountPercentage (percentage promotion, recomputed against the current
// packaging list price) or PromoPrice alone (fixed net price, never
// recomputed) drives the promotional price.
type Promotion struct {
	ID                 string     `json:"id" bson:"id"`
	Name               string     `json:"name,omitempty" bson:"name,omitempty"`
	DiscountPercentage *float64   `json:"discount_percentage,omitempty" bson:"discount_percentage,omitempty"`
	PromoPrice         *float64   `json:"promo_price,omitempty" bson:"promo_price,omitempty"`
	DiscountText       string     `json:"discount_text,omitempty" bson:"discount_text,omitempty"`
	Active             bool       `json:"active" bson:"active"`
	StartsAt           *time.Time `json:"starts_at,omitempty" bson:"starts_at,omitempty"`
	EndsAt             *time.Time `json:"ends_at,omitempty" bson:"ends_at,omitempty"`
	// PackagingIDs limits the promotion to specific packaging options.
	// Empty means the promotion applies to every sellable packaging.
	PackagingIDs []string `json:"packaging_ids,omitempty" bson:"packaging_ids,omitempty"`
}

// Packaging is one sellable unit-of-measure configuration of a product.
// Each of the three price tiers (list, retail, sale) may be stored as a
// package total, a per-unit price, or both; missing counterparts are derived
// during enrichment.
type Packaging struct {
	ID         string   `json:"id" bson:"id"`
	Label      string   `json:"label,omitempty" bson:"label,omitempty"`
	UnitOfSale string   `json:"unit_of_sale,omitempty" bson:"unit_of_sale,omitempty"`
	Quantity   float64  `json:"quantity" bson:"quantity"`
	IsSellable *bool    `json:"is_sellable,omitempty" bson:"is_sellable,omitempty"`
	IsDefault  bool     `json:"is_default,omitempty" bson:"is_default,omitempty"`

	ListPrice       *float64 `json:"list_price,omitempty" bson:"list_price,omitempty"`
	ListUnitPrice   *float64 `json:"list_unit_price,omitempty" bson:"list_unit_price,omitempty"`
	RetailPrice     *float64 `json:"retail_price,omitempty" bson:"retail_price,omitempty"`
	RetailUnitPrice *float64 `json:"retail_unit_price,omitempty" bson:"retail_unit_price,omitempty"`
	SalePrice       *float64 `json:"sale_price,omitempty" bson:"sale_price,omitempty"`
	SaleUnitPrice   *float64 `json:"sale_unit_price,omitempty" bson:"sale_unit_price,omitempty"`

	ListDiscountPercentage *float64 `json:"list_discount_percentage,omitempty" bson:"list_discount_percentage,omitempty"`
	SaleDiscountPercentage *float64 `json:"sale_discount_percentage,omitempty" bson:"sale_discount_percentage,omitempty"`
	DiscountText           string   `json:"discount_text,omitempty" bson:"discount_text,omitempty"`

	Promotions []Promotion `json:"promotions,omitempty" bson:"promotions,omitempty"`
}

// Product is the canonical product shape returned to callers, assembled from
// the search-engine document and overlaid with document-store data.
type Product struct {
	SKU        string `json:"sku,omitempty"`
	EntityCode string `json:"entity_code"`
	EAN        string `json:"ean,omitempty"`

	Name             string `json:"name,omitempty"`
	Slug             string `json:"slug,omitempty"`
	Description      string `json:"description,omitempty"`
	ShortDescription string `json:"short_description,omitempty"`

	Price       *float64 `json:"price,omitempty"`
	VATRate     *float64 `json:"vat_rate,omitempty"`
	StockStatus string   `json:"stock_status,omitempty"`

	CoverImage string  `json:"cover_image,omitempty"`
	Images     []Image `json:"images,omitempty"`
	Gallery    []Media `json:"gallery,omitempty"`
	MediaFiles []Media `json:"media,omitempty"`
	ImageCount int     `json:"image_count,omitempty"`

	Brand       Entity   `json:"brand,omitempty"`
	Category    Entity   `json:"category,omitempty"`
	ProductType Entity   `json:"product_type,omitempty"`
	Collections []Entity `json:"collections,omitempty"`
	Tags        []Entity `json:"tags,omitempty"`

	Attributes []Attribute `json:"attributes,omitempty"`
	Specs      []Spec      `json:"specs,omitempty"`

	Promotions     []Promotion `json:"promotions,omitempty"`
	HasActivePromo bool        `json:"has_active_promo,omitempty"`
	Packaging      []Packaging `json:"packaging,omitempty"`

	IsParent           bool      `json:"is_parent,omitempty"`
	ParentEntityCode   string    `json:"parent_entity_code,omitempty"`
	VariantsEntityCode []string  `json:"variants_entity_code,omitempty"`
	Variants           []Product `json:"variants,omitempty"`

	// ShareImagesWithVariants / ShareMediaWithVariants are parent-level
	// flags controlling media fusion into variants.
	ShareImagesWithVariants bool `json:"share_images_with_variants,omitempty"`
	ShareMediaWithVariants  bool `json:"share_media_with_variants,omitempty"`

	Status  string `json:"status,omitempty"`
	Version int    `json:"version,omitempty"`

	ViewCount  int `json:"view_count,omitempty"`
	SalesCount int `json:"sales_count,omitempty"`

	MetaTitle       string `json:"meta_title,omitempty"`
	MetaDescription string `json:"meta_description,omitempty"`
	MetaKeywords    string `json:"meta_keywords,omitempty"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// needsEnrichment marks a variant-group parent placeholder whose
	// descriptive fields must be filled from the document store. Never
	// serialized.
	NeedsEnrichment bool `json:"-"`
}
