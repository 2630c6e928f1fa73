// Package enrich overlays authoritative document-store data onto
// engine-sourced search results: taxonomy merges through tenant-scoped TTL
// caches, packaging price derivation, promotion fusion, and parent/variant
// media sharing.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/loziogigio/vinc-pim-sub001/internal/domain"
	"github.com/loziogigio/vinc-pim-sub001/internal/facet"
	"github.com/loziogigio/vinc-pim-sub001/internal/store"
	"github.com/loziogigio/vinc-pim-sub001/internal/transform"
)

// Error is a non-fatal enrichment failure: the caller logs it and returns
// the un-enriched, engine-only results instead of failing the request.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("enrichment: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Enricher merges document-store data over transformed search results.
type Enricher struct {
	store  store.Store
	cache  *CacheStore
	facets *facet.Config
	logger *slog.Logger
}

// New creates an enricher. The cache store is constructed once at service
// start and shared across requests.
func New(st store.Store, cache *CacheStore, fc *facet.Config, logger *slog.Logger) *Enricher {
	return &Enricher{store: st, cache: cache, facets: fc, logger: logger}
}

// Enrich mutates resp in place, overlaying authoritative data. It never
// reorders, filters or drops result rows. All entity-cache loads and the
// batched product lookup run concurrently; a failure in any of them aborts
// enrichment wholesale and the caller falls back to the un-enriched
// response.
func (e *Enricher) Enrich(ctx context.Context, tenant, lang string, resp *domain.SearchResponse) error {
	if lang == "" {
		lang = "it"
	}

	codes := collectEntityCodes(resp)

	loaded := make(map[string]map[string]domain.Entity, len(store.EntityCollections))
	var products map[string]domain.Entity

	g, gctx := errgroup.WithContext(ctx)
	results := make([]map[string]domain.Entity, len(store.EntityCollections))
	for i, col := range store.EntityCollections {
		i, col := i, col
		g.Go(func() error {
			data, err := e.loadCollection(gctx, tenant, col)
			if err != nil {
				return err
			}
			results[i] = data
			return nil
		})
	}
	g.Go(func() error {
		data, err := e.store.ProductsByEntityCodes(gctx, tenant, codes)
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		products = data
		return nil
	})
	if err := g.Wait(); err != nil {
		return &Error{Op: "load tenant data", Err: err}
	}
	for i, col := range store.EntityCollections {
		loaded[col] = results[i]
	}

	e.logger.DebugContext(ctx, "enrichment data loaded",
		slog.String("tenant", tenant),
		slog.Int("entity_codes", len(codes)),
		slog.Int("product_records", len(products)),
	)

	for i := range resp.Results {
		p := &resp.Results[i]
		if p.NeedsEnrichment {
			e.enrichVariantParent(p, loaded, products, lang)
		} else {
			e.enrichProduct(p, loaded, products, lang)
		}
	}
	for gi := range resp.Grouped {
		for pi := range resp.Grouped[gi].Products {
			e.enrichProduct(&resp.Grouped[gi].Products[pi], loaded, products, lang)
		}
	}

	e.enrichFacets(resp.FacetResults, loaded, lang)

	return nil
}

// EnrichFacets attaches related entities to a standalone facet response.
func (e *Enricher) EnrichFacets(ctx context.Context, tenant, lang string, fr domain.FacetResults) error {
	if lang == "" {
		lang = "it"
	}

	needed := make(map[string]struct{})
	for field := range fr {
		if cfg, ok := e.facets.ConfigFor(field); ok && cfg.RelatedCollection != "" {
			needed[cfg.RelatedCollection] = struct{}{}
		}
	}
	if len(needed) == 0 {
		return nil
	}

	loaded := make(map[string]map[string]domain.Entity, len(needed))
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	for col := range needed {
		col := col
		g.Go(func() error {
			data, err := e.loadCollection(gctx, tenant, col)
			if err != nil {
				return err
			}
			mu.Lock()
			loaded[col] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return &Error{Op: "load facet entities", Err: err}
	}

	e.enrichFacets(fr, loaded, lang)
	return nil
}

// loadCollection serves a tenant collection from cache, reloading on miss
// or TTL expiry. Concurrent misses are not deduplicated; the last write
// wins.
func (e *Enricher) loadCollection(ctx context.Context, tenant, collection string) (map[string]domain.Entity, error) {
	if data, ok := e.cache.Get(tenant, collection); ok {
		return data, nil
	}

	data, err := e.store.LoadCollection(ctx, tenant, collection)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}
	e.cache.Set(tenant, collection, data)
	return data, nil
}

// collectEntityCodes gathers every entity code enrichment needs: result
// rows, embedded variants, and variant-group parents.
func collectEntityCodes(resp *domain.SearchResponse) []string {
	seen := make(map[string]struct{})
	add := func(code string) {
		if code != "" {
			seen[code] = struct{}{}
		}
	}

	for i := range resp.Results {
		add(resp.Results[i].EntityCode)
		for j := range resp.Results[i].Variants {
			add(resp.Results[i].Variants[j].EntityCode)
		}
	}
	for gi := range resp.Grouped {
		for pi := range resp.Grouped[gi].Products {
			add(resp.Grouped[gi].Products[pi].EntityCode)
		}
	}

	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// MergeEntity overlays authoritative document-store fields over the
// engine's denormalized copy. A nil authoritative field never erases an
// existing value, and an authoritative array only wins when non-empty — an
// explicitly emptied array is indistinguishable from "no override" under
// this policy.
func MergeEntity(authoritative, base domain.Entity) domain.Entity {
	if authoritative == nil {
		return base
	}
	merged := cloneEntity(base)
	if merged == nil {
		merged = domain.Entity{}
	}
	for k, v := range authoritative {
		if v == nil {
			continue
		}
		if arr, ok := v.([]any); ok && len(arr) == 0 {
			continue
		}
		merged[k] = v
	}
	return merged
}

func cloneEntity(e domain.Entity) domain.Entity {
	if e == nil {
		return nil
	}
	out := make(domain.Entity, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// enrichProduct overlays one product in place.
func (e *Enricher) enrichProduct(p *domain.Product, loaded map[string]map[string]domain.Entity, products map[string]domain.Entity, lang string) {
	p.Brand = e.mergeRelated(loaded[store.CollectionBrands], p.Brand, lang)
	p.Category = e.mergeRelated(loaded[store.CollectionCategories], p.Category, lang)
	p.ProductType = e.mergeRelated(loaded[store.CollectionProductTypes], p.ProductType, lang)
	for i := range p.Collections {
		p.Collections[i] = e.mergeRelated(loaded[store.CollectionCollections], p.Collections[i], lang)
	}
	for i := range p.Tags {
		p.Tags[i] = e.mergeRelated(loaded[store.CollectionTags], p.Tags[i], lang)
	}

	if rec, ok := products[p.EntityCode]; ok {
		e.overlayProductRecord(p, rec, lang)
	}

	p.Attributes = filterAttributes(p.Attributes)

	for i := range p.Packaging {
		enrichPackagingPrices(&p.Packaging[i])
	}
	embedPromotionsInPackaging(p)
}

// mergeRelated swaps in the authoritative record for a related entity when
// the cache holds one, keeping engine-only fields the store does not carry.
func (e *Enricher) mergeRelated(cached map[string]domain.Entity, current domain.Entity, lang string) domain.Entity {
	id := current.ID()
	if id == "" || cached == nil {
		return current
	}
	authoritative, ok := cached[id]
	if !ok {
		return current
	}
	localized := transform.LocalizeEntity(cloneEntity(authoritative), lang)
	return MergeEntity(localized, current)
}

// overlayProductRecord applies the document-store product record's
// attribute/media/pricing/packaging override data.
func (e *Enricher) overlayProductRecord(p *domain.Product, rec domain.Entity, lang string) {
	if v, ok := toFloat(rec["price"]); ok {
		p.Price = &v
	}
	if v, ok := toFloat(rec["vat_rate"]); ok {
		p.VATRate = &v
	}
	if s, ok := rec["stock_status"].(string); ok && s != "" {
		p.StockStatus = s
	}
	if s, ok := rec["cover_image"].(string); ok && s != "" {
		p.CoverImage = s
	}

	var images []domain.Image
	if convert(rec["images"], &images) && len(images) > 0 {
		p.Images = images
		p.ImageCount = len(images)
	}
	var gallery []domain.Media
	if convert(rec["gallery"], &gallery) && len(gallery) > 0 {
		p.Gallery = gallery
	}
	var media []domain.Media
	if convert(rec["media"], &media) && len(media) > 0 {
		p.MediaFiles = media
	}
	var promotions []domain.Promotion
	if convert(rec["promotions"], &promotions) && len(promotions) > 0 {
		p.Promotions = promotions
	}
	var packaging []domain.Packaging
	if convert(rec["packaging"], &packaging) && len(packaging) > 0 {
		p.Packaging = packaging
	}

	if raw, err := json.Marshal(rec["attributes"]); err == nil && rec["attributes"] != nil {
		if attrs, err := transform.DecodeAttributePayload(raw, lang); err == nil && len(attrs) > 0 {
			p.Attributes = attrs
		}
	}

	if v, ok := rec["has_active_promo"].(bool); ok && v {
		p.HasActivePromo = true
	}
}

// filterAttributes drops entries flagged as hidden from the storefront. The
// flag itself is never serialized, so visible entries need no scrubbing.
func filterAttributes(attrs []domain.Attribute) []domain.Attribute {
	out := attrs[:0]
	for _, a := range attrs {
		if a.HiddenFromStorefront {
			continue
		}
		out = append(out, a)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// enrichVariantParent rebuilds a variant-group parent placeholder from the
// document store. The transformer left every descriptive field blank on
// purpose — the engine may never index a document for a parent that exists
// only as a grouping key.
func (e *Enricher) enrichVariantParent(p *domain.Product, loaded map[string]map[string]domain.Entity, products map[string]domain.Entity, lang string) {
	if rec, ok := products[p.EntityCode]; ok {
		rebuilt := e.productFromRecord(rec, lang)
		rebuilt.EntityCode = p.EntityCode
		rebuilt.IsParent = true
		rebuilt.Variants = p.Variants
		if len(rebuilt.VariantsEntityCode) == 0 {
			rebuilt.VariantsEntityCode = p.VariantsEntityCode
		}
		*p = rebuilt
		e.enrichProduct(p, loaded, products, lang)
		p.Variants = rebuilt.Variants
	}
	p.NeedsEnrichment = false

	for i := range p.Variants {
		v := &p.Variants[i]
		e.enrichProduct(v, loaded, products, lang)
		mergeMediaFromParent(v, p)
		if v.HasActivePromo {
			// An active promotion anywhere in the family surfaces on
			// the parent.
			p.HasActivePromo = true
		}
	}
}

// productFromRecord builds a Product entirely from a document-store record.
func (e *Enricher) productFromRecord(rec domain.Entity, lang string) domain.Product {
	p := domain.Product{
		SKU:              strField(rec, "sku"),
		EntityCode:       strField(rec, "entity_code"),
		EAN:              strField(rec, "ean"),
		Name:             localizedField(rec, "name", lang),
		Slug:             localizedField(rec, "slug", lang),
		Description:      localizedField(rec, "description", lang),
		ShortDescription: localizedField(rec, "short_description", lang),
		StockStatus:      strField(rec, "stock_status"),
		CoverImage:       strField(rec, "cover_image"),
		ParentEntityCode: strField(rec, "parent_entity_code"),
		Status:           strField(rec, "status"),
		MetaTitle:        localizedField(rec, "meta_title", lang),
		MetaDescription:  localizedField(rec, "meta_description", lang),
		MetaKeywords:     localizedField(rec, "meta_keywords", lang),
	}

	if v, ok := toFloat(rec["price"]); ok {
		p.Price = &v
	}
	if v, ok := toFloat(rec["vat_rate"]); ok {
		p.VATRate = &v
	}
	if v, ok := toFloat(rec["version"]); ok {
		p.Version = int(v)
	}
	if b, ok := rec["is_parent"].(bool); ok {
		p.IsParent = b
	}
	if b, ok := rec["share_images_with_variants"].(bool); ok {
		p.ShareImagesWithVariants = b
	}
	if b, ok := rec["share_media_with_variants"].(bool); ok {
		p.ShareMediaWithVariants = b
	}
	if b, ok := rec["has_active_promo"].(bool); ok {
		p.HasActivePromo = b
	}

	convert(rec["variants_entity_code"], &p.VariantsEntityCode)
	convert(rec["images"], &p.Images)
	convert(rec["gallery"], &p.Gallery)
	convert(rec["media"], &p.MediaFiles)
	convert(rec["promotions"], &p.Promotions)
	convert(rec["packaging"], &p.Packaging)
	convert(rec["specs"], &p.Specs)
	p.ImageCount = len(p.Images)

	if rec["attributes"] != nil {
		if raw, err := json.Marshal(rec["attributes"]); err == nil {
			if attrs, err := transform.DecodeAttributePayload(raw, lang); err == nil {
				p.Attributes = attrs
			}
		}
	}

	p.Brand = subEntity(rec, "brand", lang)
	p.Category = subEntity(rec, "category", lang)
	p.ProductType = subEntity(rec, "product_type", lang)
	p.Collections = subEntities(rec, "collections", lang)
	p.Tags = subEntities(rec, "tags", lang)

	return p
}

// mergeMediaFromParent appends the parent's shared media onto a variant,
// de-duplicated by URL with the variant's own items winning ties.
func mergeMediaFromParent(v, parent *domain.Product) {
	if parent.ShareImagesWithVariants {
		v.Images = appendImages(v.Images, parent.Images)
		v.ImageCount = len(v.Images)
	}
	if parent.ShareMediaWithVariants {
		v.Gallery = appendMedia(v.Gallery, parent.Gallery)
		v.MediaFiles = appendMedia(v.MediaFiles, parent.MediaFiles)
	}
}

func appendImages(own, parent []domain.Image) []domain.Image {
	seen := make(map[string]struct{}, len(own))
	for _, img := range own {
		seen[img.URL] = struct{}{}
	}
	out := own
	for _, img := range parent {
		if _, dup := seen[img.URL]; dup {
			continue
		}
		seen[img.URL] = struct{}{}
		out = append(out, img)
	}
	return out
}

func appendMedia(own, parent []domain.Media) []domain.Media {
	seen := make(map[string]struct{}, len(own))
	for _, m := range own {
		seen[m.URL] = struct{}{}
	}
	out := own
	for _, m := range parent {
		if _, dup := seen[m.URL]; dup {
			continue
		}
		seen[m.URL] = struct{}{}
		out = append(out, m)
	}
	return out
}

// enrichFacets attaches the authoritative related entity to facet buckets
// whose field points at a document-store collection.
func (e *Enricher) enrichFacets(fr domain.FacetResults, loaded map[string]map[string]domain.Entity, lang string) {
	for field, entries := range fr {
		cfg, ok := e.facets.ConfigFor(field)
		if !ok || cfg.RelatedCollection == "" {
			continue
		}
		cached := loaded[cfg.RelatedCollection]
		if cached == nil {
			continue
		}
		for i := range entries {
			if ent, ok := cached[entries[i].Value]; ok {
				entries[i].Entity = transform.LocalizeEntity(cloneEntity(ent), lang)
			}
		}
	}
}

// --- record field accessors ---

func strField(rec domain.Entity, key string) string {
	if s, ok := rec[key].(string); ok {
		return s
	}
	return ""
}

// localizedField resolves a record field stored either as a plain string or
// as a per-language map.
func localizedField(rec domain.Entity, key, lang string) string {
	switch v := rec[key].(type) {
	case string:
		return v
	case map[string]any:
		if s, ok := v[lang].(string); ok && s != "" {
			return s
		}
		for _, fb := range []string{"it", "en"} {
			if s, ok := v[fb].(string); ok && s != "" {
				return s
			}
		}
		var langs []string
		for l := range v {
			langs = append(langs, l)
		}
		sort.Strings(langs)
		for _, l := range langs {
			if s, ok := v[l].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func subEntity(rec domain.Entity, key, lang string) domain.Entity {
	m, ok := rec[key].(map[string]any)
	if !ok {
		return nil
	}
	return transform.LocalizeEntity(cloneEntity(domain.Entity(m)), lang)
}

func subEntities(rec domain.Entity, key, lang string) []domain.Entity {
	list, ok := rec[key].([]any)
	if !ok {
		return nil
	}
	out := make([]domain.Entity, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, transform.LocalizeEntity(cloneEntity(domain.Entity(m)), lang))
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

// convert roundtrips a dynamic value into a typed target. Returns false
// when the value is absent or does not fit.
func convert(v any, target any) bool {
	if v == nil {
		return false
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, target) == nil
}
