// Package transform converts raw engine documents into the canonical
// Product shape: multilingual field resolution, embedded JSON sub-object
// decoding, and grouped/variant result reconstruction.
package transform

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/loziogigio/vinc-pim-sub001/internal/domain"
	"github.com/loziogigio/vinc-pim-sub001/internal/engine"
	"github.com/loziogigio/vinc-pim-sub001/internal/facet"
)

// langFallback is the fixed language preference order tried after the
// requested language.
var langFallback = []string{"it", "en"}

// Transformer converts engine responses into domain shapes.
type Transformer struct {
	facets *facet.Config
	logger *slog.Logger
}

// New creates a transformer.
func New(fc *facet.Config, logger *slog.Logger) *Transformer {
	return &Transformer{facets: fc, logger: logger}
}

// SearchResponse dispatches on the engine response shape: ungrouped, generic
// grouped, or variant grouped.
func (t *Transformer) SearchResponse(resp *engine.Response, req *domain.SearchRequest) *domain.SearchResponse {
	lang := req.Lang
	if lang == "" {
		lang = "it"
	}

	out := &domain.SearchResponse{Results: []domain.Product{}}

	switch {
	case resp.Grouped != nil && req.GroupVariants:
		t.variantGrouped(resp, lang, out)
	case resp.Grouped != nil:
		t.genericGrouped(resp, lang, out)
	case resp.Response != nil:
		out.NumFound = resp.Response.NumFound
		out.Start = resp.Response.Start
		for _, doc := range resp.Response.Docs {
			out.Results = append(out.Results, t.Document(doc, lang))
		}
	}

	if len(req.FacetFields) > 0 {
		out.FacetResults = t.facetResults(resp, req.FacetFields, t.sampleDocs(resp), lang)
	}

	return out
}

// FacetResponse extracts facets from a facet-only response.
func (t *Transformer) FacetResponse(resp *engine.Response, req *domain.FacetRequest) domain.FacetResults {
	lang := req.Lang
	if lang == "" {
		lang = "it"
	}
	return t.facetResults(resp, req.FacetFields, t.sampleDocs(resp), lang)
}

// genericGrouped builds one ProductGroup per group value plus a flattened
// convenience list concatenating the first page of each group.
func (t *Transformer) genericGrouped(resp *engine.Response, lang string, out *domain.SearchResponse) {
	for _, block := range resp.Grouped {
		matches := block.Matches
		out.Matches = &matches
		out.NGroups = block.NGroups

		for _, g := range block.Groups {
			pg := domain.ProductGroup{
				GroupValue: fmt.Sprintf("%v", g.GroupValue),
				NumFound:   g.DocList.NumFound,
			}
			for _, doc := range g.DocList.Docs {
				p := t.Document(doc, lang)
				pg.Products = append(pg.Products, p)
				out.Results = append(out.Results, p)
			}
			out.Grouped = append(out.Grouped, pg)
		}

		if block.NGroups != nil {
			out.NumFound = *block.NGroups
		} else {
			out.NumFound = len(block.Groups)
		}
	}
}

// variantGrouped reconstructs parent/variant nesting. Each group value is
// the parent's entity code and every document in the group is a variant —
// the engine may never index a real document for the parent, so only a
// placeholder is built here and the enricher fills in the parent's
// descriptive fields from the document store.
func (t *Transformer) variantGrouped(resp *engine.Response, lang string, out *domain.SearchResponse) {
	for _, block := range resp.Grouped {
		matches := block.Matches
		out.Matches = &matches
		out.NGroups = block.NGroups

		for _, g := range block.Groups {
			parent := domain.Product{
				EntityCode:      fmt.Sprintf("%v", g.GroupValue),
				IsParent:        true,
				NeedsEnrichment: true,
			}
			for _, doc := range g.DocList.Docs {
				v := t.Document(doc, lang)
				parent.Variants = append(parent.Variants, v)
				parent.VariantsEntityCode = append(parent.VariantsEntityCode, v.EntityCode)
			}
			out.Results = append(out.Results, parent)
		}

		if block.NGroups != nil {
			out.NumFound = *block.NGroups
		} else {
			out.NumFound = len(block.Groups)
		}
	}
}

// Document converts one raw engine document into a Product.
func (t *Transformer) Document(doc engine.Document, lang string) domain.Product {
	p := domain.Product{
		SKU:              str(doc, "sku"),
		EntityCode:       str(doc, "entity_code"),
		EAN:              str(doc, "ean"),
		Name:             t.localized(doc, "name", lang),
		Slug:             t.localized(doc, "slug", lang),
		Description:      t.localized(doc, "description", lang),
		ShortDescription: t.localized(doc, "short_description", lang),
		Price:            floatPtr(doc, "price"),
		VATRate:          floatPtr(doc, "vat_rate"),
		StockStatus:      str(doc, "stock_status"),
		CoverImage:       str(doc, "cover_image"),
		ImageCount:       intVal(doc, "image_count"),
		IsParent:         boolVal(doc, "is_parent"),
		ParentEntityCode: str(doc, "parent_entity_code"),
		HasActivePromo:   boolVal(doc, "has_active_promo"),
		Status:           str(doc, "status"),
		Version:          intVal(doc, "version"),
		ViewCount:        intVal(doc, "view_count"),
		SalesCount:       intVal(doc, "sales_count"),
		MetaTitle:        t.localized(doc, "meta_title", lang),
		MetaDescription:  t.localized(doc, "meta_description", lang),
		MetaKeywords:     t.localized(doc, "meta_keywords", lang),
		CreatedAt:        timePtr(doc, "created_at"),
		UpdatedAt:        timePtr(doc, "updated_at"),
	}

	p.VariantsEntityCode = strSlice(doc, "variants_entity_code")

	p.Brand = t.decodeEntity(doc, "brand_json", lang)
	p.Category = t.decodeEntity(doc, "category_json", lang)
	p.ProductType = t.decodeEntity(doc, "product_type_json", lang)
	p.Collections = t.decodeEntities(doc, "collections_json", lang)
	p.Tags = t.decodeEntities(doc, "tags_json", lang)

	decodeInto(t.logger, doc, "images_json", &p.Images)
	decodeInto(t.logger, doc, "gallery_json", &p.Gallery)
	decodeInto(t.logger, doc, "media_json", &p.MediaFiles)
	decodeInto(t.logger, doc, "promotions_json", &p.Promotions)
	decodeInto(t.logger, doc, "packaging_json", &p.Packaging)

	p.Attributes = t.decodeAttributes(doc, "attributes_json", lang)

	var specs []domain.Spec
	decodeInto(t.logger, doc, "specs_json", &specAlias{lang: lang, out: &specs})
	p.Specs = specs

	return p
}

// localized resolves a multilingual field: the language-suffixed key first,
// then the fixed fallback order, then the first available language.
func (t *Transformer) localized(doc engine.Document, base, lang string) string {
	if v := str(doc, base+"_"+lang); v != "" {
		return v
	}
	for _, fb := range langFallback {
		if fb == lang {
			continue
		}
		if v := str(doc, base+"_"+fb); v != "" {
			return v
		}
	}
	if v := str(doc, base); v != "" {
		return v
	}

	// First available language, deterministically.
	prefix := base + "_"
	var keys []string
	for k := range doc {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := str(doc, k); v != "" {
			return v
		}
	}
	return ""
}

// decodeEntity decodes a JSON-encoded related record and localizes its
// nested labels.
func (t *Transformer) decodeEntity(doc engine.Document, key, lang string) domain.Entity {
	raw := str(doc, key)
	if raw == "" {
		return nil
	}
	var e domain.Entity
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.logger.Debug("malformed embedded entity", slog.String("field", key), slog.String("error", err.Error()))
		return nil
	}
	return LocalizeEntity(e, lang)
}

func (t *Transformer) decodeEntities(doc engine.Document, key, lang string) []domain.Entity {
	raw := str(doc, key)
	if raw == "" {
		return nil
	}
	var list []domain.Entity
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		t.logger.Debug("malformed embedded entity list", slog.String("field", key), slog.String("error", err.Error()))
		return nil
	}
	for i := range list {
		list[i] = LocalizeEntity(list[i], lang)
	}
	return list
}

// localizedEntityKeys are entity attributes stored as per-language maps.
var localizedEntityKeys = []string{"name", "label", "slug", "description"}

// LocalizeEntity flattens per-language maps inside an entity to the resolved
// language value. Used both for engine-embedded entities and for
// document-store records during enrichment.
func LocalizeEntity(e domain.Entity, lang string) domain.Entity {
	for _, key := range localizedEntityKeys {
		m, ok := e[key].(map[string]any)
		if !ok {
			continue
		}
		if v, ok := m[lang].(string); ok && v != "" {
			e[key] = v
			continue
		}
		resolved := false
		for _, fb := range langFallback {
			if v, ok := m[fb].(string); ok && v != "" {
				e[key] = v
				resolved = true
				break
			}
		}
		if !resolved {
			var langs []string
			for l := range m {
				langs = append(langs, l)
			}
			sort.Strings(langs)
			for _, l := range langs {
				if v, ok := m[l].(string); ok && v != "" {
					e[key] = v
					resolved = true
					break
				}
			}
		}
		if !resolved {
			delete(e, key)
		}
	}
	return e
}

// attributeEntry is the wire shape of one attribute in either historical
// encoding.
type attributeEntry struct {
	Key                  string `json:"key"`
	Label                string `json:"label"`
	Value                string `json:"value"`
	Order                *int   `json:"order"`
	HiddenFromStorefront bool   `json:"hidden_from_storefront"`
}

// decodeAttributes supports the two historical attribute encodings: a
// language-keyed array form ({"it": [ ... ]}) and a flat object-keyed form
// ({"colore": { ... }}), normalizing both into one ordered list. Entries
// without an order sort last.
func (t *Transformer) decodeAttributes(doc engine.Document, key, lang string) []domain.Attribute {
	raw := str(doc, key)
	if raw == "" {
		return nil
	}
	attrs, err := DecodeAttributePayload([]byte(raw), lang)
	if err != nil {
		t.logger.Debug("malformed attributes payload", slog.String("field", key), slog.String("error", err.Error()))
		return nil
	}
	return attrs
}

// DecodeAttributePayload normalizes either historical attribute encoding
// into one ordered list.
func DecodeAttributePayload(data []byte, lang string) ([]domain.Attribute, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}

	// Language-keyed array form: pick the requested language, then the
	// fallback order.
	langs := append([]string{lang}, langFallback...)
	for _, l := range langs {
		payload, ok := top[l]
		if !ok {
			continue
		}
		var entries []attributeEntry
		if err := json.Unmarshal(payload, &entries); err != nil {
			// Not the array form after all; fall through to flat form.
			break
		}
		return normalizeAttributes(entries), nil
	}

	// Flat object-keyed form: every top-level key is an attribute slug and
	// each entry carries its own order.
	entries := make([]attributeEntry, 0, len(top))
	keys := make([]string, 0, len(top))
	for k := range top {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var e attributeEntry
		if err := json.Unmarshal(top[k], &e); err != nil {
			continue
		}
		if e.Key == "" {
			e.Key = k
		}
		entries = append(entries, e)
	}
	return normalizeAttributes(entries), nil
}

// normalizeAttributes sorts entries by order, pushing order-less entries to
// the end without disturbing their relative order.
func normalizeAttributes(entries []attributeEntry) []domain.Attribute {
	sort.SliceStable(entries, func(i, j int) bool {
		oi, oj := entries[i].Order, entries[j].Order
		switch {
		case oi == nil:
			return false
		case oj == nil:
			return true
		default:
			return *oi < *oj
		}
	})

	out := make([]domain.Attribute, 0, len(entries))
	for _, e := range entries {
		out = append(out, domain.Attribute{
			Key:                  e.Key,
			Label:                e.Label,
			Value:                e.Value,
			Order:                e.Order,
			HiddenFromStorefront: e.HiddenFromStorefront,
		})
	}
	return out
}

// specAlias decodes a language-keyed spec payload into an ordered list.
type specAlias struct {
	lang string
	out  *[]domain.Spec
}

func (s *specAlias) UnmarshalJSON(data []byte) error {
	var byLang map[string][]domain.Spec
	if err := json.Unmarshal(data, &byLang); err != nil {
		// Plain list form.
		var list []domain.Spec
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*s.out = sortSpecs(list)
		return nil
	}

	langs := append([]string{s.lang}, langFallback...)
	for _, l := range langs {
		if list, ok := byLang[l]; ok {
			*s.out = sortSpecs(list)
			return nil
		}
	}
	var keys []string
	for l := range byLang {
		keys = append(keys, l)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		*s.out = sortSpecs(byLang[keys[0]])
	}
	return nil
}

func sortSpecs(list []domain.Spec) []domain.Spec {
	sort.SliceStable(list, func(i, j int) bool {
		oi, oj := list[i].Order, list[j].Order
		switch {
		case oi == nil:
			return false
		case oj == nil:
			return true
		default:
			return *oi < *oj
		}
	})
	return list
}

// decodeInto decodes a JSON-encoded sub-field. A parse failure yields an
// untouched target, never an error that aborts the document.
func decodeInto(logger *slog.Logger, doc engine.Document, key string, target any) {
	raw := str(doc, key)
	if raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		logger.Debug("malformed embedded payload",
			slog.String("field", key),
			slog.String("error", err.Error()),
		)
	}
}

// sampleDocs returns documents usable for lazy dynamic-facet label
// resolution, regardless of the response shape.
func (t *Transformer) sampleDocs(resp *engine.Response) []engine.Document {
	if resp.Response != nil {
		return resp.Response.Docs
	}
	var docs []engine.Document
	for _, block := range resp.Grouped {
		for _, g := range block.Groups {
			docs = append(docs, g.DocList.Docs...)
		}
	}
	return docs
}

// facetResults extracts facet buckets from either the JSON facet API shape
// or the legacy flat facet_counts arrays, attaching display labels from the
// facet configuration. Zero-count buckets are never emitted.
func (t *Transformer) facetResults(resp *engine.Response, fields []string, sample []engine.Document, lang string) domain.FacetResults {
	out := make(domain.FacetResults, len(fields))

	for _, field := range fields {
		cfg, ok := t.facets.ConfigFor(field)
		if !ok {
			continue
		}

		keyLabel := cfg.Label
		if cfg.Dynamic {
			keyLabel = t.dynamicLabel(cfg, sample, lang)
		}

		var entries []domain.FacetEntry
		if buckets := jsonFacetBuckets(resp, field); buckets != nil {
			entries = buckets
		} else {
			entries = legacyFacetBuckets(resp, field)
		}

		for i := range entries {
			entries[i].KeyLabel = keyLabel
			entries[i].Label = bucketLabel(cfg, entries[i].Value)
		}
		if len(entries) > 0 {
			out[field] = entries
		}
	}

	return out
}

// dynamicLabel resolves a dynamic attribute facet's display label from a
// sampled document's attribute payload.
func (t *Transformer) dynamicLabel(cfg facet.FieldConfig, sample []engine.Document, lang string) string {
	for _, doc := range sample {
		attrs := t.decodeAttributes(doc, "attributes_json", lang)
		if label := cfg.LabelFromAttributes(attrs); label != "" {
			return label
		}
	}
	return ""
}

// bucketLabel resolves the display label for one bucket value.
func bucketLabel(cfg facet.FieldConfig, value string) string {
	if label, ok := cfg.ValueLabels[value]; ok {
		return label
	}
	if cfg.Kind == facet.KindRange {
		for _, r := range cfg.Ranges {
			if r.From != nil && fmtFloat(*r.From) == value {
				return r.Label
			}
		}
	}
	return ""
}

func fmtFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	return s
}

// jsonFacetBuckets reads the JSON facet API shape:
// facets[field] = {"buckets": [{"val": x, "count": n}]}.
func jsonFacetBuckets(resp *engine.Response, field string) []domain.FacetEntry {
	if resp.Facets == nil {
		return nil
	}
	section, ok := resp.Facets[field].(map[string]any)
	if !ok {
		return nil
	}
	rawBuckets, ok := section["buckets"].([]any)
	if !ok {
		return nil
	}

	entries := make([]domain.FacetEntry, 0, len(rawBuckets))
	for _, rb := range rawBuckets {
		b, ok := rb.(map[string]any)
		if !ok {
			continue
		}
		count := 0
		if c, ok := b["count"].(float64); ok {
			count = int(c)
		}
		if count <= 0 {
			continue
		}
		entries = append(entries, domain.FacetEntry{
			Value: fmt.Sprintf("%v", b["val"]),
			Count: count,
		})
	}
	return entries
}

// legacyFacetBuckets reads the legacy flat [value, count, value, count, ...]
// arrays.
func legacyFacetBuckets(resp *engine.Response, field string) []domain.FacetEntry {
	if resp.FacetCounts == nil {
		return nil
	}
	flat, ok := resp.FacetCounts.FacetFields[field]
	if !ok {
		return nil
	}

	entries := make([]domain.FacetEntry, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		count := 0
		if c, ok := flat[i+1].(float64); ok {
			count = int(c)
		}
		if count <= 0 {
			continue
		}
		entries = append(entries, domain.FacetEntry{
			Value: fmt.Sprintf("%v", flat[i]),
			Count: count,
		})
	}
	return entries
}

// --- raw document accessors ---

func str(doc engine.Document, key string) string {
	if v, ok := doc[key].(string); ok {
		return v
	}
	return ""
}

func strSlice(doc engine.Document, key string) []string {
	switch v := doc[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func floatPtr(doc engine.Document, key string) *float64 {
	switch v := doc[key].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	}
	return nil
}

func intVal(doc engine.Document, key string) int {
	switch v := doc[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func boolVal(doc engine.Document, key string) bool {
	if v, ok := doc[key].(bool); ok {
		return v
	}
	return false
}

func timePtr(doc engine.Document, key string) *time.Time {
	s, ok := doc[key].(string)
	if !ok || s == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &ts
}
