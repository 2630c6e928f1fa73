package enrich

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/loziogigio/vinc-pim-sub001/internal/domain"
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// enrichPackagingPrices fills in the missing half of each price tier. Every
// tier (list, retail, sale) may be stored as a package total, a per-unit
// price, or both: when only the total is known and the quantity is positive
// the unit price is derived, when only the unit price is known the total is
// derived, and when both are stored neither is recomputed — stored values
// are authoritative and must not drift.
func enrichPackagingPrices(p *domain.Packaging) {
	deriveTier(&p.ListPrice, &p.ListUnitPrice, p.Quantity)
	deriveTier(&p.RetailPrice, &p.RetailUnitPrice, p.Quantity)
	deriveTier(&p.SalePrice, &p.SaleUnitPrice, p.Quantity)

	p.DiscountText = discountText(p.ListDiscountPercentage, p.SaleDiscountPercentage)
}

func deriveTier(total, unit **float64, qty float64) {
	switch {
	case *total != nil && *unit == nil && qty > 0:
		u := round2(**total / qty)
		*unit = &u
	case *unit != nil && *total == nil:
		t := round2(**unit * qty)
		*total = &t
	}
}

// discountText renders the packaging discount label: non-null positive
// percentages concatenated in list -> sale order ("-50%", "-50% -10%").
func discountText(list, sale *float64) string {
	var parts []string
	for _, pct := range []*float64{list, sale} {
		if pct != nil && *pct > 0 {
			parts = append(parts, "-"+fmtPct(*pct)+"%")
		}
	}
	return strings.Join(parts, " ")
}

func fmtPct(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// embedPromotionsInPackaging attaches the product's active promotions to
// the packaging options they target. A promotion without an explicit target
// list applies to every sellable packaging; one with targets applies only
// to those ids.
//
// Percentage promotions have their promo price recomputed from the current
// packaging's list unit price — a stored promo price may have been computed
// against a different packaging tier and is not trusted. Fixed net-price
// promotions are embedded unchanged, never recomputed.
func embedPromotionsInPackaging(p *domain.Product) {
	if len(p.Promotions) == 0 {
		return
	}

	for i := range p.Packaging {
		pkg := &p.Packaging[i]

		for _, promo := range p.Promotions {
			if !promo.Active || !promoTargets(promo, pkg) {
				continue
			}

			embedded := promo
			if promo.DiscountPercentage != nil {
				if pkg.ListUnitPrice != nil {
					price := round2(*pkg.ListUnitPrice * (1 - *promo.DiscountPercentage/100))
					embedded.PromoPrice = &price
				}
				embedded.DiscountText = cumulativeDiscountText(pkg, *promo.DiscountPercentage)
			}
			pkg.Promotions = append(pkg.Promotions, embedded)
		}
	}
}

func promoTargets(promo domain.Promotion, pkg *domain.Packaging) bool {
	if len(promo.PackagingIDs) == 0 {
		return pkg.IsSellable == nil || *pkg.IsSellable
	}
	for _, id := range promo.PackagingIDs {
		if id == pkg.ID {
			return true
		}
	}
	return false
}

// cumulativeDiscountText combines the packaging-level discounts with the
// promotion's own percentage.
func cumulativeDiscountText(pkg *domain.Packaging, promoPct float64) string {
	base := discountText(pkg.ListDiscountPercentage, pkg.SaleDiscountPercentage)
	promo := fmt.Sprintf("-%s%%", fmtPct(promoPct))
	if base == "" {
		return promo
	}
	return base + " " + promo
}
