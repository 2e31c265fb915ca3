// Package pricing implements the discount resolution and order total
// policy. Everything here is pure computation over catalog data so the
// storefront preview path and the order commit path share one
// implementation and cannot drift.
package pricing

import (
	"math"

	"github.com/llanos33/Petmatch-sub000/internal/domain"
)

const (
	// DefaultStandardShipping is the flat shipping fee, in integer
	// currency units, charged to non-premium customers.
	DefaultStandardShipping = 8000

	// premiumUnitFactor is the extra flat 10% off layered on top of
	// the already-discounted unit price for premium members.
	premiumUnitFactor = 0.90

	// premiumOrderRate is the order-level 10% discount applied to the
	// items total for premium members.
	premiumOrderRate = 0.10
)

// Source identifies which rule produced the discounted price.
type Source string

const (
	SourceSale    Source = "sale"
	SourceCatalog Source = "catalog"
	SourcePremium Source = "premium"
	SourceNone    Source = "none"
)

// catalogPromos assigns a fixed automatic discount percentage to the
// first ids of the catalog. These apply without admin action and are
// superseded by a manual sale override on the product itself.
var catalogPromos = map[int]int{
	1: 15, 2: 15, 3: 15, 4: 15, 5: 15,
	6: 10, 7: 10, 8: 10, 9: 10, 10: 10,
	11: 20, 12: 20, 13: 20, 14: 20, 15: 20,
}

// Breakdown is the result of resolving a unit price.
type Breakdown struct {
	OriginalPrice      int    `json:"originalPrice"`
	DiscountedPrice    int    `json:"discountedPrice"`
	DiscountPercentage int    `json:"discountPercentage"`
	Source             Source `json:"discountSource"`
}

// Discounted reports whether any rule lowered the price.
func (b Breakdown) Discounted() bool {
	return b.DiscountedPrice < b.OriginalPrice
}

// Resolve computes the display unit price for a product. Priority is
// first-match-wins: a valid manual sale override beats the catalog
// automatic discount outright, never stacking with it. The premium
// layer is not applied here; callers that price a checkout must use
// ResolveForMember.
func Resolve(p domain.Product) Breakdown {
	if p.IsOnSale && p.SalePrice > 0 && p.SalePrice < p.Price {
		return Breakdown{
			OriginalPrice:      p.Price,
			DiscountedPrice:    roundHalfUp(float64(p.SalePrice)),
			DiscountPercentage: roundHalfUp((1 - float64(p.SalePrice)/float64(p.Price)) * 100),
			Source:             SourceSale,
		}
	}

	if pct, ok := catalogPromos[p.ID]; ok {
		return Breakdown{
			OriginalPrice:      p.Price,
			DiscountedPrice:    roundHalfUp(float64(p.Price) * (1 - float64(pct)/100)),
			DiscountPercentage: pct,
			Source:             SourceCatalog,
		}
	}

	return Breakdown{
		OriginalPrice:   p.Price,
		DiscountedPrice: p.Price,
		Source:          SourceNone,
	}
}

// ResolveForMember computes the unit price charged at checkout. For
// premium members an additional flat 10% comes off the already
// discounted price, and the displayed percentage is recomputed against
// the original price so it reflects the composed reduction.
func ResolveForMember(p domain.Product, isPremium bool) Breakdown {
	b := Resolve(p)
	if !isPremium {
		return b
	}

	b.DiscountedPrice = roundHalfUp(float64(b.DiscountedPrice) * premiumUnitFactor)
	b.DiscountPercentage = roundHalfUp((1 - float64(b.DiscountedPrice)/float64(p.Price)) * 100)
	if b.Source == SourceNone {
		b.Source = SourcePremium
	}
	return b
}

// Totals is the canonical money breakdown of an order.
// Total == ItemsTotal - PremiumDiscount + ShippingCost.
type Totals struct {
	ItemsTotal      int `json:"itemsTotal"`
	PremiumDiscount int `json:"premiumDiscount"`
	ShippingCost    int `json:"shippingCost"`
	Total           int `json:"total"`
}

// ComputeTotals derives the order totals from server-resolved line
// prices. Shipping is a policy decision, not a per-product property:
// premium members ship free, everyone else pays the flat fee. The
// premium flag must come from the current server-side user record.
func ComputeTotals(itemsTotal int, isPremium bool, standardShipping int) Totals {
	t := Totals{ItemsTotal: itemsTotal}
	if isPremium {
		t.PremiumDiscount = roundHalfUp(float64(itemsTotal) * premiumOrderRate)
	} else {
		t.ShippingCost = standardShipping
	}
	t.Total = t.ItemsTotal - t.PremiumDiscount + t.ShippingCost
	return t
}

// roundHalfUp matches the rounding of the storefront's display layer:
// .5 always rounds up, unlike math.Round's handling of negatives,
// which never occur for prices.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
