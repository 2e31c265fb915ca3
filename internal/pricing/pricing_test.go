package pricing

import (
	"testing"

	"github.com/llanos33/Petmatch-sub000/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_CatalogDiscount(t *testing.T) {
	// Product 1 sits in the automatic promo set at 15%.
	p := domain.Product{ID: 1, Name: "Alimento premium perro", Price: 45000}

	b := Resolve(p)

	assert.Equal(t, 45000, b.OriginalPrice)
	assert.Equal(t, 38250, b.DiscountedPrice)
	assert.Equal(t, 15, b.DiscountPercentage)
	assert.Equal(t, SourceCatalog, b.Source)
}

func TestResolve_PremiumLayersOnCatalogDiscount(t *testing.T) {
	p := domain.Product{ID: 1, Price: 45000}

	b := ResolveForMember(p, true)

	assert.Equal(t, 34425, b.DiscountedPrice)
	assert.Equal(t, SourceCatalog, b.Source)
}

func TestResolve_SaleOverrideWins(t *testing.T) {
	// Product 2 would get a 15% catalog discount, but the manual sale
	// price supersedes it entirely rather than stacking.
	p := domain.Product{ID: 2, Price: 10000, IsOnSale: true, SalePrice: 9000}

	b := Resolve(p)

	assert.Equal(t, 9000, b.DiscountedPrice)
	assert.Equal(t, 10, b.DiscountPercentage)
	assert.Equal(t, SourceSale, b.Source)
}

func TestResolve_InvalidSalePriceIgnored(t *testing.T) {
	tests := []struct {
		name      string
		salePrice int
	}{
		{"zero sale price", 0},
		{"negative sale price", -100},
		{"sale price above base", 20000},
		{"sale price equal to base", 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := domain.Product{ID: 100, Price: 10000, IsOnSale: true, SalePrice: tt.salePrice}
			b := Resolve(p)
			assert.Equal(t, 10000, b.DiscountedPrice)
			assert.Equal(t, SourceNone, b.Source)
		})
	}
}

func TestResolve_NoDiscount(t *testing.T) {
	p := domain.Product{ID: 99, Price: 12345}

	b := Resolve(p)

	assert.Equal(t, 12345, b.DiscountedPrice)
	assert.Equal(t, 0, b.DiscountPercentage)
	assert.Equal(t, SourceNone, b.Source)
	assert.False(t, b.Discounted())
}

func TestResolveForMember_PremiumOnly(t *testing.T) {
	p := domain.Product{ID: 99, Price: 10000}

	b := ResolveForMember(p, true)

	assert.Equal(t, 9000, b.DiscountedPrice)
	assert.Equal(t, 10, b.DiscountPercentage)
	assert.Equal(t, SourcePremium, b.Source)
}

func TestResolveForMember_NonPremiumUnchanged(t *testing.T) {
	p := domain.Product{ID: 1, Price: 45000}

	require.Equal(t, Resolve(p), ResolveForMember(p, false))
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name       string
		itemsTotal int
		isPremium  bool
		want       Totals
	}{
		{
			name:       "non-premium pays standard shipping",
			itemsTotal: 76500,
			want:       Totals{ItemsTotal: 76500, ShippingCost: 8000, Total: 84500},
		},
		{
			name:       "premium ships free with order discount",
			itemsTotal: 76500,
			isPremium:  true,
			want:       Totals{ItemsTotal: 76500, PremiumDiscount: 7650, Total: 68850},
		},
		{
			name:       "premium discount rounds half up",
			itemsTotal: 105,
			isPremium:  true,
			want:       Totals{ItemsTotal: 105, PremiumDiscount: 11, Total: 94},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeTotals(tt.itemsTotal, tt.isPremium, DefaultStandardShipping))
		})
	}
}

func TestProperty_SaleOverrideAlwaysBeatsCatalogDiscount(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("a valid sale price wins outright on promo-set products", prop.ForAll(
		func(id int, price int, salePct int) bool {
			salePrice := price * salePct / 100
			if salePrice <= 0 || salePrice >= price {
				return true
			}

			p := domain.Product{ID: id, Price: price, IsOnSale: true, SalePrice: salePrice}
			b := Resolve(p)

			return b.Source == SourceSale && b.DiscountedPrice == salePrice
		},
		gen.IntRange(1, 15),
		gen.IntRange(100, 1000000),
		gen.IntRange(1, 99),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_PremiumLayering(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("premium price is roundHalfUp(discounted * 0.9) for every product", prop.ForAll(
		func(id int, price int, onSale bool, salePrice int) bool {
			p := domain.Product{ID: id, Price: price, IsOnSale: onSale, SalePrice: salePrice}

			base := Resolve(p)
			premium := ResolveForMember(p, true)

			return premium.DiscountedPrice == roundHalfUp(float64(base.DiscountedPrice)*0.9)
		},
		gen.IntRange(1, 200),
		gen.IntRange(1, 1000000),
		gen.Bool(),
		gen.IntRange(0, 1000000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_TotalInvariant(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("total equals itemsTotal - premiumDiscount + shippingCost", prop.ForAll(
		func(itemsTotal int, isPremium bool, shipping int) bool {
			tot := ComputeTotals(itemsTotal, isPremium, shipping)
			return tot.Total == tot.ItemsTotal-tot.PremiumDiscount+tot.ShippingCost
		},
		gen.IntRange(0, 10000000),
		gen.Bool(),
		gen.IntRange(0, 50000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
