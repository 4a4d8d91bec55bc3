package domain

import "testing"

func TestDiscountedUnitPriceRoundsPerUnit(t *testing.T) {
	cases := []struct {
		name     string
		price    int64
		discount int
		want     int64
	}{
		{name: "no discount", price: 1000, discount: 0, want: 1000},
		{name: "twenty percent", price: 15000, discount: 20, want: 12000},
		{name: "ten percent", price: 500, discount: 10, want: 450},
		{name: "rounds half up", price: 999, discount: 15, want: 849},
		{name: "caps at ninety", price: 1000, discount: 95, want: 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DiscountedUnitPrice(tc.price, tc.discount)
			if got != tc.want {
				t.Fatalf("DiscountedUnitPrice(%d, %d) = %d, want %d", tc.price, tc.discount, got, tc.want)
			}
		})
	}
}

func TestLineTotalMultipliesAfterRounding(t *testing.T) {
	// Rounding the unit price first is not associative with rounding the
	// discounted line total; the unit-first order is the contract.
	got := LineTotal(15000, 20, 3)
	if got != 36000 {
		t.Fatalf("LineTotal(15000, 20, 3) = %d, want 36000", got)
	}

	if got := LineTotal(1000, 0, 0); got != 0 {
		t.Fatalf("LineTotal with zero quantity = %d, want 0", got)
	}
}

func TestSubtotal(t *testing.T) {
	lines := []CartLine{
		PriceLine(CartLine{ProductID: "a", Quantity: 2, UnitPrice: 1000}),
		PriceLine(CartLine{ProductID: "b", Quantity: 1, UnitPrice: 500, DiscountPercent: 10}),
	}

	if lines[1].EffectiveUnitPrice != 450 {
		t.Fatalf("expected discounted unit price 450, got %d", lines[1].EffectiveUnitPrice)
	}
	if got := Subtotal(lines); got != 2450 {
		t.Fatalf("Subtotal = %d, want 2450", got)
	}
}
