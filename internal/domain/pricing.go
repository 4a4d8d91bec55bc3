package domain

import "math"

// DiscountedUnitPrice applies the discount percent to a single unit and rounds
// to the nearest whole rupee. Line totals must always be derived from this
// rounded unit price, never by discounting the pre-multiplied total.
func DiscountedUnitPrice(price int64, discountPercent int) int64 {
	if discountPercent <= 0 {
		return price
	}
	if discountPercent > 90 {
		discountPercent = 90
	}
	discounted := float64(price) * (1 - float64(discountPercent)/100)
	return int64(math.Round(discounted))
}

// LineTotal prices a quantity of a product: discounted unit price first, then multiply.
func LineTotal(price int64, discountPercent int, quantity int) int64 {
	if quantity <= 0 {
		return 0
	}
	return DiscountedUnitPrice(price, discountPercent) * int64(quantity)
}

// PriceLine fills the derived pricing fields of a cart line in place.
func PriceLine(line CartLine) CartLine {
	line.EffectiveUnitPrice = DiscountedUnitPrice(line.UnitPrice, line.DiscountPercent)
	line.LineTotal = line.EffectiveUnitPrice * int64(line.Quantity)
	return line
}

// Subtotal sums the line totals of the priced cart lines.
func Subtotal(lines []CartLine) int64 {
	var subtotal int64
	for _, line := range lines {
		subtotal += line.LineTotal
	}
	return subtotal
}
