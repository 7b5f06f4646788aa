package orders

import (
	"github.com/shopspring/decimal"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// ComputePricing sums the lines in paise precision. Tax is fixed at zero and
// no discount applies to computed totals.
func ComputePricing(items []models.OrderItem, shippingFee float64) models.Pricing {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(money(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	shipping := money(shippingFee)
	return models.Pricing{
		Subtotal: subtotal.InexactFloat64(),
		Tax:      0,
		Shipping: shipping.InexactFloat64(),
		Discount: 0,
		Total:    subtotal.Add(shipping).InexactFloat64(),
	}
}

// ValidatePricing checks a caller-supplied pricing block.
func ValidatePricing(p models.Pricing) error {
	var details []string
	if p.Subtotal < 0 || p.Shipping < 0 || p.Discount < 0 || p.Total < 0 {
		details = append(details, "pricing amounts must not be negative")
	}
	if p.Tax != 0 {
		details = append(details, "pricing.tax must be 0")
	}
	expected := money(p.Subtotal).Add(money(p.Shipping)).Sub(money(p.Discount))
	if !expected.Equal(money(p.Total)) {
		details = append(details, "pricing.total must equal subtotal + shipping - discount")
	}
	if len(details) > 0 {
		return apperr.Validation("invalid pricing", details...)
	}
	return nil
}
