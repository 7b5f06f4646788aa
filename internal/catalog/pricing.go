package catalog

import "fmt"

type discountUpdate struct {
	Price         *float64
	DiscountPrice *float64
}

type discountResult struct {
	Price         float64
	DiscountPrice float64
}

func validateDiscount(price, discountPrice float64) error {
	if price < 0 {
		return fmt.Errorf("price must be greater than or equal to 0")
	}
	if discountPrice < 0 {
		return fmt.Errorf("discountPrice must be greater than or equal to 0")
	}
	if discountPrice > 0 && discountPrice >= price {
		return fmt.Errorf("discountPrice must be less than price")
	}
	return nil
}

// resolveDiscountUpdate merges a partial price change into the stored
// values and validates the result. A zero discount clears the sale.
func resolveDiscountUpdate(existingPrice, existingDiscount float64, input discountUpdate) (discountResult, error) {
	result := discountResult{Price: existingPrice, DiscountPrice: existingDiscount}
	if input.Price != nil {
		result.Price = *input.Price
	}
	if input.DiscountPrice != nil {
		result.DiscountPrice = *input.DiscountPrice
	}
	if err := validateDiscount(result.Price, result.DiscountPrice); err != nil {
		return discountResult{}, err
	}
	return result, nil
}
