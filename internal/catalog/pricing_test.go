package catalog

import "testing"

func TestValidateDiscount(t *testing.T) {
	if err := validateDiscount(100, 0); err != nil {
		t.Fatalf("no discount should be valid: %v", err)
	}
	if err := validateDiscount(100, 99.5); err != nil {
		t.Fatalf("discount below price should be valid: %v", err)
	}
	for _, discount := range []float64{100, 120} {
		if err := validateDiscount(100, discount); err == nil {
			t.Fatalf("expected validation error for discountPrice=%v", discount)
		}
	}
	if err := validateDiscount(-1, 0); err == nil {
		t.Fatal("expected validation error for negative price")
	}
}

func TestResolveDiscountUpdateKeepsExistingValues(t *testing.T) {
	price := 150.0
	result, err := resolveDiscountUpdate(100, 90, discountUpdate{Price: &price})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Price != 150 || result.DiscountPrice != 90 {
		t.Fatalf("unexpected result %+v", result)
	}

	discount := 160.0
	if _, err := resolveDiscountUpdate(100, 90, discountUpdate{Price: &price, DiscountPrice: &discount}); err == nil {
		t.Fatal("expected error when discount exceeds the new price")
	}
}
