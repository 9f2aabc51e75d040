package sale

import (
	"errors"
	"strings"

	"github.com/fruteira-pos/terminal/internal/enum"
	"github.com/shopspring/decimal"
)

var errEmptyProductName = errors.New("product name is empty")

// Product is a catalog entry as delivered by the product directory.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	PricingMode string          `json:"pricing_mode"`
	ImageRef    string          `json:"image_ref,omitempty"`
}

// Validate checks the catalog invariants (non-empty name, price > 0).
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errEmptyProductName
	}
	if !p.Price.IsPositive() {
		return ErrInvalidPrice
	}
	return nil
}

// Unit returns the display unit for quantities of this product.
func (p Product) Unit() string {
	if p.PricingMode == enum.PricingByWeight {
		return "kg"
	}
	return "un"
}

// IsValidPricingMode checks if s is a known pricing mode.
func IsValidPricingMode(s string) bool {
	switch s {
	case enum.PricingByWeight, enum.PricingByUnit:
		return true
	}
	return false
}
