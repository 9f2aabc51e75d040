package sale

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CartLine is one product entry in the cart.
// Subtotal is always derived from UnitPrice and Quantity.
type CartLine struct {
	Product               Product         `json:"product"`
	Quantity              decimal.Decimal `json:"quantity"`
	UnitPrice             decimal.Decimal `json:"unit_price"`
	OriginalUnitPrice     decimal.Decimal `json:"original_unit_price"`
	OverrideJustification string          `json:"override_justification,omitempty"`
}

// Subtotal returns UnitPrice * Quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(l.Quantity)
}

// Overridden reports whether the unit price diverges from the catalog price.
func (l CartLine) Overridden() bool {
	return !l.UnitPrice.Equal(l.OriginalUnitPrice)
}

// Cart is the ordered list of lines of the sale in progress. Insertion order is
// display order and the basis for line indexes.
//
// Cart is not safe for concurrent use; checkout.Workflow serialises access.
type Cart struct {
	lines []CartLine
}

// NewCart creates an empty cart.
func NewCart() *Cart {
	return &Cart{}
}

// AddLine appends a new line for product at its catalog price.
// Adding a product that is already in the cart creates a second line.
func (c *Cart) AddLine(product *Product, quantity decimal.Decimal) (CartLine, error) {
	if product == nil {
		return CartLine{}, ErrNoProductSelected
	}
	if !quantity.IsPositive() {
		return CartLine{}, ErrInvalidQuantity
	}
	if !product.Price.IsPositive() {
		return CartLine{}, fmt.Errorf("product %q: %w", product.Name, ErrInvalidPrice)
	}

	line := CartLine{
		Product:           *product,
		Quantity:          quantity,
		UnitPrice:         product.Price,
		OriginalUnitPrice: product.Price,
	}
	c.lines = append(c.lines, line)
	return line, nil
}

// EditLine replaces quantity and unit price of the line at index.
// A price different from the original catalog price requires a justification;
// restoring the original price clears it. On error the line is unchanged.
func (c *Cart) EditLine(index int, quantity, unitPrice decimal.Decimal, justification string) (CartLine, error) {
	if index < 0 || index >= len(c.lines) {
		return CartLine{}, ErrIndexOutOfRange
	}
	if !quantity.IsPositive() {
		return CartLine{}, ErrInvalidQuantity
	}
	if !unitPrice.IsPositive() {
		return CartLine{}, ErrInvalidPrice
	}

	line := c.lines[index]
	justification = strings.TrimSpace(justification)
	if !unitPrice.Equal(line.OriginalUnitPrice) && justification == "" {
		return CartLine{}, ErrMissingJustification
	}

	line.Quantity = quantity
	line.UnitPrice = unitPrice
	if line.Overridden() {
		line.OverrideJustification = justification
	} else {
		line.OverrideJustification = ""
	}
	c.lines[index] = line
	return line, nil
}

// RemoveLine deletes the line at index, shifting later lines down.
func (c *Cart) RemoveLine(index int) (CartLine, error) {
	if index < 0 || index >= len(c.lines) {
		return CartLine{}, ErrIndexOutOfRange
	}
	removed := c.lines[index]
	c.lines = append(c.lines[:index:index], c.lines[index+1:]...)
	return removed, nil
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the current lines.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Total is recomputed from the lines on every call.
func (c *Cart) Total() decimal.Decimal {
	return SumSubtotals(c.lines)
}

// SumSubtotals returns the exact sum of the subtotals of lines.
func SumSubtotals(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
