// Package pricing holds the money math for combos and cash payments.
// All calculations use decimal arithmetic; floats never touch prices.
package pricing

import (
	"errors"

	"github.com/pedezap/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned by pricing calculations.
var (
	ErrInvalidDiscountType = errors.New("tipo de desconto inválido")
	ErrNonPositivePrice    = errors.New("preço do combo deve ser maior que zero")
	// ErrAbusivePractice enforces the consumer-protection rule: a combo may
	// never cost more than the sum of its products bought separately.
	ErrAbusivePractice       = errors.New("preço do combo não pode ser maior que a soma dos produtos (prática abusiva)")
	ErrInvalidPercentage     = errors.New("percentual de desconto deve estar entre 0 e 100")
	ErrInsufficientChangeFor = errors.New("valor para troco deve ser maior ou igual ao total do pedido")
)

// ComboProduct is one constituent of a combo: the unit price comes from the
// product's first variation.
type ComboProduct struct {
	UnitPrice decimal.Decimal
	Quantity  int32
}

// OriginalPrice sums unit price × quantity over the combo's products.
func OriginalPrice(products []ComboProduct) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.UnitPrice.Mul(decimal.NewFromInt32(p.Quantity)))
	}
	return total
}

// ComboPrice derives the final combo price from the original price and the
// discount mode. For "valor" the value IS the final price; for "percentual"
// the final price is original × (1 − value/100).
func ComboPrice(original decimal.Decimal, discountType string, value decimal.Decimal) (decimal.Decimal, error) {
	switch discountType {
	case enum.DiscountTypeValor:
		return value, nil
	case enum.DiscountTypePercentual:
		if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(100)) {
			return decimal.Zero, ErrInvalidPercentage
		}
		factor := decimal.NewFromInt(1).Sub(value.Div(decimal.NewFromInt(100)))
		return original.Mul(factor), nil
	}
	return decimal.Zero, ErrInvalidDiscountType
}

// ValidateComboPrice checks the combo price against the original price.
func ValidateComboPrice(combo, original decimal.Decimal) error {
	if combo.LessThanOrEqual(decimal.Zero) {
		return ErrNonPositivePrice
	}
	if combo.GreaterThan(original) {
		return ErrAbusivePractice
	}
	return nil
}

// Change computes the cash change due (troco) when the customer pays with
// changeFor. The result is exact to the cent.
func Change(changeFor, total decimal.Decimal) (decimal.Decimal, error) {
	if changeFor.LessThan(total) {
		return decimal.Zero, ErrInsufficientChangeFor
	}
	return changeFor.Sub(total), nil
}
