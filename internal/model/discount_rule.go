package model

import "github.com/shopspring/decimal"

// Rule is the closed two-variant discount calculation: percentage or fixed.
type Rule interface {
	Apply(price decimal.Decimal) decimal.Decimal
}

type PercentageRule struct {
	Value decimal.Decimal
}

func (r PercentageRule) Apply(price decimal.Decimal) decimal.Decimal {
	return price.Sub(price.Mul(r.Value).Div(decimal.NewFromInt(100)))
}

// FixedRule subtracts a flat amount, floored at zero.
type FixedRule struct {
	Value decimal.Decimal
}

func (r FixedRule) Apply(price decimal.Decimal) decimal.Decimal {
	result := price.Sub(r.Value)
	if result.IsNegative() {
		return decimal.Zero
	}
	return result
}

func (d *Discount) Rule() Rule {
	value := decimal.NewFromInt(d.Value)
	if d.Type == DiscountFixed {
		return FixedRule{Value: value}
	}
	return PercentageRule{Value: value}
}
