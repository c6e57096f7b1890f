package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPercentageRule_Apply(t *testing.T) {
	rule := PercentageRule{Value: decimal.NewFromInt(10)}

	got := rule.Apply(decimal.NewFromInt(1500))
	assert.True(t, decimal.NewFromInt(1350).Equal(got), "got %s", got)
}

func TestFixedRule_Apply_FloorsAtZero(t *testing.T) {
	rule := FixedRule{Value: decimal.NewFromInt(200)}

	got := rule.Apply(decimal.NewFromInt(150))
	assert.True(t, got.IsZero(), "got %s", got)

	got = rule.Apply(decimal.NewFromInt(500))
	assert.True(t, decimal.NewFromInt(300).Equal(got), "got %s", got)
}

func TestDiscount_Rule_Dispatch(t *testing.T) {
	percentage := &Discount{Type: DiscountPercentage, Value: 25}
	fixed := &Discount{Type: DiscountFixed, Value: 25}

	assert.IsType(t, PercentageRule{}, percentage.Rule())
	assert.IsType(t, FixedRule{}, fixed.Rule())
}

func TestOrder_Customer(t *testing.T) {
	id := "cust-42"
	registered := &Order{CustomerID: &id}
	assert.Equal(t, RegisteredCustomer{CustomerID: "cust-42"}, registered.Customer())

	guest := &Order{GuestName: "Guest", GuestPhone: "01700000000"}
	ref, ok := guest.Customer().(GuestCustomer)
	assert.True(t, ok)
	assert.Equal(t, "01700000000", ref.Phone)
}
