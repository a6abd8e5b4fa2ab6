package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRentDaysAndPrice(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	r := Rent{
		Quantity:     2,
		DateFrom:     from,
		DateTo:       from.AddDate(0, 0, 5),
		DailyPayment: d("12.50"),
	}
	assert.Equal(t, 5, r.Days())
	assert.True(t, r.Price().Equal(d("125"))) // 12.50 * 5 * 2

	r.DateTo = from.AddDate(0, 0, 1)
	assert.Equal(t, 1, r.Days())
}

func TestInvoicePriceTotal(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	inv := Invoice{
		Status: StatusUnpaid,
		Purchases: []Purchase{
			{Quantity: 2, Item: &Item{Price: d("100")}},
			{Quantity: 1, Item: &Item{Price: d("49.99")}},
		},
		Rents: []Rent{
			{Quantity: 1, DateFrom: from, DateTo: from.AddDate(0, 0, 3), DailyPayment: d("10")},
		},
	}
	// 200 + 49.99 + 30
	assert.True(t, inv.PriceTotal().Equal(d("279.99")))
	assert.False(t, inv.Empty())

	empty := Invoice{}
	assert.True(t, empty.Empty())
	assert.True(t, empty.PriceTotal().IsZero())
}

func TestInvoiceStatusString(t *testing.T) {
	assert.Equal(t, "paid", StatusPaid.String())
	assert.Equal(t, "unpaid", StatusUnpaid.String())
	assert.Equal(t, "canceled", StatusCanceled.String())
}
