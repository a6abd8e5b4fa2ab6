package service

import "github.com/shopspring/decimal"

// FinalPrice computes the payable amount for an order and the user's
// resulting credit balance.
//
// The discount is capped at maxDiscount (a fraction, e.g. 0.3) of the order
// total. The user's banked currency pays for the discounted part; capacity
// the balance cannot cover is added back onto the price, and capacity left
// over stays banked:
//
//	discount = total * maxDiscount
//	diff     = discount - currency
//	diff >= 0: final = (total - discount) + diff, newCurrency = 0
//	diff <  0: final = total - discount,          newCurrency = -diff
//
// Pure decimal arithmetic; same inputs always produce the same outputs.
func FinalPrice(total, currency, maxDiscount decimal.Decimal) (final, newCurrency decimal.Decimal) {
	discount := total.Mul(maxDiscount)
	bound := total.Sub(discount)
	diff := discount.Sub(currency)
	if diff.Sign() >= 0 {
		return bound.Add(diff), decimal.Zero
	}
	return bound, diff.Neg()
}
