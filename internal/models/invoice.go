package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus int

const (
	StatusPaid     InvoiceStatus = 0
	StatusUnpaid   InvoiceStatus = 1
	StatusCanceled InvoiceStatus = 2
)

func (s InvoiceStatus) String() string {
	switch s {
	case StatusPaid:
		return "paid"
	case StatusUnpaid:
		return "unpaid"
	case StatusCanceled:
		return "canceled"
	}
	return "unknown"
}

// Purchase is an invoice line buying Quantity units of an item.
type Purchase struct {
	ID        int64 `json:"id"`
	InvoiceID int64 `json:"invoice_id"`
	ItemID    int64 `json:"item_id"`
	Quantity  int   `json:"quantity"`
	Item      *Item `json:"item,omitempty"`
}

// Price is item price times quantity. Item must be loaded.
func (p *Purchase) Price() decimal.Decimal {
	return p.Item.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// Rent is an invoice line renting an item for a date range at a daily rate.
type Rent struct {
	ID           int64           `json:"id"`
	InvoiceID    int64           `json:"invoice_id"`
	ItemID       int64           `json:"item_id"`
	Quantity     int             `json:"quantity"`
	DateFrom     time.Time       `json:"date_from"`
	DateTo       time.Time       `json:"date_to"`
	DailyPayment decimal.Decimal `json:"daily_payment"`
	Item         *Item           `json:"item,omitempty"`
}

// Days is the rental length in whole days; DateTo must be after DateFrom.
func (r *Rent) Days() int {
	return int(r.DateTo.Sub(r.DateFrom).Hours() / 24)
}

// Price is daily_payment * days * quantity.
func (r *Rent) Price() decimal.Decimal {
	days := decimal.NewFromInt(int64(r.Days()))
	qty := decimal.NewFromInt(int64(r.Quantity))
	return r.DailyPayment.Mul(days).Mul(qty)
}

// Invoice is a user's cart while unpaid, or a completed order once paid.
type Invoice struct {
	ID            int64         `json:"id"`
	UserID        int64         `json:"user_id"`
	Status        InvoiceStatus `json:"status"`
	DateCreated   time.Time     `json:"date_created"`
	StatusUpdated time.Time     `json:"status_updated"`
	Purchases     []Purchase    `json:"purchases"`
	Rents         []Rent        `json:"rents"`
}

// PriceTotal sums line prices over all purchase and rent lines.
func (inv *Invoice) PriceTotal() decimal.Decimal {
	total := decimal.Zero
	for i := range inv.Purchases {
		total = total.Add(inv.Purchases[i].Price())
	}
	for i := range inv.Rents {
		total = total.Add(inv.Rents[i].Price())
	}
	return total
}

// Empty reports whether the invoice has no lines left.
func (inv *Invoice) Empty() bool {
	return len(inv.Purchases) == 0 && len(inv.Rents) == 0
}
