package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hobbyden/store/internal/models"
	"github.com/hobbyden/store/internal/repository"
)

// Stores required by the cart service, as interfaces to allow mocking.

type ItemStore interface {
	GetVisible(ctx context.Context, viewer models.Viewer, id int64) (*models.Item, error)
	GetForUpdate(ctx context.Context, tx repository.Tx, id int64) (*models.Item, error)
	AdjustStock(ctx context.Context, tx repository.Tx, id int64, delta int) error
}

type InvoiceStore interface {
	GetOrCreateOpenForUpdate(ctx context.Context, tx repository.Tx, userID int64) (*models.Invoice, error)
	GetOpen(ctx context.Context, userID int64) (*models.Invoice, error)
	GetOpenForUpdate(ctx context.Context, tx repository.Tx, userID int64) (*models.Invoice, error)
	InsertPurchase(ctx context.Context, tx repository.Tx, p *models.Purchase) error
	InsertRent(ctx context.Context, tx repository.Tx, r *models.Rent) error
	GetPurchaseForUpdate(ctx context.Context, tx repository.Tx, id int64) (*models.Purchase, int64, error)
	GetRentForUpdate(ctx context.Context, tx repository.Tx, id int64) (*models.Rent, int64, error)
	DeletePurchase(ctx context.Context, tx repository.Tx, id int64) error
	DeleteRent(ctx context.Context, tx repository.Tx, id int64) error
	CountLines(ctx context.Context, tx repository.Tx, invoiceID int64) (int, error)
	DeleteInvoice(ctx context.Context, tx repository.Tx, id int64) error
	MarkPaid(ctx context.Context, tx repository.Tx, id int64, at time.Time) error
	ListHistory(ctx context.Context, userID int64) ([]models.Invoice, error)
}

type CurrencyStore interface {
	UpdateCurrency(ctx context.Context, tx repository.Tx, userID int64, currency decimal.Decimal) error
}

// Notifier dispatches transactional email. Implementations are fire and
// forget: they must never block checkout or surface errors into it.
type Notifier interface {
	ItemAdded(user *models.User, item *models.Item, quantity int)
	PaymentDone(user *models.User, invoice *models.Invoice, finalPrice decimal.Decimal)
}

// CartService drives the cart/checkout workflow. Every mutation runs as a
// single transaction: stock, lines, invoice and currency commit or roll
// back together. Notifications go out after commit.
type CartService struct {
	db       repository.Beginner
	items    ItemStore
	invoices InvoiceStore
	users    CurrencyStore
	notifier Notifier
	logger   *zap.Logger

	maxDiscount decimal.Decimal
	rentPercent decimal.Decimal
}

func NewCartService(
	db repository.Beginner,
	items ItemStore,
	invoices InvoiceStore,
	users CurrencyStore,
	notifier Notifier,
	logger *zap.Logger,
	maxDiscount, rentPercent decimal.Decimal,
) *CartService {
	return &CartService{
		db:          db,
		items:       items,
		invoices:    invoices,
		users:       users,
		notifier:    notifier,
		logger:      logger,
		maxDiscount: maxDiscount,
		rentPercent: rentPercent,
	}
}

// GetCart returns the user's open cart and its final price.
func (s *CartService) GetCart(ctx context.Context, user *models.User) (*models.Invoice, decimal.Decimal, error) {
	inv, err := s.invoices.GetOpen(ctx, user.ID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	final, _ := FinalPrice(inv.PriceTotal(), user.Profile.Currency, s.maxDiscount)
	return inv, final, nil
}

// AddPurchase reserves stock and puts a purchase line into the user's cart,
// creating the cart when absent.
func (s *CartService) AddPurchase(ctx context.Context, user *models.User, itemID int64, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be greater than zero", ErrValidation)
	}

	var item *models.Item
	err := s.inTx(ctx, func(tx repository.Tx) error {
		var err error
		item, err = s.items.GetForUpdate(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if item.CountAvailable < quantity {
			return fmt.Errorf("%w: %q has %d left", ErrOutOfStock, item.Title, item.CountAvailable)
		}

		inv, err := s.invoices.GetOrCreateOpenForUpdate(ctx, tx, user.ID)
		if err != nil {
			return err
		}
		p := &models.Purchase{InvoiceID: inv.ID, ItemID: itemID, Quantity: quantity}
		if err := s.invoices.InsertPurchase(ctx, tx, p); err != nil {
			return err
		}
		return s.items.AdjustStock(ctx, tx, itemID, -quantity)
	})
	if err != nil {
		return err
	}

	s.notifier.ItemAdded(user, item, quantity)
	return nil
}

// AddRent reserves one unit of stock and puts a rent line into the cart.
// The daily payment is derived from the item price.
func (s *CartService) AddRent(ctx context.Context, user *models.User, itemID int64, dateFrom, dateTo time.Time) error {
	if !dateTo.After(dateFrom) {
		return fmt.Errorf("%w: date_to must be after date_from", ErrValidation)
	}

	var item *models.Item
	err := s.inTx(ctx, func(tx repository.Tx) error {
		var err error
		item, err = s.items.GetForUpdate(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if item.CountAvailable < 1 {
			return fmt.Errorf("%w: %q is not in stock", ErrOutOfStock, item.Title)
		}

		inv, err := s.invoices.GetOrCreateOpenForUpdate(ctx, tx, user.ID)
		if err != nil {
			return err
		}
		r := &models.Rent{
			InvoiceID:    inv.ID,
			ItemID:       itemID,
			Quantity:     1,
			DateFrom:     dateFrom,
			DateTo:       dateTo,
			DailyPayment: item.Price.Mul(s.rentPercent),
		}
		if err := s.invoices.InsertRent(ctx, tx, r); err != nil {
			return err
		}
		return s.items.AdjustStock(ctx, tx, itemID, -1)
	})
	if err != nil {
		return err
	}

	s.notifier.ItemAdded(user, item, 1)
	return nil
}

// RemoveLine releases the line's stock and deletes it. Removing the last
// line deletes the invoice as well.
func (s *CartService) RemoveLine(ctx context.Context, user *models.User, lineID int64, kind string) error {
	if kind != "purchase" && kind != "rent" {
		return fmt.Errorf("%w: unknown service kind %q", ErrValidation, kind)
	}

	return s.inTx(ctx, func(tx repository.Tx) error {
		var (
			invoiceID, itemID, ownerID int64
			quantity                   int
		)
		switch kind {
		case "purchase":
			p, owner, err := s.invoices.GetPurchaseForUpdate(ctx, tx, lineID)
			if err != nil {
				return err
			}
			invoiceID, itemID, quantity, ownerID = p.InvoiceID, p.ItemID, p.Quantity, owner
		case "rent":
			r, owner, err := s.invoices.GetRentForUpdate(ctx, tx, lineID)
			if err != nil {
				return err
			}
			invoiceID, itemID, quantity, ownerID = r.InvoiceID, r.ItemID, r.Quantity, owner
		}
		if ownerID != user.ID && !user.IsStaff {
			return ErrForbidden
		}

		if err := s.items.AdjustStock(ctx, tx, itemID, quantity); err != nil {
			return err
		}
		if kind == "purchase" {
			if err := s.invoices.DeletePurchase(ctx, tx, lineID); err != nil {
				return err
			}
		} else {
			if err := s.invoices.DeleteRent(ctx, tx, lineID); err != nil {
				return err
			}
		}

		left, err := s.invoices.CountLines(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if left == 0 {
			return s.invoices.DeleteInvoice(ctx, tx, invoiceID)
		}
		return nil
	})
}

// Pay settles the user's open cart: computes the final price, marks the
// invoice paid and persists the new currency balance atomically.
func (s *CartService) Pay(ctx context.Context, user *models.User) (*models.Invoice, decimal.Decimal, error) {
	var (
		inv   *models.Invoice
		final decimal.Decimal
	)
	err := s.inTx(ctx, func(tx repository.Tx) error {
		var err error
		inv, err = s.invoices.GetOpenForUpdate(ctx, tx, user.ID)
		if err != nil {
			return err
		}

		var newCurrency decimal.Decimal
		final, newCurrency = FinalPrice(inv.PriceTotal(), user.Profile.Currency, s.maxDiscount)

		now := time.Now().UTC()
		if err := s.users.UpdateCurrency(ctx, tx, user.ID, newCurrency); err != nil {
			return fmt.Errorf("%w: %v", ErrPaymentFailed, err)
		}
		if err := s.invoices.MarkPaid(ctx, tx, inv.ID, now); err != nil {
			return fmt.Errorf("%w: %v", ErrPaymentFailed, err)
		}
		inv.Status = models.StatusPaid
		inv.StatusUpdated = now
		user.Profile.Currency = newCurrency
		return nil
	})
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("payment failed",
				zap.Int64("user_id", user.ID),
				zap.Error(err))
		}
		return nil, decimal.Zero, err
	}

	s.logger.Info("invoice paid",
		zap.Int64("invoice_id", inv.ID),
		zap.Int64("user_id", user.ID),
		zap.String("final_price", final.String()))
	s.notifier.PaymentDone(user, inv, final)
	return inv, final, nil
}

// History lists the user's invoices, canceled ones excluded.
func (s *CartService) History(ctx context.Context, user *models.User) ([]models.Invoice, error) {
	return s.invoices.ListHistory(ctx, user.ID)
}

// RentQuote is the suggested rent window and daily rate for an item.
type RentQuote struct {
	Item         *models.Item    `json:"item"`
	DateFrom     time.Time       `json:"date_from"`
	DateTo       time.Time       `json:"date_to"`
	DailyPayment decimal.Decimal `json:"daily_payment"`
}

// Quote proposes a one-day rent starting today for a visible item.
func (s *CartService) Quote(ctx context.Context, viewer models.Viewer, itemID int64) (*RentQuote, error) {
	item, err := s.items.GetVisible(ctx, viewer, itemID)
	if err != nil {
		return nil, err
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	return &RentQuote{
		Item:         item,
		DateFrom:     today,
		DateTo:       today.AddDate(0, 0, 1),
		DailyPayment: item.Price.Mul(s.rentPercent),
	}, nil
}

// inTx runs fn inside a transaction, rolling back unless fn succeeds.
func (s *CartService) inTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("tx commit: %w", err)
	}
	committed = true
	return nil
}
