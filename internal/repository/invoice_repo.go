package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hobbyden/store/internal/models"
)

type InvoiceRepo struct {
	db *sql.DB
}

func NewInvoiceRepo(db *sql.DB) *InvoiceRepo {
	return &InvoiceRepo{db: db}
}

const invoiceColumns = `id, user_id, status, date_created, status_updated`

type rowQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanInvoice(row interface{ Scan(...any) error }) (*models.Invoice, error) {
	var inv models.Invoice
	err := row.Scan(&inv.ID, &inv.UserID, &inv.Status, &inv.DateCreated, &inv.StatusUpdated)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetOrCreateOpenForUpdate returns the user's open cart, creating it when
// absent, with the row locked until commit. One unpaid invoice per user.
func (r *InvoiceRepo) GetOrCreateOpenForUpdate(ctx context.Context, tx Tx, userID int64) (*models.Invoice, error) {
	inv, err := scanInvoice(sqlTx(tx).QueryRowContext(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE user_id = $1 AND status = $2
		FOR UPDATE
	`, userID, models.StatusUnpaid))
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lock open invoice: %w", err)
	}

	inv, err = scanInvoice(sqlTx(tx).QueryRowContext(ctx, `
		INSERT INTO invoices (user_id, status) VALUES ($1, $2)
		RETURNING `+invoiceColumns, userID, models.StatusUnpaid))
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return inv, nil
}

// GetOpen loads the user's open cart with all lines, or ErrNotFound.
func (r *InvoiceRepo) GetOpen(ctx context.Context, userID int64) (*models.Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRowContext(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE user_id = $1 AND status = $2
	`, userID, models.StatusUnpaid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get open invoice: %w", err)
	}
	if err := r.loadLines(ctx, r.db, []*models.Invoice{inv}); err != nil {
		return nil, err
	}
	return inv, nil
}

// GetOpenForUpdate is GetOpen under a row lock, for payment.
func (r *InvoiceRepo) GetOpenForUpdate(ctx context.Context, tx Tx, userID int64) (*models.Invoice, error) {
	inv, err := scanInvoice(sqlTx(tx).QueryRowContext(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE user_id = $1 AND status = $2
		FOR UPDATE
	`, userID, models.StatusUnpaid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock open invoice: %w", err)
	}
	if err := r.loadLines(ctx, sqlTx(tx), []*models.Invoice{inv}); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *InvoiceRepo) InsertPurchase(ctx context.Context, tx Tx, p *models.Purchase) error {
	err := sqlTx(tx).QueryRowContext(ctx, `
		INSERT INTO purchases (invoice_id, item_id, quantity)
		VALUES ($1, $2, $3) RETURNING id
	`, p.InvoiceID, p.ItemID, p.Quantity).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}
	return nil
}

func (r *InvoiceRepo) InsertRent(ctx context.Context, tx Tx, rent *models.Rent) error {
	err := sqlTx(tx).QueryRowContext(ctx, `
		INSERT INTO rents (invoice_id, item_id, quantity, date_from, date_to, daily_payment)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id
	`, rent.InvoiceID, rent.ItemID, rent.Quantity, rent.DateFrom, rent.DateTo, rent.DailyPayment).Scan(&rent.ID)
	if err != nil {
		return fmt.Errorf("insert rent: %w", err)
	}
	return nil
}

// GetPurchaseForUpdate locks a purchase line and resolves its owner.
func (r *InvoiceRepo) GetPurchaseForUpdate(ctx context.Context, tx Tx, id int64) (*models.Purchase, int64, error) {
	var (
		p       models.Purchase
		ownerID int64
	)
	err := sqlTx(tx).QueryRowContext(ctx, `
		SELECT p.id, p.invoice_id, p.item_id, p.quantity, i.user_id
		FROM purchases p
		JOIN invoices i ON i.id = p.invoice_id
		WHERE p.id = $1
		FOR UPDATE OF p, i
	`, id).Scan(&p.ID, &p.InvoiceID, &p.ItemID, &p.Quantity, &ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("lock purchase: %w", err)
	}
	return &p, ownerID, nil
}

// GetRentForUpdate locks a rent line and resolves its owner.
func (r *InvoiceRepo) GetRentForUpdate(ctx context.Context, tx Tx, id int64) (*models.Rent, int64, error) {
	var (
		rent    models.Rent
		ownerID int64
	)
	err := sqlTx(tx).QueryRowContext(ctx, `
		SELECT r.id, r.invoice_id, r.item_id, r.quantity, r.date_from, r.date_to, r.daily_payment, i.user_id
		FROM rents r
		JOIN invoices i ON i.id = r.invoice_id
		WHERE r.id = $1
		FOR UPDATE OF r, i
	`, id).Scan(&rent.ID, &rent.InvoiceID, &rent.ItemID, &rent.Quantity,
		&rent.DateFrom, &rent.DateTo, &rent.DailyPayment, &ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("lock rent: %w", err)
	}
	return &rent, ownerID, nil
}

func (r *InvoiceRepo) DeletePurchase(ctx context.Context, tx Tx, id int64) error {
	_, err := sqlTx(tx).ExecContext(ctx, `DELETE FROM purchases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete purchase: %w", err)
	}
	return nil
}

func (r *InvoiceRepo) DeleteRent(ctx context.Context, tx Tx, id int64) error {
	_, err := sqlTx(tx).ExecContext(ctx, `DELETE FROM rents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete rent: %w", err)
	}
	return nil
}

// CountLines counts remaining purchase and rent lines on an invoice.
func (r *InvoiceRepo) CountLines(ctx context.Context, tx Tx, invoiceID int64) (int, error) {
	var n int
	err := sqlTx(tx).QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM purchases WHERE invoice_id = $1)
		     + (SELECT COUNT(*) FROM rents WHERE invoice_id = $1)
	`, invoiceID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count lines: %w", err)
	}
	return n, nil
}

func (r *InvoiceRepo) DeleteInvoice(ctx context.Context, tx Tx, id int64) error {
	_, err := sqlTx(tx).ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepo) MarkPaid(ctx context.Context, tx Tx, id int64, at time.Time) error {
	res, err := sqlTx(tx).ExecContext(ctx, `
		UPDATE invoices SET status = $2, status_updated = $3
		WHERE id = $1 AND status = $4
	`, id, models.StatusPaid, at, models.StatusUnpaid)
	if err != nil {
		return fmt.Errorf("mark paid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListHistory returns the user's non-canceled invoices, most recently
// updated first, with lines loaded.
func (r *InvoiceRepo) ListHistory(ctx context.Context, userID int64) ([]models.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE user_id = $1 AND status != $2
		ORDER BY status_updated DESC
	`, userID, models.StatusCanceled)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*models.Invoice, len(invoices))
	for i := range invoices {
		refs[i] = &invoices[i]
	}
	if err := r.loadLines(ctx, r.db, refs); err != nil {
		return nil, err
	}
	return invoices, nil
}

// loadLines fills purchase and rent lines, with item snapshots, for a batch
// of invoices.
func (r *InvoiceRepo) loadLines(ctx context.Context, q rowQuerier, invoices []*models.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}
	ids := make([]int64, len(invoices))
	index := make(map[int64]*models.Invoice, len(invoices))
	for i, inv := range invoices {
		ids[i] = inv.ID
		index[inv.ID] = inv
		inv.Purchases = []models.Purchase{}
		inv.Rents = []models.Rent{}
	}

	rows, err := q.QueryContext(ctx, `
		SELECT p.id, p.invoice_id, p.item_id, p.quantity,
		       i.id, i.kind, i.title, i.slug, i.photo, i.price
		FROM purchases p
		JOIN items i ON i.id = p.item_id
		WHERE p.invoice_id = ANY($1)
		ORDER BY p.id
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load purchases: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			p  models.Purchase
			it models.Item
		)
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.ItemID, &p.Quantity,
			&it.ID, &it.Kind, &it.Title, &it.Slug, &it.Photo, &it.Price); err != nil {
			return err
		}
		p.Item = &it
		inv := index[p.InvoiceID]
		inv.Purchases = append(inv.Purchases, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rentRows, err := q.QueryContext(ctx, `
		SELECT r.id, r.invoice_id, r.item_id, r.quantity,
		       r.date_from, r.date_to, r.daily_payment,
		       i.id, i.kind, i.title, i.slug, i.photo, i.price
		FROM rents r
		JOIN items i ON i.id = r.item_id
		WHERE r.invoice_id = ANY($1)
		ORDER BY r.id
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load rents: %w", err)
	}
	defer rentRows.Close()
	for rentRows.Next() {
		var (
			rent models.Rent
			it   models.Item
		)
		if err := rentRows.Scan(&rent.ID, &rent.InvoiceID, &rent.ItemID, &rent.Quantity,
			&rent.DateFrom, &rent.DateTo, &rent.DailyPayment,
			&it.ID, &it.Kind, &it.Title, &it.Slug, &it.Photo, &it.Price); err != nil {
			return err
		}
		rent.Item = &it
		inv := index[rent.InvoiceID]
		inv.Rents = append(inv.Rents, rent)
	}
	return rentRows.Err()
}
