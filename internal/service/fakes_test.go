package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hobbyden/store/internal/models"
	"github.com/hobbyden/store/internal/repository"
)

// memStore is an in-memory stand-in for the repositories. It implements
// Beginner with a real transaction discipline: Begin takes an exclusive
// lock and snapshots the state, Commit releases the lock, Rollback restores
// the snapshot first. That makes the serialization and rollback behavior of
// the services observable without a database.
type memStore struct {
	txMu     sync.Mutex
	snapshot *memState
	state    memState

	updateCurrencyErr error
	markPaidErr       error
}

type memState struct {
	items     map[int64]*models.Item
	invoices  map[int64]*models.Invoice
	purchases map[int64]*models.Purchase
	rents     map[int64]*models.Rent
	currency  map[int64]decimal.Decimal
	nextID    int64
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		items:     map[int64]*models.Item{},
		invoices:  map[int64]*models.Invoice{},
		purchases: map[int64]*models.Purchase{},
		rents:     map[int64]*models.Rent{},
		currency:  map[int64]decimal.Decimal{},
		nextID:    100,
	}}
}

func (st *memState) clone() *memState {
	out := &memState{
		items:     make(map[int64]*models.Item, len(st.items)),
		invoices:  make(map[int64]*models.Invoice, len(st.invoices)),
		purchases: make(map[int64]*models.Purchase, len(st.purchases)),
		rents:     make(map[int64]*models.Rent, len(st.rents)),
		currency:  make(map[int64]decimal.Decimal, len(st.currency)),
		nextID:    st.nextID,
	}
	for id, it := range st.items {
		cp := *it
		out.items[id] = &cp
	}
	for id, inv := range st.invoices {
		cp := *inv
		out.invoices[id] = &cp
	}
	for id, p := range st.purchases {
		cp := *p
		out.purchases[id] = &cp
	}
	for id, r := range st.rents {
		cp := *r
		out.rents[id] = &cp
	}
	for id, c := range st.currency {
		out.currency[id] = c
	}
	return out
}

func (s *memStore) id() int64 {
	s.state.nextID++
	return s.state.nextID
}

// --- Beginner ---

type memTx struct {
	store *memStore
	done  bool
}

func (s *memStore) Begin(ctx context.Context) (repository.Tx, error) {
	s.txMu.Lock()
	s.snapshot = s.state.clone()
	return &memTx{store: s}, nil
}

func (t *memTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.snapshot = nil
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.state = *t.store.snapshot
	t.store.snapshot = nil
	t.store.txMu.Unlock()
	return nil
}

// --- ItemStore / CatalogItemStore ---

func (s *memStore) addItem(it models.Item) *models.Item {
	if it.ID == 0 {
		it.ID = s.id()
	}
	s.state.items[it.ID] = &it
	return &it
}

func (s *memStore) GetVisible(ctx context.Context, viewer models.Viewer, id int64) (*models.Item, error) {
	it, ok := s.state.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (s *memStore) GetForUpdate(ctx context.Context, tx repository.Tx, id int64) (*models.Item, error) {
	it, ok := s.state.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (s *memStore) AdjustStock(ctx context.Context, tx repository.Tx, id int64, delta int) error {
	it, ok := s.state.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	it.CountAvailable += delta
	return nil
}

// --- InvoiceStore ---

func (s *memStore) openInvoice(userID int64) *models.Invoice {
	for _, inv := range s.state.invoices {
		if inv.UserID == userID && inv.Status == models.StatusUnpaid {
			return inv
		}
	}
	return nil
}

func (s *memStore) GetOrCreateOpenForUpdate(ctx context.Context, tx repository.Tx, userID int64) (*models.Invoice, error) {
	if inv := s.openInvoice(userID); inv != nil {
		cp := *inv
		return &cp, nil
	}
	inv := &models.Invoice{
		ID:          s.id(),
		UserID:      userID,
		Status:      models.StatusUnpaid,
		DateCreated: time.Now().UTC(),
	}
	s.state.invoices[inv.ID] = inv
	cp := *inv
	return &cp, nil
}

func (s *memStore) loaded(inv *models.Invoice) *models.Invoice {
	cp := *inv
	cp.Purchases = nil
	cp.Rents = nil
	for _, p := range s.state.purchases {
		if p.InvoiceID == inv.ID {
			pc := *p
			item := *s.state.items[p.ItemID]
			pc.Item = &item
			cp.Purchases = append(cp.Purchases, pc)
		}
	}
	for _, r := range s.state.rents {
		if r.InvoiceID == inv.ID {
			rc := *r
			item := *s.state.items[r.ItemID]
			rc.Item = &item
			cp.Rents = append(cp.Rents, rc)
		}
	}
	return &cp
}

func (s *memStore) GetOpen(ctx context.Context, userID int64) (*models.Invoice, error) {
	inv := s.openInvoice(userID)
	if inv == nil {
		return nil, repository.ErrNotFound
	}
	return s.loaded(inv), nil
}

func (s *memStore) GetOpenForUpdate(ctx context.Context, tx repository.Tx, userID int64) (*models.Invoice, error) {
	return s.GetOpen(ctx, userID)
}

func (s *memStore) InsertPurchase(ctx context.Context, tx repository.Tx, p *models.Purchase) error {
	p.ID = s.id()
	cp := *p
	s.state.purchases[p.ID] = &cp
	return nil
}

func (s *memStore) InsertRent(ctx context.Context, tx repository.Tx, r *models.Rent) error {
	r.ID = s.id()
	cp := *r
	s.state.rents[r.ID] = &cp
	return nil
}

func (s *memStore) GetPurchaseForUpdate(ctx context.Context, tx repository.Tx, id int64) (*models.Purchase, int64, error) {
	p, ok := s.state.purchases[id]
	if !ok {
		return nil, 0, repository.ErrNotFound
	}
	cp := *p
	return &cp, s.state.invoices[p.InvoiceID].UserID, nil
}

func (s *memStore) GetRentForUpdate(ctx context.Context, tx repository.Tx, id int64) (*models.Rent, int64, error) {
	r, ok := s.state.rents[id]
	if !ok {
		return nil, 0, repository.ErrNotFound
	}
	cp := *r
	return &cp, s.state.invoices[r.InvoiceID].UserID, nil
}

func (s *memStore) DeletePurchase(ctx context.Context, tx repository.Tx, id int64) error {
	if _, ok := s.state.purchases[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.state.purchases, id)
	return nil
}

func (s *memStore) DeleteRent(ctx context.Context, tx repository.Tx, id int64) error {
	if _, ok := s.state.rents[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.state.rents, id)
	return nil
}

func (s *memStore) CountLines(ctx context.Context, tx repository.Tx, invoiceID int64) (int, error) {
	n := 0
	for _, p := range s.state.purchases {
		if p.InvoiceID == invoiceID {
			n++
		}
	}
	for _, r := range s.state.rents {
		if r.InvoiceID == invoiceID {
			n++
		}
	}
	return n, nil
}

func (s *memStore) DeleteInvoice(ctx context.Context, tx repository.Tx, id int64) error {
	if _, ok := s.state.invoices[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.state.invoices, id)
	return nil
}

func (s *memStore) MarkPaid(ctx context.Context, tx repository.Tx, id int64, at time.Time) error {
	if s.markPaidErr != nil {
		return s.markPaidErr
	}
	inv, ok := s.state.invoices[id]
	if !ok || inv.Status != models.StatusUnpaid {
		return repository.ErrNotFound
	}
	inv.Status = models.StatusPaid
	inv.StatusUpdated = at
	return nil
}

func (s *memStore) ListHistory(ctx context.Context, userID int64) ([]models.Invoice, error) {
	var out []models.Invoice
	for _, inv := range s.state.invoices {
		if inv.UserID == userID && inv.Status != models.StatusCanceled {
			out = append(out, *s.loaded(inv))
		}
	}
	return out, nil
}

// --- CurrencyStore ---

func (s *memStore) UpdateCurrency(ctx context.Context, tx repository.Tx, userID int64, currency decimal.Decimal) error {
	if s.updateCurrencyErr != nil {
		return s.updateCurrencyErr
	}
	s.state.currency[userID] = currency
	return nil
}

// --- Notifier ---

type fakeNotifier struct {
	mu       sync.Mutex
	added    int
	payments int
}

func (n *fakeNotifier) ItemAdded(user *models.User, item *models.Item, quantity int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.added++
}

func (n *fakeNotifier) PaymentDone(user *models.User, invoice *models.Invoice, finalPrice decimal.Decimal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payments++
}

func (n *fakeNotifier) counts() (added, payments int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.added, n.payments
}
