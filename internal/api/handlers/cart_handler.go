package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hobbyden/store/internal/api/middleware"
	"github.com/hobbyden/store/internal/models"
	"github.com/hobbyden/store/internal/service"
)

// CartService is the cart workflow as the HTTP layer sees it.
type CartService interface {
	GetCart(ctx context.Context, user *models.User) (*models.Invoice, decimal.Decimal, error)
	AddPurchase(ctx context.Context, user *models.User, itemID int64, quantity int) error
	AddRent(ctx context.Context, user *models.User, itemID int64, dateFrom, dateTo time.Time) error
	RemoveLine(ctx context.Context, user *models.User, lineID int64, kind string) error
	Pay(ctx context.Context, user *models.User) (*models.Invoice, decimal.Decimal, error)
	History(ctx context.Context, user *models.User) ([]models.Invoice, error)
	Quote(ctx context.Context, viewer models.Viewer, itemID int64) (*service.RentQuote, error)
}

type CartHandler struct {
	svc    CartService
	logger *zap.Logger
}

func NewCartHandler(svc CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{svc: svc, logger: logger}
}

// --- DTOs ---

const dateLayout = "2006-01-02"

type createPurchaseRequest struct {
	Item     int64 `json:"item"`
	Quantity int   `json:"quantity"`
}

type createRentRequest struct {
	Item     int64  `json:"item"`
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
}

type invoiceResponse struct {
	*models.Invoice
	PriceTotal decimal.Decimal `json:"price_total"`
	FinalPrice decimal.Decimal `json:"final_price"`
}

func newInvoiceResponse(inv *models.Invoice, final decimal.Decimal) invoiceResponse {
	return invoiceResponse{Invoice: inv, PriceTotal: inv.PriceTotal(), FinalPrice: final}
}

// --- Handlers ---

// GetCart handles GET /cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	inv, final, err := h.svc.GetCart(r.Context(), user)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newInvoiceResponse(inv, final))
}

// Pay handles PUT/PATCH /cart
func (h *CartHandler) Pay(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	inv, final, err := h.svc.Pay(r.Context(), user)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newInvoiceResponse(inv, final))
}

// RemoveLine handles DELETE /cart/{id}?service=purchase|rent
func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	lineID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line id"})
		return
	}
	kind := r.URL.Query().Get("service")

	user := middleware.UserFrom(r.Context())
	if err := h.svc.RemoveLine(r.Context(), user, lineID, kind); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreatePurchase handles POST /purchase
func (h *CartHandler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req createPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	user := middleware.UserFrom(r.Context())
	if err := h.svc.AddPurchase(r.Context(), user, req.Item, req.Quantity); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"create": "OK"})
}

// CreateRent handles POST /rent
func (h *CartHandler) CreateRent(w http.ResponseWriter, r *http.Request) {
	var req createRentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	dateFrom, err := time.Parse(dateLayout, req.DateFrom)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date_from; use YYYY-MM-DD"})
		return
	}
	dateTo, err := time.Parse(dateLayout, req.DateTo)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date_to; use YYYY-MM-DD"})
		return
	}

	user := middleware.UserFrom(r.Context())
	if err := h.svc.AddRent(r.Context(), user, req.Item, dateFrom, dateTo); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"create": "OK"})
}

// RentQuote handles GET /rent/{id}
func (h *CartHandler) RentQuote(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item id"})
		return
	}

	viewer := models.NewViewer(middleware.UserFrom(r.Context()), time.Now())
	quote, err := h.svc.Quote(r.Context(), viewer, itemID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// History handles GET /history
func (h *CartHandler) History(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	invoices, err := h.svc.History(r.Context(), user)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	type historyEntry struct {
		*models.Invoice
		PriceTotal decimal.Decimal `json:"price_total"`
	}
	out := make([]historyEntry, 0, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		out = append(out, historyEntry{Invoice: inv, PriceTotal: inv.PriceTotal()})
	}
	writeJSON(w, http.StatusOK, out)
}
