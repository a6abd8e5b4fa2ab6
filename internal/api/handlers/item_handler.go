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
)

// CatalogService is the catalog surface as the HTTP layer sees it.
type CatalogService interface {
	ListItems(ctx context.Context, viewer models.Viewer, f models.ItemFilter) ([]models.Item, error)
	GetItem(ctx context.Context, viewer models.Viewer, id int64) (*models.Item, error)
	CreateItem(ctx context.Context, actor *models.User, it *models.Item) error
	ListCategories(ctx context.Context, viewer models.Viewer) ([]models.Category, error)
	CreateCategory(ctx context.Context, actor *models.User, c *models.Category) error
}

type ItemHandler struct {
	svc    CatalogService
	logger *zap.Logger
}

func NewItemHandler(svc CatalogService, logger *zap.Logger) *ItemHandler {
	return &ItemHandler{svc: svc, logger: logger}
}

type createItemRequest struct {
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Slug           string          `json:"slug"`
	Photo          string          `json:"photo"`
	Price          decimal.Decimal `json:"price"`
	CountAvailable int             `json:"count_available"`
	Categories     []int64         `json:"categories"`

	// book
	Author    string `json:"author"`
	Genre     string `json:"genre"`
	Publisher string `json:"publisher"`
	Language  string `json:"language"`
	// magazine
	Issue int `json:"issue"`
	// figure
	Brand string `json:"brand"`
	Size  string `json:"size"`
}

func (req *createItemRequest) toItem(kind models.ItemKind) *models.Item {
	it := &models.Item{
		Kind:           kind,
		Title:          req.Title,
		Description:    req.Description,
		Slug:           req.Slug,
		Photo:          req.Photo,
		Price:          req.Price,
		CountAvailable: req.CountAvailable,
	}
	for _, id := range req.Categories {
		it.Categories = append(it.Categories, models.Category{ID: id})
	}
	switch kind {
	case models.KindBook:
		it.Book = &models.BookDetails{
			Author:    req.Author,
			Genre:     req.Genre,
			Publisher: req.Publisher,
			Language:  req.Language,
		}
	case models.KindMagazine:
		it.Magazine = &models.MagazineDetails{Issue: req.Issue, Language: req.Language}
	case models.KindFigure:
		it.Figure = &models.FigureDetails{Brand: req.Brand, Size: req.Size}
	}
	return it
}

func viewerFrom(r *http.Request) models.Viewer {
	return models.NewViewer(middleware.UserFrom(r.Context()), time.Now())
}

func itemFilterFrom(r *http.Request, kind models.ItemKind) (models.ItemFilter, error) {
	q := r.URL.Query()
	f := models.ItemFilter{
		Kind:     kind,
		Search:   q.Get("search"),
		Category: q.Get("cat"),
	}
	if raw := q.Get("min_price"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return f, err
		}
		f.MinPrice = &d
	}
	if raw := q.Get("max_price"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return f, err
		}
		f.MaxPrice = &d
	}
	return f, nil
}

// List handles GET /items and the per-kind listings.
func (h *ItemHandler) List(kind models.ItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := itemFilterFrom(r, kind)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price filter"})
			return
		}

		items, err := h.svc.ListItems(r.Context(), viewerFrom(r), filter)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		if items == nil {
			items = []models.Item{}
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// Get handles GET /items/{id}. Hidden items come back 404.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item id"})
		return
	}

	item, err := h.svc.GetItem(r.Context(), viewerFrom(r), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Create handles POST /books, /magazines and /figures.
func (h *ItemHandler) Create(kind models.ItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
			return
		}

		item := req.toItem(kind)
		if err := h.svc.CreateItem(r.Context(), middleware.UserFrom(r.Context()), item); err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}
}

// ListCategories handles GET /categories.
func (h *ItemHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.ListCategories(r.Context(), viewerFrom(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if cats == nil {
		cats = []models.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

// CreateCategory handles POST /categories.
func (h *ItemHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var cat models.Category
	if err := json.NewDecoder(r.Body).Decode(&cat); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	if err := h.svc.CreateCategory(r.Context(), middleware.UserFrom(r.Context()), &cat); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}
