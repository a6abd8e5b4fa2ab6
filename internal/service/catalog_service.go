package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/hobbyden/store/internal/cache"
	"github.com/hobbyden/store/internal/models"
	"github.com/hobbyden/store/internal/repository"
)

type CatalogItemStore interface {
	List(ctx context.Context, viewer models.Viewer, f models.ItemFilter) ([]models.Item, error)
	GetVisible(ctx context.Context, viewer models.Viewer, id int64) (*models.Item, error)
	Create(ctx context.Context, tx repository.Tx, it *models.Item) error
}

type CategoryStore interface {
	List(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, c *models.Category) error
}

const categoryCacheKey = "categories:all"

// CatalogService serves catalog reads through the viewer's visibility
// filter and handles staff-only catalog writes.
type CatalogService struct {
	db         repository.Beginner
	items      CatalogItemStore
	categories CategoryStore
	cache      *cache.Cache
	// adultCategories mirror the repository's exclusion set so the cached
	// category list can be filtered per viewer.
	adultCategories map[string]bool
}

func NewCatalogService(db repository.Beginner, items CatalogItemStore, categories CategoryStore, c *cache.Cache, adultCategories []string) *CatalogService {
	adult := make(map[string]bool, len(adultCategories))
	for _, name := range adultCategories {
		adult[name] = true
	}
	return &CatalogService{
		db:              db,
		items:           items,
		categories:      categories,
		cache:           c,
		adultCategories: adult,
	}
}

func (s *CatalogService) ListItems(ctx context.Context, viewer models.Viewer, f models.ItemFilter) ([]models.Item, error) {
	return s.items.List(ctx, viewer, f)
}

func (s *CatalogService) GetItem(ctx context.Context, viewer models.Viewer, id int64) (*models.Item, error) {
	return s.items.GetVisible(ctx, viewer, id)
}

// CreateItem inserts a catalog item. Staff only.
func (s *CatalogService) CreateItem(ctx context.Context, actor *models.User, it *models.Item) error {
	if !actor.IsStaff {
		return ErrForbidden
	}
	if err := validateItem(it); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := s.items.Create(ctx, tx, it); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func validateItem(it *models.Item) error {
	switch it.Kind {
	case models.KindBook, models.KindMagazine, models.KindFigure:
	default:
		return fmt.Errorf("%w: unknown item kind %q", ErrValidation, it.Kind)
	}
	if strings.TrimSpace(it.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(it.Slug) == "" {
		return fmt.Errorf("%w: slug is required", ErrValidation)
	}
	if it.Price.Sign() < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if it.CountAvailable < 0 {
		return fmt.Errorf("%w: count_available must not be negative", ErrValidation)
	}
	return nil
}

// ListCategories returns categories visible to the viewer. The full list is
// cached; the per-viewer adult filter is applied on the way out.
func (s *CatalogService) ListCategories(ctx context.Context, viewer models.Viewer) ([]models.Category, error) {
	var cats []models.Category
	if cached, ok := s.cache.Get(categoryCacheKey); ok {
		cats = cached.([]models.Category)
	} else {
		var err error
		cats, err = s.categories.List(ctx)
		if err != nil {
			return nil, err
		}
		s.cache.Set(categoryCacheKey, cats)
	}
	return visibleCategories(cats, viewer, s.adultCategories), nil
}

// CreateCategory inserts a category and invalidates the cached list.
// Staff only.
func (s *CatalogService) CreateCategory(ctx context.Context, actor *models.User, c *models.Category) error {
	if !actor.IsStaff {
		return ErrForbidden
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return err
	}
	s.cache.Delete(categoryCacheKey)
	return nil
}

// visibleCategories drops adult-flagged categories for viewers that may not
// see them.
func visibleCategories(cats []models.Category, viewer models.Viewer, adult map[string]bool) []models.Category {
	if viewer.SeesAdultContent() || len(adult) == 0 {
		return cats
	}
	out := make([]models.Category, 0, len(cats))
	for _, c := range cats {
		if !adult[c.Name] {
			out = append(out, c)
		}
	}
	return out
}
