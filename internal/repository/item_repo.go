package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hobbyden/store/internal/models"
)

type ItemRepo struct {
	db *sql.DB
	// adultCategories are category names excluded for non-adult viewers.
	adultCategories []string
}

func NewItemRepo(db *sql.DB, adultCategories []string) *ItemRepo {
	return &ItemRepo{db: db, adultCategories: adultCategories}
}

const itemColumns = `i.id, i.kind, i.title, i.description, i.slug, i.photo,
	i.price, i.count_available,
	i.author, i.genre, i.publisher, i.language, i.issue, i.brand, i.figure_size`

func scanItem(row interface{ Scan(...any) error }) (*models.Item, error) {
	var (
		it                             models.Item
		author, genre, publisher, lang sql.NullString
		issue                          sql.NullInt64
		brand, figureSize              sql.NullString
	)
	err := row.Scan(
		&it.ID, &it.Kind, &it.Title, &it.Description, &it.Slug, &it.Photo,
		&it.Price, &it.CountAvailable,
		&author, &genre, &publisher, &lang, &issue, &brand, &figureSize,
	)
	if err != nil {
		return nil, err
	}

	switch it.Kind {
	case models.KindBook:
		it.Book = &models.BookDetails{
			Author:    author.String,
			Genre:     genre.String,
			Publisher: publisher.String,
			Language:  lang.String,
		}
	case models.KindMagazine:
		it.Magazine = &models.MagazineDetails{
			Issue:    int(issue.Int64),
			Language: lang.String,
		}
	case models.KindFigure:
		it.Figure = &models.FigureDetails{
			Brand: brand.String,
			Size:  figureSize.String,
		}
	}
	return &it, nil
}

// adultClause hides items tagged with an adult category from viewers that
// may not see them. Returns an empty string for unrestricted viewers.
func (r *ItemRepo) adultClause(viewer models.Viewer, args *[]any) string {
	if viewer.SeesAdultContent() || len(r.adultCategories) == 0 {
		return ""
	}
	*args = append(*args, pq.Array(r.adultCategories))
	return fmt.Sprintf(`NOT EXISTS (
		SELECT 1 FROM item_categories ic
		JOIN categories c ON c.id = ic.category_id
		WHERE ic.item_id = i.id AND c.name = ANY($%d))`, len(*args))
}

// List returns catalog items visible to the viewer, narrowed by the filter.
func (r *ItemRepo) List(ctx context.Context, viewer models.Viewer, f models.ItemFilter) ([]models.Item, error) {
	var (
		where []string
		args  []any
	)
	if clause := r.adultClause(viewer, &args); clause != "" {
		where = append(where, clause)
	}
	if f.Kind != "" {
		args = append(args, string(f.Kind))
		where = append(where, fmt.Sprintf("i.kind = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("i.title ILIKE $%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM item_categories ic
			JOIN categories c ON c.id = ic.category_id
			WHERE ic.item_id = i.id AND c.name = $%d)`, len(args)))
	}
	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		where = append(where, fmt.Sprintf("i.price >= $%d", len(args)))
	}
	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		where = append(where, fmt.Sprintf("i.price <= $%d", len(args)))
	}

	query := "SELECT " + itemColumns + " FROM items i"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY i.id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachCategories(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetVisible loads one item through the viewer's visibility filter. Hidden
// items surface as ErrNotFound so their existence does not leak.
func (r *ItemRepo) GetVisible(ctx context.Context, viewer models.Viewer, id int64) (*models.Item, error) {
	args := []any{}
	query := "SELECT " + itemColumns + " FROM items i"
	clause := r.adultClause(viewer, &args)
	args = append(args, id)
	query += fmt.Sprintf(" WHERE i.id = $%d", len(args))
	if clause != "" {
		query += " AND " + clause
	}

	it, err := scanItem(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}

	items := []models.Item{*it}
	if err := r.attachCategories(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (r *ItemRepo) attachCategories(ctx context.Context, items []models.Item) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, len(items))
	index := make(map[int64]*models.Item, len(items))
	for i := range items {
		ids[i] = items[i].ID
		index[items[i].ID] = &items[i]
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT ic.item_id, c.id, c.name, c.description
		FROM item_categories ic
		JOIN categories c ON c.id = ic.category_id
		WHERE ic.item_id = ANY($1)
		ORDER BY c.name
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load item categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			itemID int64
			cat    models.Category
		)
		if err := rows.Scan(&itemID, &cat.ID, &cat.Name, &cat.Description); err != nil {
			return err
		}
		if it, ok := index[itemID]; ok {
			it.Categories = append(it.Categories, cat)
		}
	}
	return rows.Err()
}

// Create inserts the item and its category links inside the given transaction.
func (r *ItemRepo) Create(ctx context.Context, tx Tx, it *models.Item) error {
	var (
		author, genre, publisher, lang sql.NullString
		issue                          sql.NullInt64
		brand, figureSize              sql.NullString
	)
	switch {
	case it.Book != nil:
		author = sql.NullString{String: it.Book.Author, Valid: true}
		genre = sql.NullString{String: it.Book.Genre, Valid: true}
		publisher = sql.NullString{String: it.Book.Publisher, Valid: true}
		lang = sql.NullString{String: it.Book.Language, Valid: true}
	case it.Magazine != nil:
		issue = sql.NullInt64{Int64: int64(it.Magazine.Issue), Valid: true}
		lang = sql.NullString{String: it.Magazine.Language, Valid: true}
	case it.Figure != nil:
		brand = sql.NullString{String: it.Figure.Brand, Valid: true}
		figureSize = sql.NullString{String: it.Figure.Size, Valid: true}
	}

	err := sqlTx(tx).QueryRowContext(ctx, `
		INSERT INTO items
			(kind, title, description, slug, photo, price, count_available,
			 author, genre, publisher, language, issue, brand, figure_size)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id
	`, it.Kind, it.Title, it.Description, it.Slug, it.Photo, it.Price, it.CountAvailable,
		author, genre, publisher, lang, issue, brand, figureSize,
	).Scan(&it.ID)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}

	for _, cat := range it.Categories {
		_, err := sqlTx(tx).ExecContext(ctx,
			`INSERT INTO item_categories (item_id, category_id) VALUES ($1, $2)`,
			it.ID, cat.ID)
		if err != nil {
			return fmt.Errorf("link category: %w", err)
		}
	}
	return nil
}

// GetForUpdate locks the item row for the duration of the transaction.
// Concurrent cart mutations against the same item serialize here.
func (r *ItemRepo) GetForUpdate(ctx context.Context, tx Tx, id int64) (*models.Item, error) {
	row := sqlTx(tx).QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM items i WHERE i.id = $1 FOR UPDATE", id)
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock item: %w", err)
	}
	return it, nil
}

// AdjustStock shifts count_available by delta (negative to reserve,
// positive to release). The row must already be locked via GetForUpdate.
func (r *ItemRepo) AdjustStock(ctx context.Context, tx Tx, id int64, delta int) error {
	_, err := sqlTx(tx).ExecContext(ctx,
		`UPDATE items SET count_available = count_available + $2 WHERE id = $1`,
		id, delta)
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}
	return nil
}
