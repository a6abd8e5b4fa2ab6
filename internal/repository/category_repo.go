package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hobbyden/store/internal/models"
)

type CategoryRepo struct {
	db *sql.DB
}

func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

// List returns all categories; adult filtering happens in the service layer
// so the result can be cached once for every viewer.
func (r *CategoryRepo) List(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *CategoryRepo) Create(ctx context.Context, c *models.Category) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, description) VALUES ($1, $2)
		RETURNING id
	`, c.Name, c.Description).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}
