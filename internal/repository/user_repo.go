package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/hobbyden/store/internal/models"
)

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `u.id, u.email, u.first_name, u.last_name,
	u.is_staff, u.is_superuser, u.is_active, u.created_at,
	p.phone, p.birthday, p.currency`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var (
		u        models.User
		birthday sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName,
		&u.IsStaff, &u.IsSuperuser, &u.IsActive, &u.CreatedAt,
		&u.Profile.Phone, &birthday, &u.Profile.Currency,
	)
	if err != nil {
		return nil, err
	}
	if birthday.Valid {
		t := birthday.Time
		u.Profile.Birthday = &t
	}
	return &u, nil
}

// GetByToken resolves a bearer token to its active user.
func (r *UserRepo) GetByToken(ctx context.Context, token string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM user_tokens t
		JOIN users u ON u.id = t.user_id
		JOIN profiles p ON p.user_id = u.id
		WHERE t.token = $1 AND u.is_active
	`, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by token: %w", err)
	}
	return u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users u JOIN profiles p ON p.user_id = u.id
		WHERE u.id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users u JOIN profiles p ON p.user_id = u.id
		ORDER BY u.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Create inserts a user and an empty profile atomically.
func (r *UserRepo) Create(ctx context.Context, tx Tx, u *models.User, passwordHash string) error {
	err := sqlTx(tx).QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, u.Email, passwordHash, u.FirstName, u.LastName).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	_, err = sqlTx(tx).ExecContext(ctx, `
		INSERT INTO profiles (user_id, phone, birthday, currency)
		VALUES ($1, $2, $3, $4)
	`, u.ID, u.Profile.Phone, u.Profile.Birthday, u.Profile.Currency)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	u.IsActive = true
	return nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id int64, p models.Profile) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET phone = $2, birthday = $3 WHERE user_id = $1
	`, id, p.Phone, p.Birthday)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
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

func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
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

// UpdateCurrency persists the user's banked credit balance inside the
// payment transaction.
func (r *UserRepo) UpdateCurrency(ctx context.Context, tx Tx, userID int64, currency decimal.Decimal) error {
	res, err := sqlTx(tx).ExecContext(ctx, `
		UPDATE profiles SET currency = $2 WHERE user_id = $1
	`, userID, currency)
	if err != nil {
		return fmt.Errorf("update currency: %w", err)
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
