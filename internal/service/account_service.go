package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hobbyden/store/internal/models"
	"github.com/hobbyden/store/internal/repository"
)

var phoneRe = regexp.MustCompile(`^\+?\d{11,15}$`)

// ValidatePhone accepts international numbers of 11-15 digits.
func ValidatePhone(value string) error {
	if !phoneRe.MatchString(value) {
		return fmt.Errorf("%w: invalid phone number", ErrValidation)
	}
	return nil
}

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, tx repository.Tx, u *models.User, passwordHash string) error
	UpdateProfile(ctx context.Context, id int64, p models.Profile) error
	Delete(ctx context.Context, id int64) error
}

// AccountService handles registration and profile management. Token
// issuance and password recovery live outside this service.
type AccountService struct {
	db     repository.Beginner
	users  UserStore
	logger *zap.Logger
}

func NewAccountService(db repository.Beginner, users UserStore, logger *zap.Logger) *AccountService {
	return &AccountService{db: db, users: users, logger: logger}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Birthday  *time.Time
}

// Register creates a user with an empty credit balance.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if in.Phone != "" {
		if err := ValidatePhone(in.Phone); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Profile: models.Profile{
			Phone:    in.Phone,
			Birthday: in.Birthday,
		},
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	if err := s.users.Create(ctx, tx, u, string(hash)); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: email already registered", ErrValidation)
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("tx commit: %w", err)
	}

	s.logger.Info("user registered", zap.Int64("user_id", u.ID))
	return u, nil
}

func (s *AccountService) Get(ctx context.Context, actor *models.User, id int64) (*models.User, error) {
	if !AllowUserAction(actor, ActionRetrieve, id) {
		return nil, ErrForbidden
	}
	return s.users.GetByID(ctx, id)
}

func (s *AccountService) List(ctx context.Context, actor *models.User) ([]models.User, error) {
	if !AllowUserAction(actor, ActionList, 0) {
		return nil, ErrForbidden
	}
	return s.users.List(ctx)
}

// ProfileInput carries a partial profile update. Nil fields are left
// untouched.
type ProfileInput struct {
	Phone    *string
	Birthday *time.Time
}

func (s *AccountService) UpdateProfile(ctx context.Context, actor *models.User, id int64, in ProfileInput) (*models.User, error) {
	if !AllowUserAction(actor, ActionUpdate, id) {
		return nil, ErrForbidden
	}

	current, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	profile := current.Profile
	if in.Phone != nil {
		if err := ValidatePhone(*in.Phone); err != nil {
			return nil, err
		}
		profile.Phone = *in.Phone
	}
	if in.Birthday != nil {
		profile.Birthday = in.Birthday
	}

	if err := s.users.UpdateProfile(ctx, id, profile); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}

func (s *AccountService) Delete(ctx context.Context, actor *models.User, id int64) error {
	if !AllowUserAction(actor, ActionDelete, id) {
		return ErrForbidden
	}
	return s.users.Delete(ctx, id)
}
