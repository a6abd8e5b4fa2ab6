package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdultAge is the age threshold for age-restricted catalog content.
const AdultAge = 18

type Profile struct {
	Phone    string          `json:"phone,omitempty"`
	Birthday *time.Time      `json:"birthday,omitempty"`
	Currency decimal.Decimal `json:"currency"`
}

type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	IsStaff     bool      `json:"is_staff"`
	IsSuperuser bool      `json:"is_superuser"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	Profile     Profile   `json:"profile"`
}

// IsAdult reports whether the user's birthday puts them at or past AdultAge.
// Users without a birthday on file are treated as minors.
func (u *User) IsAdult(now time.Time) bool {
	if u.Profile.Birthday == nil {
		return false
	}
	b := *u.Profile.Birthday
	age := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	return age >= AdultAge
}

// Viewer is the capability a catalog query is evaluated against.
// Derived per request, never cached.
type Viewer struct {
	UserID      int64
	IsAdult     bool
	IsStaff     bool
	IsSuperuser bool
}

// NewViewer derives a Viewer from an authenticated user. A nil user is an
// anonymous visitor and sees only unrestricted content.
func NewViewer(u *User, now time.Time) Viewer {
	if u == nil {
		return Viewer{}
	}
	return Viewer{
		UserID:      u.ID,
		IsAdult:     u.IsAdult(now) || u.IsSuperuser,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
	}
}

// SeesAdultContent reports whether age-restricted items are visible.
func (v Viewer) SeesAdultContent() bool {
	return v.IsAdult || v.IsSuperuser
}
