package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func userBorn(y int, m time.Month, d int) *User {
	b := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &User{Profile: Profile{Birthday: &b}}
}

func TestIsAdult(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		user *User
		want bool
	}{
		{"18th birthday today", userBorn(2008, 6, 15), true},
		{"18th birthday tomorrow", userBorn(2008, 6, 16), false},
		{"18th birthday yesterday", userBorn(2008, 6, 14), true},
		{"well past threshold", userBorn(1990, 1, 1), true},
		{"child", userBorn(2020, 1, 1), false},
		{"birthday later this year", userBorn(2008, 12, 31), false},
		{"no birthday on file", &User{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.IsAdult(now))
		})
	}
}

func TestNewViewer(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	anonymous := NewViewer(nil, now)
	assert.False(t, anonymous.SeesAdultContent())
	assert.False(t, anonymous.IsStaff)

	minor := userBorn(2015, 1, 1)
	assert.False(t, NewViewer(minor, now).SeesAdultContent())

	adult := userBorn(1990, 1, 1)
	assert.True(t, NewViewer(adult, now).SeesAdultContent())

	// superusers bypass the age gate even without a birthday on file
	super := &User{IsSuperuser: true}
	assert.True(t, NewViewer(super, now).SeesAdultContent())
}
