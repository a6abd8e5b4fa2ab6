package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hobbyden/store/internal/models"
)

func TestAllowUserAction(t *testing.T) {
	owner := &models.User{ID: 7}
	other := &models.User{ID: 8}
	staff := &models.User{ID: 9, IsStaff: true}

	tests := []struct {
		name   string
		actor  *models.User
		action Action
		owner  int64
		want   bool
	}{
		{"anonymous can register", nil, ActionCreate, 0, true},
		{"anonymous cannot list", nil, ActionList, 0, false},
		{"anonymous cannot retrieve", nil, ActionRetrieve, 7, false},
		{"owner reads own account", owner, ActionRetrieve, 7, true},
		{"owner updates own account", owner, ActionUpdate, 7, true},
		{"owner cannot read others", owner, ActionRetrieve, 8, false},
		{"owner cannot list", owner, ActionList, 0, false},
		{"owner cannot delete own account", owner, ActionDelete, 7, false},
		{"staff lists", staff, ActionList, 0, true},
		{"staff reads anyone", staff, ActionRetrieve, 7, true},
		{"staff updates anyone", staff, ActionUpdate, 7, true},
		{"staff deletes", staff, ActionDelete, 7, true},
		{"other user cannot update", other, ActionUpdate, 7, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AllowUserAction(tt.actor, tt.action, tt.owner))
		})
	}
}

func TestValidatePhone(t *testing.T) {
	assert.NoError(t, ValidatePhone("+79998887766"))
	assert.NoError(t, ValidatePhone("79998887766"))
	assert.Error(t, ValidatePhone("12345"))
	assert.Error(t, ValidatePhone("+7 999 888 77 66"))
	assert.Error(t, ValidatePhone("not-a-phone"))
	assert.Error(t, ValidatePhone(""))
}
