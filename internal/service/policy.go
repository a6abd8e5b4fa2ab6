package service

import "github.com/hobbyden/store/internal/models"

// Action is an operation on the user resource.
type Action int

const (
	ActionList Action = iota
	ActionCreate
	ActionRetrieve
	ActionUpdate
	ActionDelete
)

// AllowUserAction is the access policy for the user resource, evaluated
// against an explicit (actor, action, owner) triple. Registration is open;
// reading and updating an account is for its owner or staff; listing and
// deleting are staff only.
func AllowUserAction(actor *models.User, action Action, ownerID int64) bool {
	if action == ActionCreate {
		return true
	}
	if actor == nil {
		return false
	}
	switch action {
	case ActionList, ActionDelete:
		return actor.IsStaff
	case ActionRetrieve, ActionUpdate:
		return actor.ID == ownerID || actor.IsStaff
	}
	return false
}
