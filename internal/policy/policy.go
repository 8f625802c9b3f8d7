// Package policy holds the single authorization predicate for the
// application. Every guarded operation asks Can exactly once instead of
// re-deriving moderator/admin logic per handler.
//
// The policy is:
//   - a global admin may do anything;
//   - a cohort moderator may manage that cohort's members (add,
//     re-role, remove);
//   - content (posts, comments) may only be edited or deleted by its
//     author — moderators get no content override;
//   - everyone else is read-only.
package policy

import "parently/internal/models"

// Action enumerates the guarded operations.
type Action string

const (
	ManageMembers Action = "cohort.manage_members"
	EditContent   Action = "content.edit"
	DeleteContent Action = "content.delete"
)

// Actor is the evaluated caller: the global role plus the caller's
// standing relative to the target cohort, resolved by the service
// before calling Can.
type Actor struct {
	UserID    string
	Admin     bool
	Moderator bool // moderator of the resource's cohort
}

// Resource identifies the target of an action.
type Resource struct {
	CohortID string
	OwnerID  string // author of the post/comment, empty when not content
}

// ActorFor builds an Actor from a user and their moderator standing for
// the target cohort.
func ActorFor(user *models.User, moderator bool) Actor {
	return Actor{
		UserID:    user.ID,
		Admin:     user.IsAdmin(),
		Moderator: moderator,
	}
}

// Can reports whether the actor may perform the action on the resource.
func Can(actor Actor, action Action, res Resource) bool {
	if actor.Admin {
		return true
	}
	switch action {
	case ManageMembers:
		return actor.Moderator
	case EditContent, DeleteContent:
		return res.OwnerID != "" && res.OwnerID == actor.UserID
	}
	return false
}
