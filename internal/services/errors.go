package services

import "errors"

// The error taxonomy surfaced to handlers. Handlers map these onto HTTP
// statuses with errors.Is; every already-exists condition maps to 409,
// every missing-or-hidden resource to 404.
var (
	// ErrInvalidCredentials covers both unknown-username and
	// wrong-password so login failures leak nothing.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateUsername and ErrDuplicateEmail reject registration
	// against the unique user indexes.
	ErrDuplicateUsername = errors.New("username already taken")
	ErrDuplicateEmail    = errors.New("email already registered")
	// ErrInvalidOrExpiredToken covers missing, expired, and already-used
	// reset tokens alike.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")

	// ErrForbidden means the caller is authenticated but lacks the role
	// or ownership the operation requires.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is deliberately returned for both nonexistent content
	// and content owned by someone else, so a response never confirms a
	// resource's existence to a non-owner.
	ErrNotFound     = errors.New("not found")
	ErrUserNotFound = errors.New("user not found")

	ErrEmptyContent = errors.New("content must not be empty")
	ErrInvalidRole  = errors.New("invalid membership role")

	ErrDuplicateMembership = errors.New("user is already a member of this cohort")
	// ErrLastModerator guards against removing or demoting a cohort's
	// only moderator, which would leave the cohort unmanageable.
	ErrLastModerator = errors.New("cohort must retain at least one moderator")

	ErrAlreadyUpvoted = errors.New("post already upvoted")
	ErrNotUpvoted     = errors.New("post not upvoted")
)
