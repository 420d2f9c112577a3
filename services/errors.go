package services

import "errors"

// Domain outcomes the HTTP layer maps to status codes. Everything else
// bubbling out of a service is an internal error.
var (
	// ErrNoCapacity means every challenge in the category is full or archived.
	ErrNoCapacity = errors.New("no challenge with free capacity in category")
	// ErrAlreadyAssigned means the user already holds an active assignment.
	ErrAlreadyAssigned = errors.New("user already has an active assignment")
	// ErrNoActiveAssignment means a submit or skip arrived without one.
	ErrNoActiveAssignment = errors.New("user has no active assignment")
	// ErrAlreadyReviewed means a duplicate review decision lost the race;
	// the stored submission keeps the first decision.
	ErrAlreadyReviewed = errors.New("submission already reviewed")
	// ErrRateLimited means the spam guard rejected the action.
	ErrRateLimited = errors.New("too many attempts, slow down")
)
