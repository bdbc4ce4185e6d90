package workflow

import "errors"

var (
	// ErrRouteNotFound is returned when no route is configured for a
	// request's department and kind. There is no silent default route.
	ErrRouteNotFound = errors.New("no workflow route configured")

	// ErrRequestNotFound is returned when the referenced request does not exist
	ErrRequestNotFound = errors.New("request not found")

	// ErrNotAuthorized is returned when the acting user is not an owner of
	// the request's current stage and is not eligible for the skip rule
	ErrNotAuthorized = errors.New("user not authorized for current stage")

	// ErrAlreadyTerminal is returned when acting on a completed or rejected request
	ErrAlreadyTerminal = errors.New("request is already in a terminal state")

	// ErrMissingCostCommitment is returned when the commit stage is processed
	// without a cost payload
	ErrMissingCostCommitment = errors.New("cost commitment required at this stage")

	// ErrQuoteCostMismatch is returned when a quote's total does not equal
	// labor plus parts
	ErrQuoteCostMismatch = errors.New("quote total must equal labor cost plus parts cost")

	// ErrRejectionNotAllowed is returned when reject is called before the
	// final approval stage
	ErrRejectionNotAllowed = errors.New("rejection only permitted at the final approval stage")

	// ErrConcurrentModification is returned when a stage mutation lost a
	// version race; callers should re-fetch and retry
	ErrConcurrentModification = errors.New("request was modified concurrently")

	// ErrInvalidTransition is returned when a state transition is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not part of the machine
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when a guard condition fails
	ErrGuardFailed = errors.New("guard condition failed")
)
