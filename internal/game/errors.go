package game

import "errors"

// Game flow errors. Handlers turn these into explanatory replies and perform
// no state mutation when one is returned.
var (
	// ErrWrongStep is returned when an operation is attempted in a step
	// that does not allow it.
	ErrWrongStep = errors.New("operation not allowed in current game step")

	// ErrNotWinner is returned when someone other than the current winner
	// attempts a winner-only operation.
	ErrNotWinner = errors.New("only the current winner may do this")

	// ErrNoEmoji is returned when the winner's post contains no emoji tokens.
	ErrNoEmoji = errors.New("post contains no emoji tokens")

	// ErrPermissionDenied is returned when a non-admin attempts an
	// admin-only operation.
	ErrPermissionDenied = errors.New("permission denied")
)
