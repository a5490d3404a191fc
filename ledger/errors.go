package ledger

import "errors"

var (
	// ErrInvalidInput is returned for non-positive quantities or prices, and
	// missing symbols or dates.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientHoldings is returned when a sale asks for more than the
	// lots of a symbol hold.
	ErrInsufficientHoldings = errors.New("insufficient holdings")

	// ErrDecodeFailure is returned for corrupt or unparseable snapshots.
	ErrDecodeFailure = errors.New("snapshot decode failure")
)
