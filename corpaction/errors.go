package corpaction

import "errors"

var (
	ErrUnknownSymbol     = errors.New("unknown symbol")
	ErrInvalidParameters = errors.New("invalid corporate action parameters")
	ErrNotFound          = errors.New("corporate action not found")
	ErrAlreadyReversed   = errors.New("corporate action already reversed")
	ErrLotsChanged       = errors.New("lots changed since the corporate action was applied")
)
