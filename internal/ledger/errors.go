package ledger

import "errors"

// Terminal business-rule rejections are surfaced verbatim to the caller.
// ErrLockTimeout and ErrPersistence are infrastructure-level: the whole
// operation may be retried because it has not partially applied.
var (
	ErrInvalidAmount       = errors.New("amount must be a positive integer")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUnknownAccount      = errors.New("unknown account")
	ErrOverAllocation      = errors.New("prize amounts exceed prize pool")
	ErrAlreadyDistributed  = errors.New("tournament winners already distributed")
	ErrLockTimeout         = errors.New("timed out waiting for account lock")
	ErrPersistence         = errors.New("persistence failure")
)
