package domain

import "errors"

// Expected outcomes returned to callers. The transport layer maps each to a
// stable HTTP status; none of these are logged as faults.
var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrActorNotFound       = errors.New("actor not found")
	ErrOrderLocked         = errors.New("order is locked for changes")
	ErrOrderExpired        = errors.New("order is no longer active")
	ErrMaxHoldersReached   = errors.New("maximum holders reached")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBusy                = errors.New("order is busy, retry")
	ErrConflict            = errors.New("conflicting concurrent change")
	ErrUnavailable         = errors.New("storage unavailable")
	ErrForbidden           = errors.New("access forbidden")

	ErrInvalidCategory  = errors.New("invalid category")
	ErrContactInUse     = errors.New("contact already has an active order")
	ErrNoHolders        = errors.New("no executor has taken this order")
	ErrAlreadyResponded = errors.New("already responded")
	ErrInvalidAmount    = errors.New("amount must be positive")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrActorExists        = errors.New("actor already exists")
)
