package service

import "time"

// Config carries the business parameters shared by the order, take, and
// lifecycle services.
type Config struct {
	// OrderLifetimeMinutes is the fixed lifetime window stamped on each
	// order at creation.
	OrderLifetimeMinutes int
	// NoResponseWindow is the quiet period after the first take before an
	// unanswered order auto-closes.
	NoResponseWindow time.Duration
	// TakeFee is the flat charge per take, in the smallest currency unit.
	TakeFee int64
	// MaxHolders caps how many executors may hold one order concurrently.
	MaxHolders int
	// LockWait bounds how long a call waits for an entity lock before
	// failing with domain.ErrBusy.
	LockWait time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		OrderLifetimeMinutes: 60,
		NoResponseWindow:     15 * time.Minute,
		TakeFee:              2,
		MaxHolders:           3,
		LockWait:             3 * time.Second,
	}
}
