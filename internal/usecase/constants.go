package usecase

import "time"

const (
	// DefaultLockTimeout bounds the wait for a single account lock.
	DefaultLockTimeout = 2 * time.Second

	// DefaultHistoryCount is the mini-statement length when none is given.
	DefaultHistoryCount = 5
)
