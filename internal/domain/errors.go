package domain

import "errors"

var (
	// Account errors
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountExists     = errors.New("account already exists")
	ErrLockTimeout       = errors.New("account lock not acquired")

	// Authentication errors
	ErrAuthenticationFailed = errors.New("incorrect PIN")
	ErrInvalidPIN           = errors.New("PIN must be exactly 4 digits")
	ErrPINMismatch          = errors.New("PINs do not match")

	// Transfer errors
	ErrSelfTransfer  = errors.New("cannot transfer to same account")
	ErrInvalidAmount = errors.New("amount must be positive")
)
