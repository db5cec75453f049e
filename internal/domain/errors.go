package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job cannot be found in the database
	ErrJobNotFound = errors.New("job not found")

	// ErrJobAlreadyExists is returned when creating a job whose request id is
	// already present
	ErrJobAlreadyExists = errors.New("job already exists")

	// ErrUserNotFound is returned when a ledger operation targets an unknown user
	ErrUserNotFound = errors.New("user not found")

	// ErrInsufficientBalance is returned when a debit would take the balance
	// below zero. No side effects have occurred when it is returned.
	ErrInsufficientBalance = errors.New("insufficient balance")
)
