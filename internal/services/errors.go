package services

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrInvalidAmount      = errors.New("amount must be a positive decimal with at most 2 decimal places")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrAccountNumberTaken = errors.New("account with this account number already exists")
	ErrAccountNotFound    = errors.New("invalid account")

	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
	ErrInvalidToken       = errors.New("token is invalid or expired")

	ErrUnauthorizedAccount = errors.New("account does not belong to user")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrAccountReassignment = errors.New("transaction account cannot be changed")

	ErrNotFound            = errors.New("not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	ErrInvalidLink            = errors.New("invalid link")
	ErrInvalidActivationToken = errors.New("invalid token")
	ErrMissingRefreshToken    = errors.New("refresh token is required")
)

func validationError(err error) error {
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

func requiredField(name string) error {
	return fmt.Errorf("%w: %s is required", ErrValidation, name)
}
