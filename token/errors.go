package token

import "errors"

var (
	// ErrInsufficientBalance is returned when a debit exceeds the holder's balance.
	ErrInsufficientBalance = errors.New("pcetoken: insufficient balance")
	// ErrInvalidAmount is returned for negative or nil amounts.
	ErrInvalidAmount = errors.New("pcetoken: invalid amount")
	// ErrInvalidAccount is returned when the zero address is used as a holder.
	ErrInvalidAccount = errors.New("pcetoken: invalid account")
	// ErrSameLedger is returned when a swap names one ledger on both sides.
	ErrSameLedger = errors.New("pcetoken: source and target ledger are the same")
)
