package service

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyPosted means the (account, period) pair already has its record
	ErrAlreadyPosted = errors.New("period already posted")

	// ErrInsufficientBalance means a fee debit would overdraw the account
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrIntegrityMismatch means at least one stored balance disagrees with its ledger
	ErrIntegrityMismatch = errors.New("ledger integrity mismatch")

	// ErrAccountNotFound means the account row disappeared between selection and posting
	ErrAccountNotFound = errors.New("account not found")
)

// SkipReason explains why a period was left unprocessed. Skips are not errors;
// the period is reconsidered on the next run.
type SkipReason string

const (
	SkipAlreadyPosted       SkipReason = "already_posted"
	SkipNotOpen             SkipReason = "not_open"
	SkipBelowMinimum        SkipReason = "below_minimum"
	SkipZeroInterest        SkipReason = "zero_interest"
	SkipInsufficientBalance SkipReason = "insufficient_balance"
	SkipIneligible          SkipReason = "ineligible"
)

// PostingError is a failed (account, period) unit. The unit was rolled back
// and the pair is still unprocessed.
type PostingError struct {
	AccountNumber string
	Period        string
	Err           error
}

func (e *PostingError) Error() string {
	return fmt.Sprintf("posting failed for account %s period %s: %v", e.AccountNumber, e.Period, e.Err)
}

func (e *PostingError) Unwrap() error {
	return e.Err
}
