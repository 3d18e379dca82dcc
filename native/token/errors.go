package token

import "errors"

var (
	// ErrInvalidAmount rejects zero-value mints and transfers.
	ErrInvalidAmount = errors.New("token: amount must be positive")
	// ErrOverflow rejects arithmetic that would wrap a u64 balance or supply.
	ErrOverflow = errors.New("token: amount overflows u64")
	// ErrInsufficientFunds rejects debits larger than the current balance.
	ErrInsufficientFunds = errors.New("token: insufficient funds")
	// ErrInsufficientDeposit rejects account creation when the payer cannot
	// cover the storage deposit.
	ErrInsufficientDeposit = errors.New("token: insufficient storage deposit balance")
	// ErrMintNotFound reports a reference to an unknown mint.
	ErrMintNotFound = errors.New("token: mint not found")
	// ErrAccountNotFound reports a reference to an unknown token account.
	ErrAccountNotFound = errors.New("token: account not found")
	// ErrAccountInUse rejects creating an account over an existing one.
	ErrAccountInUse = errors.New("token: account already in use")
	// ErrMintMismatch rejects transfers between accounts of different mints.
	ErrMintMismatch = errors.New("token: mint mismatch")
	// ErrUnauthorized rejects an authority that does not own the debited
	// account or control the mint.
	ErrUnauthorized = errors.New("token: unauthorized")
	// ErrNonZeroBalance rejects closing an account that still holds funds.
	ErrNonZeroBalance = errors.New("token: account balance must be zero to close")
	// ErrBadAuthority reports a derived authority whose seeds do not resolve
	// to a valid program address.
	ErrBadAuthority = errors.New("token: invalid derived authority")
)
