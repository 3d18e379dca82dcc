package escrow

import (
	"errors"

	"swapvault/native/token"
)

var (
	// ErrInvalidAmount rejects a zero deposit or receive amount at creation.
	ErrInvalidAmount = errors.New("escrow: amount must be positive")
	// ErrAddressMismatch reports a caller-supplied account that does not
	// match the deterministically derived one.
	ErrAddressMismatch = errors.New("escrow: derived address mismatch")
	// ErrAssetMismatch reports asset identifiers that disagree with the
	// stored record, or a trade between identical assets.
	ErrAssetMismatch = errors.New("escrow: asset mismatch")
	// ErrUnauthorized reports a signer other than the one the operation
	// requires.
	ErrUnauthorized = errors.New("escrow: unauthorized")
	// ErrRecordNotFound reports that no open trade exists at the derived
	// address: never created, or already taken or refunded.
	ErrRecordNotFound = errors.New("escrow: record not found")
	// ErrDuplicateTrade rejects a Make targeting an address that already
	// holds an open trade.
	ErrDuplicateTrade = errors.New("escrow: trade already open for maker and seed")
	// ErrUnknownInstruction rejects an unrecognised operation tag.
	ErrUnknownInstruction = errors.New("escrow: unknown instruction tag")
	// ErrInstructionData rejects malformed or short argument data.
	ErrInstructionData = errors.New("escrow: malformed instruction data")
	// ErrMissingSigner rejects an instruction whose required signer is not
	// flagged as such.
	ErrMissingSigner = errors.New("escrow: missing required signer")
	// ErrMissingAccounts rejects an instruction with too few accounts.
	ErrMissingAccounts = errors.New("escrow: account list too short")
)

// ErrInsufficientFunds is the ledger's balance failure, re-exported so
// callers can match it without importing the token package.
var ErrInsufficientFunds = token.ErrInsufficientFunds
