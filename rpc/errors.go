package rpc

import (
	"bytes"
	"errors"
	"net/http"

	"swapvault/core/types"
	"swapvault/native/escrow"
	"swapvault/native/token"
)

// mapError translates the escrow and token error taxonomy into an HTTP status
// and a stable machine-readable code. Callers match on the code, not the
// message.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, escrow.ErrRecordNotFound):
		return http.StatusNotFound, "record_not_found"
	case errors.Is(err, escrow.ErrDuplicateTrade):
		return http.StatusConflict, "duplicate_trade"
	case errors.Is(err, escrow.ErrUnauthorized), errors.Is(err, token.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, escrow.ErrInvalidAmount), errors.Is(err, token.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, escrow.ErrAddressMismatch):
		return http.StatusBadRequest, "address_mismatch"
	case errors.Is(err, escrow.ErrAssetMismatch), errors.Is(err, token.ErrMintMismatch):
		return http.StatusBadRequest, "asset_mismatch"
	case errors.Is(err, token.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, "insufficient_funds"
	case errors.Is(err, token.ErrInsufficientDeposit):
		return http.StatusUnprocessableEntity, "insufficient_deposit"
	case errors.Is(err, token.ErrOverflow):
		return http.StatusBadRequest, "overflow"
	case errors.Is(err, token.ErrMintNotFound), errors.Is(err, token.ErrAccountNotFound):
		return http.StatusNotFound, "account_not_found"
	case errors.Is(err, token.ErrAccountInUse):
		return http.StatusConflict, "account_in_use"
	case errors.Is(err, token.ErrNonZeroBalance):
		return http.StatusConflict, "non_zero_balance"
	case errors.Is(err, escrow.ErrUnknownInstruction):
		return http.StatusBadRequest, "unknown_instruction"
	case errors.Is(err, escrow.ErrInstructionData), errors.Is(err, escrow.ErrMissingAccounts):
		return http.StatusBadRequest, "malformed_instruction"
	case errors.Is(err, escrow.ErrMissingSigner):
		return http.StatusForbidden, "missing_signer"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// errorCode returns the stable code for metrics labels, or "ok" for nil.
func errorCode(err error) string {
	if err == nil {
		return "ok"
	}
	_, code := mapError(err)
	return code
}

// operationName resolves the instruction tag to a label for logs and metrics.
func operationName(ins types.Instruction) string {
	if len(ins.Data) < escrow.TagLength {
		return "unknown"
	}
	tag := ins.Data[:escrow.TagLength]
	switch {
	case bytes.Equal(tag, escrow.TagMake[:]):
		return "make"
	case bytes.Equal(tag, escrow.TagTake[:]):
		return "take"
	case bytes.Equal(tag, escrow.TagRefund[:]):
		return "refund"
	default:
		return "unknown"
	}
}
