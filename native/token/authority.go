package token

import (
	"swapvault/core/types"
	"swapvault/crypto"
)

// Authority is the capability a caller presents to move funds or close an
// account. It resolves to the address the ledger compares against the
// account's owner. There is no ambient signer: whoever calls the ledger must
// pass the capability explicitly.
type Authority interface {
	Holder() (types.Address, error)
}

// SignerAuthority represents an account whose signature was verified on the
// enclosing request. The processor only constructs it for accounts flagged as
// signers.
type SignerAuthority struct {
	Address types.Address
}

func (a SignerAuthority) Holder() (types.Address, error) {
	return a.Address, nil
}

// DerivedAuthority lets a program-derived address authorize transfers out of
// accounts it owns. Holder recomputes the address from the seeds and bump, so
// presenting the capability is equivalent to proving the derivation.
type DerivedAuthority struct {
	Namespace types.Address
	Seeds     [][]byte
	Bump      uint8
}

func (a DerivedAuthority) Holder() (types.Address, error) {
	addr, err := crypto.ProgramAddressForBump(a.Seeds, a.Bump, a.Namespace)
	if err != nil {
		return types.Address{}, ErrBadAuthority
	}
	return addr, nil
}
