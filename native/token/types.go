package token

import "swapvault/core/types"

// Mint describes one fungible asset: who may issue it and how much exists.
type Mint struct {
	Address   types.Address
	Authority types.Address
	Decimals  uint8
	Supply    uint64
}

// Clone returns a copy so callers can mutate freely.
func (m *Mint) Clone() *Mint {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}

// Account is a balance of one mint held on behalf of an owner. The address is
// derived from (owner, mint) under the token namespace, so each owner has at
// most one account per mint and its location is computable by anyone.
type Account struct {
	Address types.Address
	Mint    types.Address
	Owner   types.Address
	Balance uint64
}

// Clone returns a copy so callers can mutate freely.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}
