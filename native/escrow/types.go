package escrow

import (
	"encoding/binary"

	"swapvault/core/types"
	"swapvault/crypto"
)

// RecordDeposit is the storage deposit a maker pays for the escrow record.
// It is refunded when Take or Refund deletes the record.
const RecordDeposit uint64 = 1_795_680

// recordSeedTag is the fixed literal leading every record derivation.
const recordSeedTag = "escrow"

// Record is the unit of truth for one open trade. It lives at the address
// derived from (maker, seed) under the program namespace from Make until Take
// or Refund deletes it; there is no soft-deleted or expired form.
type Record struct {
	Seed          uint64
	Maker         types.Address
	AssetA        types.Address
	AssetB        types.Address
	ReceiveAmount uint64
	// Bump re-proves the record's own address derivation so later
	// operations can sign for the vault without re-searching.
	Bump uint8
}

// Clone returns a copy so callers can mutate freely.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

// Seeds returns the derivation seeds for the record's own address.
func (r *Record) Seeds() [][]byte {
	return RecordSeeds(r.Maker, r.Seed)
}

// RecordSeeds builds the derivation seeds binding a record address to exactly
// one (maker, seed) pair.
func RecordSeeds(maker types.Address, seed uint64) [][]byte {
	var seedLE [8]byte
	binary.LittleEndian.PutUint64(seedLE[:], seed)
	return [][]byte{[]byte(recordSeedTag), maker[:], seedLE[:]}
}

// DeriveRecordAddress computes the record address and bump for (maker, seed)
// under the program namespace.
func DeriveRecordAddress(namespace, maker types.Address, seed uint64) (types.Address, uint8, error) {
	return crypto.DeriveProgramAddress(RecordSeeds(maker, seed), namespace)
}
