package crypto

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"

	"swapvault/core/types"
)

// Program-derived addresses give on-ledger records signing authority without
// a private key: the address is a hash of caller-chosen seeds under a program
// namespace, constructed so that no ed25519 keypair can ever produce it. The
// bump byte is the proof value that makes the derivation reproducible — it is
// discovered once at creation and stored alongside the record.

const (
	// MaxSeeds bounds the number of seed slices in a derivation.
	MaxSeeds = 16
	// MaxSeedLength bounds each individual seed slice.
	MaxSeedLength = 32

	derivedAddressMarker = "ProgramDerivedAddress"
)

var (
	ErrNoViableBump = errors.New("crypto: no viable bump for seeds")
	ErrSeedTooLong  = fmt.Errorf("crypto: seed exceeds %d bytes", MaxSeedLength)
	ErrTooManySeeds = fmt.Errorf("crypto: more than %d seeds", MaxSeeds)
)

// NamespaceAddress maps a program label to its fixed namespace address. The
// result is itself off-curve so a namespace can never be impersonated by a
// signer.
func NamespaceAddress(label string) types.Address {
	sum := sha256.Sum256([]byte("swapvault/namespace/" + label))
	for onCurve(sum) {
		sum = sha256.Sum256(sum[:])
	}
	return sum
}

// DeriveProgramAddress finds the derived address for seeds under namespace,
// searching the bump from 255 downward until the candidate is not a valid
// curve point. Same inputs always yield the same (address, bump) pair.
func DeriveProgramAddress(seeds [][]byte, namespace types.Address) (types.Address, uint8, error) {
	if err := validateSeeds(seeds); err != nil {
		return types.Address{}, 0, err
	}
	for bump := 255; bump >= 0; bump-- {
		candidate := programAddress(seeds, uint8(bump), namespace)
		if !onCurve(candidate) {
			return candidate, uint8(bump), nil
		}
	}
	return types.Address{}, 0, ErrNoViableBump
}

// ProgramAddressForBump recomputes the derived address for a stored bump.
// It fails if the candidate lands on the curve, since such an address could
// collide with a real keypair.
func ProgramAddressForBump(seeds [][]byte, bump uint8, namespace types.Address) (types.Address, error) {
	if err := validateSeeds(seeds); err != nil {
		return types.Address{}, err
	}
	candidate := programAddress(seeds, bump, namespace)
	if onCurve(candidate) {
		return types.Address{}, ErrNoViableBump
	}
	return candidate, nil
}

// VerifyProgramAddress reports whether addr is the derivation of seeds and
// bump under namespace. All later operations must pass this check against the
// caller-supplied account before touching custody funds.
func VerifyProgramAddress(addr types.Address, bump uint8, seeds [][]byte, namespace types.Address) bool {
	candidate, err := ProgramAddressForBump(seeds, bump, namespace)
	if err != nil {
		return false
	}
	return candidate == addr
}

func validateSeeds(seeds [][]byte) error {
	if len(seeds) > MaxSeeds {
		return ErrTooManySeeds
	}
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return ErrSeedTooLong
		}
	}
	return nil
}

func programAddress(seeds [][]byte, bump uint8, namespace types.Address) types.Address {
	h := sha256.New()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write([]byte{bump})
	h.Write(namespace[:])
	h.Write([]byte(derivedAddressMarker))
	var addr types.Address
	copy(addr[:], h.Sum(nil))
	return addr
}

// onCurve reports whether b decompresses to a valid edwards25519 point, i.e.
// whether some keypair could claim the address.
func onCurve(b [32]byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b[:])
	return err == nil
}
