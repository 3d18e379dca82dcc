package types

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// AddressLength is the size in bytes of every ledger address.
const AddressLength = 32

// Address identifies an account on the ledger: a signer's ed25519 public key
// or a program-derived address with no corresponding private key.
type Address [AddressLength]byte

// AddressFromBytes copies b into an Address, rejecting wrong lengths.
func AddressFromBytes(b []byte) (Address, error) {
	var addr Address
	if len(b) != AddressLength {
		return addr, fmt.Errorf("address must be %d bytes, got %d", AddressLength, len(b))
	}
	copy(addr[:], b)
	return addr, nil
}

// ParseAddress decodes the base58 text form of an address.
func ParseAddress(s string) (Address, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid base58 address: %w", err)
	}
	return AddressFromBytes(raw)
}

// MustParseAddress is ParseAddress for known-good literals; it panics on error.
func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

func (a Address) String() string {
	return base58.Encode(a[:])
}

// Bytes returns a copy of the raw address bytes.
func (a Address) Bytes() []byte {
	return append([]byte(nil), a[:]...)
}

// IsZero reports whether the address is the all-zero value.
func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
