package types

// AccountMeta declares one account an instruction reads or writes, along with
// the privileges the caller grants it. Every account touched by an operation
// must be listed up front; the processor serializes conflicting instructions
// based on this declaration.
type AccountMeta struct {
	Address  Address `json:"address"`
	Signer   bool    `json:"signer"`
	Writable bool    `json:"writable"`
}

// Instruction is one request submitted to the processor: an operation tag and
// its encoded arguments in Data, plus the ordered account list the handler
// validates against.
type Instruction struct {
	Accounts []AccountMeta `json:"accounts"`
	Data     []byte        `json:"data"`
}

// Meta returns the i-th account meta and whether it exists.
func (in Instruction) Meta(i int) (AccountMeta, bool) {
	if i < 0 || i >= len(in.Accounts) {
		return AccountMeta{}, false
	}
	return in.Accounts[i], true
}

// Account returns the address of the i-th account, or the zero address when
// the list is too short.
func (in Instruction) Account(i int) Address {
	meta, ok := in.Meta(i)
	if !ok {
		return Address{}
	}
	return meta.Address
}
