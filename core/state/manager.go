package state

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"swapvault/core/types"
	"swapvault/native/escrow"
	"swapvault/native/token"
	"swapvault/storage"
)

var (
	nativeBalancePrefix = []byte("bal/native/")
	mintPrefix          = []byte("token/mint/")
	tokenAccountPrefix  = []byte("token/account/")
	escrowRecordPrefix  = []byte("escrow/record/")
)

// Manager persists ledger state as RLP-encoded records in a key-value store.
// It implements the narrow state interfaces declared by the token ledger and
// the escrow engine.
type Manager struct {
	db storage.Database
}

// NewManager wraps a database in a state manager.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func prefixedKey(prefix []byte, addr types.Address) []byte {
	buf := make([]byte, len(prefix)+len(addr))
	copy(buf, prefix)
	copy(buf[len(prefix):], addr[:])
	return buf
}

// kvGet decodes the value at key into out, reporting whether it existed.
func (m *Manager) kvGet(key []byte, out interface{}) (bool, error) {
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

func (m *Manager) kvPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.db.Put(key, encoded)
}

// --- native storage-deposit balances ---

// NativeBalance returns the storage-deposit balance held by addr. Unknown
// addresses hold zero.
func (m *Manager) NativeBalance(addr types.Address) (uint64, error) {
	var balance uint64
	if _, err := m.kvGet(prefixedKey(nativeBalancePrefix, addr), &balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// NativeCredit adds amount to addr's native balance.
func (m *Manager) NativeCredit(addr types.Address, amount uint64) error {
	balance, err := m.NativeBalance(addr)
	if err != nil {
		return err
	}
	if balance+amount < balance {
		return fmt.Errorf("state: native balance overflow for %s", addr)
	}
	return m.kvPut(prefixedKey(nativeBalancePrefix, addr), balance+amount)
}

// NativeDebit removes amount from addr's native balance.
func (m *Manager) NativeDebit(addr types.Address, amount uint64) error {
	balance, err := m.NativeBalance(addr)
	if err != nil {
		return err
	}
	if balance < amount {
		return fmt.Errorf("state: native balance of %s below debit %d", addr, amount)
	}
	return m.kvPut(prefixedKey(nativeBalancePrefix, addr), balance-amount)
}

// --- token ledger state ---

// MintGet loads the mint stored at addr.
func (m *Manager) MintGet(addr types.Address) (*token.Mint, bool, error) {
	mint := new(token.Mint)
	ok, err := m.kvGet(prefixedKey(mintPrefix, addr), mint)
	if err != nil || !ok {
		return nil, false, err
	}
	return mint, true, nil
}

// MintPut stores a mint under its own address.
func (m *Manager) MintPut(mint *token.Mint) error {
	if mint == nil {
		return fmt.Errorf("state: nil mint")
	}
	return m.kvPut(prefixedKey(mintPrefix, mint.Address), mint)
}

// TokenAccountGet loads the token account stored at addr.
func (m *Manager) TokenAccountGet(addr types.Address) (*token.Account, bool, error) {
	acct := new(token.Account)
	ok, err := m.kvGet(prefixedKey(tokenAccountPrefix, addr), acct)
	if err != nil || !ok {
		return nil, false, err
	}
	return acct, true, nil
}

// TokenAccountPut stores a token account under its own address.
func (m *Manager) TokenAccountPut(acct *token.Account) error {
	if acct == nil {
		return fmt.Errorf("state: nil token account")
	}
	return m.kvPut(prefixedKey(tokenAccountPrefix, acct.Address), acct)
}

// TokenAccountDelete removes the token account at addr.
func (m *Manager) TokenAccountDelete(addr types.Address) error {
	return m.db.Delete(prefixedKey(tokenAccountPrefix, addr))
}

// --- escrow record state ---

// EscrowGet loads the escrow record stored at addr.
func (m *Manager) EscrowGet(addr types.Address) (*escrow.Record, bool, error) {
	record := new(escrow.Record)
	ok, err := m.kvGet(prefixedKey(escrowRecordPrefix, addr), record)
	if err != nil || !ok {
		return nil, false, err
	}
	return record, true, nil
}

// EscrowPut stores record at addr.
func (m *Manager) EscrowPut(addr types.Address, record *escrow.Record) error {
	if record == nil {
		return fmt.Errorf("state: nil escrow record")
	}
	return m.kvPut(prefixedKey(escrowRecordPrefix, addr), record)
}

// EscrowDelete removes the escrow record at addr. Deletion is the terminal
// state: there is no tombstone to act on twice.
func (m *Manager) EscrowDelete(addr types.Address) error {
	return m.db.Delete(prefixedKey(escrowRecordPrefix, addr))
}
