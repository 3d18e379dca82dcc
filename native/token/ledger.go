package token

import (
	"errors"
	"fmt"
	"math"

	"swapvault/core/types"
	"swapvault/crypto"
)

// AccountDeposit is the storage deposit debited from the payer's native
// balance when a token account is created and refunded when it is closed.
const AccountDeposit uint64 = 2_039_280

// MintDeposit is the storage deposit for a mint. Mints are never closed, so
// the deposit is sunk.
const MintDeposit uint64 = 1_461_600

var errNilState = errors.New("token: state not configured")

// ledgerState is the slice of state manager functionality the ledger needs.
type ledgerState interface {
	MintGet(addr types.Address) (*Mint, bool, error)
	MintPut(m *Mint) error
	TokenAccountGet(addr types.Address) (*Account, bool, error)
	TokenAccountPut(a *Account) error
	TokenAccountDelete(addr types.Address) error
	NativeBalance(addr types.Address) (uint64, error)
	NativeCredit(addr types.Address, amount uint64) error
	NativeDebit(addr types.Address, amount uint64) error
}

// Ledger implements the asset-transfer primitive: mints, derived token
// accounts, and checked balance movements gated by explicit authorities.
type Ledger struct {
	state     ledgerState
	namespace types.Address
}

// NewLedger constructs a ledger deriving account addresses under namespace.
func NewLedger(namespace types.Address) *Ledger {
	return &Ledger{namespace: namespace}
}

// SetState configures the state backend used by the ledger.
func (l *Ledger) SetState(state ledgerState) { l.state = state }

// Namespace returns the token program namespace.
func (l *Ledger) Namespace() types.Address { return l.namespace }

// AccountAddress derives the canonical token account address for
// (owner, mint) under the ledger namespace.
func (l *Ledger) AccountAddress(owner, mint types.Address) (types.Address, uint8, error) {
	return crypto.DeriveProgramAddress([][]byte{owner[:], mint[:]}, l.namespace)
}

// Mint loads a mint definition.
func (l *Ledger) Mint(addr types.Address) (*Mint, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	mint, ok, err := l.state.MintGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMintNotFound, addr)
	}
	return mint, nil
}

// CreateMint registers a new mint at addr with the given issue authority.
// The payer funds the storage deposit.
func (l *Ledger) CreateMint(addr, authority types.Address, decimals uint8, payer types.Address) (*Mint, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	if _, ok, err := l.state.MintGet(addr); err != nil {
		return nil, err
	} else if ok {
		return nil, fmt.Errorf("%w: mint %s", ErrAccountInUse, addr)
	}
	if err := l.chargeDeposit(payer, MintDeposit); err != nil {
		return nil, err
	}
	mint := &Mint{Address: addr, Authority: authority, Decimals: decimals}
	if err := l.state.MintPut(mint); err != nil {
		return nil, err
	}
	return mint.Clone(), nil
}

// Account loads a token account.
func (l *Ledger) Account(addr types.Address) (*Account, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	acct, ok, err := l.state.TokenAccountGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	return acct, nil
}

// Balance returns the balance held at addr.
func (l *Ledger) Balance(addr types.Address) (uint64, error) {
	acct, err := l.Account(addr)
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}

// CreateAccount initialises the derived token account for (owner, mint). The
// payer funds the storage deposit, refundable on close.
func (l *Ledger) CreateAccount(owner, mint types.Address, payer types.Address) (*Account, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	if _, err := l.Mint(mint); err != nil {
		return nil, err
	}
	addr, _, err := l.AccountAddress(owner, mint)
	if err != nil {
		return nil, err
	}
	if _, ok, err := l.state.TokenAccountGet(addr); err != nil {
		return nil, err
	} else if ok {
		return nil, fmt.Errorf("%w: token account %s", ErrAccountInUse, addr)
	}
	if err := l.chargeDeposit(payer, AccountDeposit); err != nil {
		return nil, err
	}
	acct := &Account{Address: addr, Mint: mint, Owner: owner}
	if err := l.state.TokenAccountPut(acct); err != nil {
		return nil, err
	}
	return acct.Clone(), nil
}

// EnsureAccount returns the derived token account for (owner, mint),
// creating it at the payer's expense when absent.
func (l *Ledger) EnsureAccount(owner, mint types.Address, payer types.Address) (*Account, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	addr, _, err := l.AccountAddress(owner, mint)
	if err != nil {
		return nil, err
	}
	if acct, ok, err := l.state.TokenAccountGet(addr); err != nil {
		return nil, err
	} else if ok {
		return acct, nil
	}
	return l.CreateAccount(owner, mint, payer)
}

// MintTo issues amount new units of the mint into dest. The authority must be
// the mint's issue authority.
func (l *Ledger) MintTo(mintAddr, dest types.Address, authority Authority, amount uint64) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	mint, err := l.Mint(mintAddr)
	if err != nil {
		return err
	}
	holder, err := authority.Holder()
	if err != nil {
		return err
	}
	if holder != mint.Authority {
		return fmt.Errorf("%w: %s is not the mint authority", ErrUnauthorized, holder)
	}
	acct, err := l.Account(dest)
	if err != nil {
		return err
	}
	if acct.Mint != mintAddr {
		return fmt.Errorf("%w: account %s holds %s", ErrMintMismatch, dest, acct.Mint)
	}
	supply, err := addU64(mint.Supply, amount)
	if err != nil {
		return err
	}
	balance, err := addU64(acct.Balance, amount)
	if err != nil {
		return err
	}
	mint.Supply = supply
	acct.Balance = balance
	if err := l.state.MintPut(mint); err != nil {
		return err
	}
	return l.state.TokenAccountPut(acct)
}

// Transfer moves amount from one token account to another. The authority must
// resolve to the source account's owner; both accounts must share a mint.
func (l *Ledger) Transfer(from, to types.Address, authority Authority, amount uint64) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	if from == to {
		return nil
	}
	src, err := l.Account(from)
	if err != nil {
		return err
	}
	dst, err := l.Account(to)
	if err != nil {
		return err
	}
	if src.Mint != dst.Mint {
		return fmt.Errorf("%w: %s -> %s", ErrMintMismatch, src.Mint, dst.Mint)
	}
	holder, err := authority.Holder()
	if err != nil {
		return err
	}
	if holder != src.Owner {
		return fmt.Errorf("%w: %s does not own %s", ErrUnauthorized, holder, from)
	}
	if src.Balance < amount {
		return fmt.Errorf("%w: account %s holds %d, needs %d", ErrInsufficientFunds, from, src.Balance, amount)
	}
	balance, err := addU64(dst.Balance, amount)
	if err != nil {
		return err
	}
	src.Balance -= amount
	dst.Balance = balance
	if err := l.state.TokenAccountPut(src); err != nil {
		return err
	}
	return l.state.TokenAccountPut(dst)
}

// CloseAccount deletes an empty token account and refunds its storage deposit
// to depositTo. The authority must resolve to the account owner.
func (l *Ledger) CloseAccount(addr types.Address, authority Authority, depositTo types.Address) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	acct, err := l.Account(addr)
	if err != nil {
		return err
	}
	holder, err := authority.Holder()
	if err != nil {
		return err
	}
	if holder != acct.Owner {
		return fmt.Errorf("%w: %s does not own %s", ErrUnauthorized, holder, addr)
	}
	if acct.Balance != 0 {
		return fmt.Errorf("%w: %s holds %d", ErrNonZeroBalance, addr, acct.Balance)
	}
	if err := l.state.TokenAccountDelete(addr); err != nil {
		return err
	}
	return l.state.NativeCredit(depositTo, AccountDeposit)
}

func (l *Ledger) chargeDeposit(payer types.Address, deposit uint64) error {
	balance, err := l.state.NativeBalance(payer)
	if err != nil {
		return err
	}
	if balance < deposit {
		return fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientDeposit, payer, balance, deposit)
	}
	return l.state.NativeDebit(payer, deposit)
}

func addU64(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}
