package escrow

import (
	"errors"
	"fmt"

	"swapvault/core/events"
	"swapvault/core/types"
	"swapvault/crypto"
	"swapvault/native/token"
)

var errNilState = errors.New("escrow engine: state not configured")

// engineState is the slice of state manager functionality the engine needs.
type engineState interface {
	EscrowGet(addr types.Address) (*Record, bool, error)
	EscrowPut(addr types.Address, record *Record) error
	EscrowDelete(addr types.Address) error
	NativeBalance(addr types.Address) (uint64, error)
	NativeCredit(addr types.Address, amount uint64) error
	NativeDebit(addr types.Address, amount uint64) error
}

type escrowEvent struct {
	evt *types.Event
}

func (e escrowEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e escrowEvent) Event() *types.Event { return e.evt }

// Engine implements the three escrow operations against external state and
// the token ledger. Every handler validates the full caller-supplied account
// set before the first mutation, so an error never leaves partial state.
type Engine struct {
	state     engineState
	ledger    *token.Ledger
	namespace types.Address
	emitter   events.Emitter
}

// NewEngine creates an engine bound to the given program namespace and token
// ledger, with a no-op emitter. Callers can override the emitter via
// SetEmitter.
func NewEngine(namespace types.Address, ledger *token.Ledger) *Engine {
	return &Engine{
		namespace: namespace,
		ledger:    ledger,
		emitter:   events.NoopEmitter{},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// Namespace returns the program namespace addresses derive under.
func (e *Engine) Namespace() types.Address { return e.namespace }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(escrowEvent{evt: evt})
}

// MakeParams carries the typed arguments of the make operation.
type MakeParams struct {
	Seed          uint64
	ReceiveAmount uint64
	DepositAmount uint64
}

// MakeAccounts is the account set make validates and mutates. Maker is the
// verified signer.
type MakeAccounts struct {
	Maker       types.Address
	Record      types.Address
	AssetA      types.Address
	AssetB      types.Address
	MakerAssetA types.Address
	Vault       types.Address
}

// Make opens a trade: it derives and checks the record address, creates the
// vault owned by that address, persists the record and moves the deposit from
// the maker's asset-A account into the vault.
func (e *Engine) Make(p MakeParams, a MakeAccounts) (*Record, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if p.ReceiveAmount == 0 {
		return nil, fmt.Errorf("%w: receive_amount", ErrInvalidAmount)
	}
	if p.DepositAmount == 0 {
		return nil, fmt.Errorf("%w: deposit_amount", ErrInvalidAmount)
	}
	if a.AssetA == a.AssetB {
		return nil, fmt.Errorf("%w: asset_a equals asset_b", ErrAssetMismatch)
	}
	if _, err := e.ledger.Mint(a.AssetA); err != nil {
		return nil, err
	}
	if _, err := e.ledger.Mint(a.AssetB); err != nil {
		return nil, err
	}

	recordAddr, bump, err := DeriveRecordAddress(e.namespace, a.Maker, p.Seed)
	if err != nil {
		return nil, err
	}
	if recordAddr != a.Record {
		return nil, fmt.Errorf("%w: record account %s, derived %s", ErrAddressMismatch, a.Record, recordAddr)
	}
	if _, exists, err := e.state.EscrowGet(recordAddr); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("%w: record %s", ErrDuplicateTrade, recordAddr)
	}
	vaultAddr, _, err := e.ledger.AccountAddress(recordAddr, a.AssetA)
	if err != nil {
		return nil, err
	}
	if vaultAddr != a.Vault {
		return nil, fmt.Errorf("%w: vault account %s, derived %s", ErrAddressMismatch, a.Vault, vaultAddr)
	}
	source, err := e.checkTokenAccount(a.MakerAssetA, a.Maker, a.AssetA, "maker_asset_a")
	if err != nil {
		return nil, err
	}
	if source.Balance < p.DepositAmount {
		return nil, fmt.Errorf("%w: account %s holds %d, needs %d",
			ErrInsufficientFunds, a.MakerAssetA, source.Balance, p.DepositAmount)
	}
	// The maker funds both the record and vault storage deposits up front.
	native, err := e.state.NativeBalance(a.Maker)
	if err != nil {
		return nil, err
	}
	if native < RecordDeposit+token.AccountDeposit {
		return nil, fmt.Errorf("%w: maker %s holds %d, needs %d",
			token.ErrInsufficientDeposit, a.Maker, native, RecordDeposit+token.AccountDeposit)
	}

	if err := e.state.NativeDebit(a.Maker, RecordDeposit); err != nil {
		return nil, err
	}
	if _, err := e.ledger.CreateAccount(recordAddr, a.AssetA, a.Maker); err != nil {
		return nil, err
	}
	record := &Record{
		Seed:          p.Seed,
		Maker:         a.Maker,
		AssetA:        a.AssetA,
		AssetB:        a.AssetB,
		ReceiveAmount: p.ReceiveAmount,
		Bump:          bump,
	}
	if err := e.state.EscrowPut(recordAddr, record); err != nil {
		return nil, err
	}
	if err := e.ledger.Transfer(a.MakerAssetA, vaultAddr, token.SignerAuthority{Address: a.Maker}, p.DepositAmount); err != nil {
		return nil, err
	}
	e.emit(NewOpenedEvent(recordAddr, record, p.DepositAmount))
	return record.Clone(), nil
}

// TakeAccounts is the account set take validates and mutates. Taker is the
// verified signer.
type TakeAccounts struct {
	Taker       types.Address
	Maker       types.Address
	Record      types.Address
	AssetA      types.Address
	AssetB      types.Address
	Vault       types.Address
	TakerAssetA types.Address
	TakerAssetB types.Address
	MakerAssetB types.Address
}

// Take settles a trade cooperatively: asset B moves from taker to maker,
// the vault's full asset-A balance moves to the taker under the record's own
// derived-address authority, and record and vault are destroyed with their
// storage deposits refunded to the maker.
func (e *Engine) Take(a TakeAccounts) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	record, ok, err := e.state.EscrowGet(a.Record)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, a.Record)
	}
	if record.Maker != a.Maker {
		return fmt.Errorf("%w: maker account %s, record holds %s", ErrAddressMismatch, a.Maker, record.Maker)
	}
	if record.AssetA != a.AssetA {
		return fmt.Errorf("%w: asset_a account %s, record holds %s", ErrAssetMismatch, a.AssetA, record.AssetA)
	}
	if record.AssetB != a.AssetB {
		return fmt.Errorf("%w: asset_b account %s, record holds %s", ErrAssetMismatch, a.AssetB, record.AssetB)
	}
	if !crypto.VerifyProgramAddress(a.Record, record.Bump, record.Seeds(), e.namespace) {
		return fmt.Errorf("%w: record %s fails derivation proof", ErrAddressMismatch, a.Record)
	}
	vault, err := e.checkVault(a.Record, a.Vault, record.AssetA)
	if err != nil {
		return err
	}
	source, err := e.checkTokenAccount(a.TakerAssetB, a.Taker, record.AssetB, "taker_asset_b")
	if err != nil {
		return err
	}
	if source.Balance < record.ReceiveAmount {
		return fmt.Errorf("%w: account %s holds %d, needs %d",
			ErrInsufficientFunds, a.TakerAssetB, source.Balance, record.ReceiveAmount)
	}
	takerDest, err := e.checkDestination(a.TakerAssetA, a.Taker, record.AssetA, "taker_asset_a")
	if err != nil {
		return err
	}
	makerDest, err := e.checkDestination(a.MakerAssetB, a.Maker, record.AssetB, "maker_asset_b")
	if err != nil {
		return err
	}
	// The taker funds any destination accounts created on the fly.
	missing := uint64(0)
	if !takerDest {
		missing += token.AccountDeposit
	}
	if !makerDest {
		missing += token.AccountDeposit
	}
	if missing > 0 {
		native, err := e.state.NativeBalance(a.Taker)
		if err != nil {
			return err
		}
		if native < missing {
			return fmt.Errorf("%w: taker %s holds %d, needs %d",
				token.ErrInsufficientDeposit, a.Taker, native, missing)
		}
	}

	if _, err := e.ledger.EnsureAccount(a.Taker, record.AssetA, a.Taker); err != nil {
		return err
	}
	if _, err := e.ledger.EnsureAccount(a.Maker, record.AssetB, a.Taker); err != nil {
		return err
	}
	if err := e.ledger.Transfer(a.TakerAssetB, a.MakerAssetB, token.SignerAuthority{Address: a.Taker}, record.ReceiveAmount); err != nil {
		return err
	}
	released := vault.Balance
	recordAuthority := token.DerivedAuthority{
		Namespace: e.namespace,
		Seeds:     record.Seeds(),
		Bump:      record.Bump,
	}
	if err := e.ledger.Transfer(a.Vault, a.TakerAssetA, recordAuthority, released); err != nil {
		return err
	}
	if err := e.closeTrade(a.Record, a.Vault, recordAuthority, a.Maker); err != nil {
		return err
	}
	e.emit(NewTakenEvent(a.Record, record, a.Taker, released))
	return nil
}

// RefundAccounts is the account set refund validates and mutates. Maker is
// the verified signer.
type RefundAccounts struct {
	Maker       types.Address
	Record      types.Address
	AssetA      types.Address
	Vault       types.Address
	MakerAssetA types.Address
}

// Refund closes a trade unilaterally: the vault's full asset-A balance
// returns to the maker and record and vault are destroyed. Only the original
// maker may invoke it.
func (e *Engine) Refund(a RefundAccounts) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	record, ok, err := e.state.EscrowGet(a.Record)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, a.Record)
	}
	if record.Maker != a.Maker {
		return fmt.Errorf("%w: signer %s is not the maker", ErrUnauthorized, a.Maker)
	}
	if record.AssetA != a.AssetA {
		return fmt.Errorf("%w: asset_a account %s, record holds %s", ErrAssetMismatch, a.AssetA, record.AssetA)
	}
	if !crypto.VerifyProgramAddress(a.Record, record.Bump, record.Seeds(), e.namespace) {
		return fmt.Errorf("%w: record %s fails derivation proof", ErrAddressMismatch, a.Record)
	}
	vault, err := e.checkVault(a.Record, a.Vault, record.AssetA)
	if err != nil {
		return err
	}
	destExists, err := e.checkDestination(a.MakerAssetA, a.Maker, record.AssetA, "maker_asset_a")
	if err != nil {
		return err
	}
	if !destExists {
		native, err := e.state.NativeBalance(a.Maker)
		if err != nil {
			return err
		}
		if native < token.AccountDeposit {
			return fmt.Errorf("%w: maker %s holds %d, needs %d",
				token.ErrInsufficientDeposit, a.Maker, native, token.AccountDeposit)
		}
	}

	if _, err := e.ledger.EnsureAccount(a.Maker, record.AssetA, a.Maker); err != nil {
		return err
	}
	returned := vault.Balance
	recordAuthority := token.DerivedAuthority{
		Namespace: e.namespace,
		Seeds:     record.Seeds(),
		Bump:      record.Bump,
	}
	if err := e.ledger.Transfer(a.Vault, a.MakerAssetA, recordAuthority, returned); err != nil {
		return err
	}
	if err := e.closeTrade(a.Record, a.Vault, recordAuthority, a.Maker); err != nil {
		return err
	}
	e.emit(NewRefundedEvent(a.Record, record, returned))
	return nil
}

// Record returns the open trade stored at addr, if any.
func (e *Engine) Record(addr types.Address) (*Record, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	return e.state.EscrowGet(addr)
}

// closeTrade tears down the vault and record, returning both storage deposits
// to the maker.
func (e *Engine) closeTrade(recordAddr, vaultAddr types.Address, authority token.Authority, maker types.Address) error {
	if err := e.ledger.CloseAccount(vaultAddr, authority, maker); err != nil {
		return err
	}
	if err := e.state.EscrowDelete(recordAddr); err != nil {
		return err
	}
	return e.state.NativeCredit(maker, RecordDeposit)
}

// checkVault asserts that the supplied vault is the derived token account for
// (record, asset) and is owned by the record address.
func (e *Engine) checkVault(recordAddr, vaultAddr, asset types.Address) (*token.Account, error) {
	expected, _, err := e.ledger.AccountAddress(recordAddr, asset)
	if err != nil {
		return nil, err
	}
	if expected != vaultAddr {
		return nil, fmt.Errorf("%w: vault account %s, derived %s", ErrAddressMismatch, vaultAddr, expected)
	}
	vault, err := e.ledger.Account(vaultAddr)
	if err != nil {
		return nil, err
	}
	if vault.Owner != recordAddr {
		return nil, fmt.Errorf("%w: vault %s not owned by record", ErrAddressMismatch, vaultAddr)
	}
	return vault, nil
}

// checkTokenAccount asserts that addr is the derived token account for
// (owner, mint) and that it exists.
func (e *Engine) checkTokenAccount(addr, owner, mint types.Address, field string) (*token.Account, error) {
	expected, _, err := e.ledger.AccountAddress(owner, mint)
	if err != nil {
		return nil, err
	}
	if expected != addr {
		return nil, fmt.Errorf("%w: %s account %s, derived %s", ErrAddressMismatch, field, addr, expected)
	}
	return e.ledger.Account(addr)
}

// checkDestination asserts that addr is the derived token account for
// (owner, mint), reporting whether the account already exists.
func (e *Engine) checkDestination(addr, owner, mint types.Address, field string) (bool, error) {
	expected, _, err := e.ledger.AccountAddress(owner, mint)
	if err != nil {
		return false, err
	}
	if expected != addr {
		return false, fmt.Errorf("%w: %s account %s, derived %s", ErrAddressMismatch, field, addr, expected)
	}
	_, err = e.ledger.Account(addr)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, token.ErrAccountNotFound) {
		return false, nil
	}
	return false, err
}
