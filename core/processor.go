package core

import (
	"sync"

	"swapvault/core/events"
	"swapvault/core/state"
	"swapvault/core/types"
	"swapvault/crypto"
	"swapvault/native/escrow"
	"swapvault/native/token"
	"swapvault/storage"
)

// eventRecorder captures the events one instruction emits so they can be
// returned to the caller and forwarded downstream after commit.
type eventRecorder struct {
	events []*types.Event
}

func (r *eventRecorder) Emit(evt events.Event) {
	type payloadEvent interface {
		Event() *types.Event
	}
	if p, ok := evt.(payloadEvent); ok && p.Event() != nil {
		r.events = append(r.events, p.Event())
	}
}

// Processor is the commit layer: it executes each instruction against an
// overlay snapshot of the database and flushes the overlay only on success,
// so a failed operation leaves no partial state. A mutex serializes
// conflicting operations the way a hosting ledger would; concurrent Take and
// Refund against one trade resolve to a single winner, the loser observing
// the record as already gone.
type Processor struct {
	mu        sync.Mutex
	db        storage.Database
	namespace types.Address
	tokenNS   types.Address
	emitter   events.Emitter
}

// NewProcessor creates a processor executing the escrow program under the
// given namespace label.
func NewProcessor(db storage.Database, programLabel string) *Processor {
	return &Processor{
		db:        db,
		namespace: crypto.NamespaceAddress(programLabel),
		tokenNS:   crypto.NamespaceAddress("token"),
		emitter:   events.NoopEmitter{},
	}
}

// SetEmitter configures where committed instruction events are forwarded.
func (p *Processor) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		p.emitter = events.NoopEmitter{}
		return
	}
	p.emitter = emitter
}

// Namespace returns the escrow program namespace address.
func (p *Processor) Namespace() types.Address { return p.namespace }

// TokenNamespace returns the token ledger namespace address.
func (p *Processor) TokenNamespace() types.Address { return p.tokenNS }

// Submit executes one instruction. On success the state mutations are
// committed and the emitted events returned; on error the overlay is
// discarded and the database is untouched.
func (p *Processor) Submit(ins types.Instruction) ([]*types.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	overlay := storage.NewOverlay(p.db)
	engine, _, _ := p.buildEngine(overlay)
	recorder := &eventRecorder{}
	engine.SetEmitter(recorder)

	if err := escrow.NewProgram(engine).Execute(ins); err != nil {
		return nil, err
	}
	if err := overlay.Commit(); err != nil {
		return nil, err
	}
	for _, evt := range recorder.events {
		p.emitter.Emit(committedEvent{evt: evt})
	}
	return recorder.events, nil
}

// Record returns the open escrow record at addr, if any.
func (p *Processor) Record(addr types.Address) (*escrow.Record, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return state.NewManager(p.db).EscrowGet(addr)
}

// TokenAccount returns the token account at addr, if any.
func (p *Processor) TokenAccount(addr types.Address) (*token.Account, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return state.NewManager(p.db).TokenAccountGet(addr)
}

// TokenAccountAddress derives the canonical token account address for
// (owner, mint).
func (p *Processor) TokenAccountAddress(owner, mint types.Address) (types.Address, error) {
	addr, _, err := token.NewLedger(p.tokenNS).AccountAddress(owner, mint)
	return addr, err
}

// EscrowAddress derives the record address and bump for (maker, seed) under
// the program namespace.
func (p *Processor) EscrowAddress(maker types.Address, seed uint64) (types.Address, uint8, error) {
	return escrow.DeriveRecordAddress(p.namespace, maker, seed)
}

// NativeBalance returns the storage-deposit balance of addr.
func (p *Processor) NativeBalance(addr types.Address) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return state.NewManager(p.db).NativeBalance(addr)
}

// CreateMint registers a new mint. This is environment plumbing (genesis or
// dev faucet), not an escrow operation, but it runs through the same commit
// layer.
func (p *Processor) CreateMint(addr, authority types.Address, decimals uint8, payer types.Address) error {
	return p.withCommit(func(manager *state.Manager, ledger *token.Ledger) error {
		_, err := ledger.CreateMint(addr, authority, decimals, payer)
		return err
	})
}

// MintTo issues units of a mint into the owner's derived token account,
// creating it when absent at the authority's expense.
func (p *Processor) MintTo(mint, owner types.Address, authority types.Address, amount uint64) error {
	return p.withCommit(func(manager *state.Manager, ledger *token.Ledger) error {
		acct, err := ledger.EnsureAccount(owner, mint, authority)
		if err != nil {
			return err
		}
		return ledger.MintTo(mint, acct.Address, token.SignerAuthority{Address: authority}, amount)
	})
}

// Airdrop credits native storage-deposit balance to addr.
func (p *Processor) Airdrop(addr types.Address, amount uint64) error {
	return p.withCommit(func(manager *state.Manager, ledger *token.Ledger) error {
		return manager.NativeCredit(addr, amount)
	})
}

func (p *Processor) withCommit(fn func(*state.Manager, *token.Ledger) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	overlay := storage.NewOverlay(p.db)
	_, ledger, manager := p.buildEngine(overlay)
	if err := fn(manager, ledger); err != nil {
		return err
	}
	return overlay.Commit()
}

func (p *Processor) buildEngine(db storage.Database) (*escrow.Engine, *token.Ledger, *state.Manager) {
	manager := state.NewManager(db)
	ledger := token.NewLedger(p.tokenNS)
	ledger.SetState(manager)
	engine := escrow.NewEngine(p.namespace, ledger)
	engine.SetState(manager)
	return engine, ledger, manager
}

type committedEvent struct {
	evt *types.Event
}

func (e committedEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e committedEvent) Event() *types.Event { return e.evt }
