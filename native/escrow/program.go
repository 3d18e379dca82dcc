package escrow

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"swapvault/core/types"
)

// Operation tags are the first 8 bytes of sha256 over the canonical
// "global:<name>" string, prefixed to every instruction's argument data.

// TagLength is the width of the operation tag.
const TagLength = 8

var (
	// TagMake selects the make handler.
	TagMake = OperationTag("make")
	// TagTake selects the take handler.
	TagTake = OperationTag("take")
	// TagRefund selects the refund handler.
	TagRefund = OperationTag("refund")
)

// OperationTag derives the fixed discriminator for an operation name.
func OperationTag(name string) [TagLength]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var tag [TagLength]byte
	copy(tag[:], sum[:TagLength])
	return tag
}

// Fixed account-list positions per operation, matching the wire layout.
// Trailing supporting accounts are tolerated and ignored.
const (
	makeAccountCount   = 6
	takeAccountCount   = 9
	refundAccountCount = 5
)

// EncodeMakeData builds the instruction data for make: the tag followed by
// the little-endian seed, receive and deposit amounts.
func EncodeMakeData(p MakeParams) []byte {
	data := make([]byte, TagLength+24)
	copy(data, TagMake[:])
	binary.LittleEndian.PutUint64(data[TagLength:], p.Seed)
	binary.LittleEndian.PutUint64(data[TagLength+8:], p.ReceiveAmount)
	binary.LittleEndian.PutUint64(data[TagLength+16:], p.DepositAmount)
	return data
}

// EncodeTakeData builds the instruction data for take, which carries no
// arguments.
func EncodeTakeData() []byte {
	return append([]byte(nil), TagTake[:]...)
}

// EncodeRefundData builds the instruction data for refund, which carries no
// arguments.
func EncodeRefundData() []byte {
	return append([]byte(nil), TagRefund[:]...)
}

// Program decodes instructions and routes them to the engine. It owns the
// closed tag-to-handler mapping; anything else is rejected before the engine
// runs.
type Program struct {
	engine *Engine
}

// NewProgram wraps an engine in the instruction dispatch layer.
func NewProgram(engine *Engine) *Program {
	return &Program{engine: engine}
}

// Engine exposes the wrapped engine for queries.
func (p *Program) Engine() *Engine { return p.engine }

// Execute decodes the operation tag and dispatches to the matching handler.
func (p *Program) Execute(ins types.Instruction) error {
	if len(ins.Data) < TagLength {
		return fmt.Errorf("%w: %d bytes, want at least %d", ErrInstructionData, len(ins.Data), TagLength)
	}
	tag := ins.Data[:TagLength]
	args := ins.Data[TagLength:]
	switch {
	case bytes.Equal(tag, TagMake[:]):
		return p.executeMake(ins, args)
	case bytes.Equal(tag, TagTake[:]):
		return p.executeTake(ins, args)
	case bytes.Equal(tag, TagRefund[:]):
		return p.executeRefund(ins, args)
	default:
		return fmt.Errorf("%w: %x", ErrUnknownInstruction, tag)
	}
}

func (p *Program) executeMake(ins types.Instruction, args []byte) error {
	if len(args) != 24 {
		return fmt.Errorf("%w: make args are %d bytes, want 24", ErrInstructionData, len(args))
	}
	if err := requireAccounts(ins, makeAccountCount, "make"); err != nil {
		return err
	}
	if err := requireSigner(ins, 0, "maker"); err != nil {
		return err
	}
	params := MakeParams{
		Seed:          binary.LittleEndian.Uint64(args[0:8]),
		ReceiveAmount: binary.LittleEndian.Uint64(args[8:16]),
		DepositAmount: binary.LittleEndian.Uint64(args[16:24]),
	}
	accounts := MakeAccounts{
		Maker:       ins.Account(0),
		Record:      ins.Account(1),
		AssetA:      ins.Account(2),
		AssetB:      ins.Account(3),
		MakerAssetA: ins.Account(4),
		Vault:       ins.Account(5),
	}
	_, err := p.engine.Make(params, accounts)
	return err
}

func (p *Program) executeTake(ins types.Instruction, args []byte) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: take carries no args, got %d bytes", ErrInstructionData, len(args))
	}
	if err := requireAccounts(ins, takeAccountCount, "take"); err != nil {
		return err
	}
	if err := requireSigner(ins, 0, "taker"); err != nil {
		return err
	}
	accounts := TakeAccounts{
		Taker:       ins.Account(0),
		Maker:       ins.Account(1),
		Record:      ins.Account(2),
		AssetA:      ins.Account(3),
		AssetB:      ins.Account(4),
		Vault:       ins.Account(5),
		TakerAssetA: ins.Account(6),
		TakerAssetB: ins.Account(7),
		MakerAssetB: ins.Account(8),
	}
	return p.engine.Take(accounts)
}

func (p *Program) executeRefund(ins types.Instruction, args []byte) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: refund carries no args, got %d bytes", ErrInstructionData, len(args))
	}
	if err := requireAccounts(ins, refundAccountCount, "refund"); err != nil {
		return err
	}
	if err := requireSigner(ins, 0, "maker"); err != nil {
		return err
	}
	accounts := RefundAccounts{
		Maker:       ins.Account(0),
		Record:      ins.Account(1),
		AssetA:      ins.Account(2),
		Vault:       ins.Account(3),
		MakerAssetA: ins.Account(4),
	}
	return p.engine.Refund(accounts)
}

func requireAccounts(ins types.Instruction, n int, op string) error {
	if len(ins.Accounts) < n {
		return fmt.Errorf("%w: %s needs %d accounts, got %d", ErrMissingAccounts, op, n, len(ins.Accounts))
	}
	return nil
}

func requireSigner(ins types.Instruction, i int, role string) error {
	meta, ok := ins.Meta(i)
	if !ok || !meta.Signer {
		return fmt.Errorf("%w: %s", ErrMissingSigner, role)
	}
	return nil
}
