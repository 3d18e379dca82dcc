package core_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"swapvault/core"
	"swapvault/core/events"
	"swapvault/core/types"
	"swapvault/crypto"
	"swapvault/native/escrow"
	"swapvault/native/token"
	"swapvault/storage"
)

const (
	depositAmount = uint64(1_000_000_000)
	receiveAmount = uint64(500_000_000)
	tradeSeed     = uint64(42)
)

type procEnv struct {
	t    *testing.T
	proc *core.Processor

	maker     types.Address
	taker     types.Address
	authority types.Address

	assetA types.Address
	assetB types.Address

	record types.Address
	vault  types.Address

	makerAssetA types.Address
	makerAssetB types.Address
	takerAssetA types.Address
	takerAssetB types.Address
}

func newProcEnv(t *testing.T) *procEnv {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)

	env := &procEnv{t: t, proc: core.NewProcessor(db, "swapvault-test")}
	env.maker = env.newAddress()
	env.taker = env.newAddress()
	env.authority = env.newAddress()

	for _, addr := range []types.Address{env.maker, env.taker, env.authority} {
		require.NoError(t, env.proc.Airdrop(addr, 10_000_000_000))
	}

	env.assetA = env.newAddress()
	env.assetB = env.newAddress()
	require.NoError(t, env.proc.CreateMint(env.assetA, env.authority, 9, env.authority))
	require.NoError(t, env.proc.CreateMint(env.assetB, env.authority, 9, env.authority))

	require.NoError(t, env.proc.MintTo(env.assetA, env.maker, env.authority, depositAmount))
	require.NoError(t, env.proc.MintTo(env.assetB, env.taker, env.authority, receiveAmount))

	var err error
	env.record, _, err = env.proc.EscrowAddress(env.maker, tradeSeed)
	require.NoError(t, err)
	env.vault, err = env.proc.TokenAccountAddress(env.record, env.assetA)
	require.NoError(t, err)
	env.makerAssetA, err = env.proc.TokenAccountAddress(env.maker, env.assetA)
	require.NoError(t, err)
	env.makerAssetB, err = env.proc.TokenAccountAddress(env.maker, env.assetB)
	require.NoError(t, err)
	env.takerAssetA, err = env.proc.TokenAccountAddress(env.taker, env.assetA)
	require.NoError(t, err)
	env.takerAssetB, err = env.proc.TokenAccountAddress(env.taker, env.assetB)
	require.NoError(t, err)
	return env
}

func (env *procEnv) newAddress() types.Address {
	env.t.Helper()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(env.t, err)
	return key.Address()
}

func (env *procEnv) makeInstruction() types.Instruction {
	return types.Instruction{
		Accounts: []types.AccountMeta{
			{Address: env.maker, Signer: true, Writable: true},
			{Address: env.record, Writable: true},
			{Address: env.assetA},
			{Address: env.assetB},
			{Address: env.makerAssetA, Writable: true},
			{Address: env.vault, Writable: true},
		},
		Data: escrow.EncodeMakeData(escrow.MakeParams{
			Seed:          tradeSeed,
			ReceiveAmount: receiveAmount,
			DepositAmount: depositAmount,
		}),
	}
}

func (env *procEnv) takeInstruction() types.Instruction {
	return types.Instruction{
		Accounts: []types.AccountMeta{
			{Address: env.taker, Signer: true, Writable: true},
			{Address: env.maker, Writable: true},
			{Address: env.record, Writable: true},
			{Address: env.assetA},
			{Address: env.assetB},
			{Address: env.vault, Writable: true},
			{Address: env.takerAssetA, Writable: true},
			{Address: env.takerAssetB, Writable: true},
			{Address: env.makerAssetB, Writable: true},
		},
		Data: escrow.EncodeTakeData(),
	}
}

func (env *procEnv) refundInstruction() types.Instruction {
	return types.Instruction{
		Accounts: []types.AccountMeta{
			{Address: env.maker, Signer: true, Writable: true},
			{Address: env.record, Writable: true},
			{Address: env.assetA},
			{Address: env.vault, Writable: true},
			{Address: env.makerAssetA, Writable: true},
		},
		Data: escrow.EncodeRefundData(),
	}
}

func (env *procEnv) tokenBalance(addr types.Address) uint64 {
	env.t.Helper()
	acct, ok, err := env.proc.TokenAccount(addr)
	require.NoError(env.t, err)
	if !ok {
		return 0
	}
	return acct.Balance
}

func TestSubmitFullTradeLifecycle(t *testing.T) {
	env := newProcEnv(t)

	evts, err := env.proc.Submit(env.makeInstruction())
	require.NoError(t, err)
	require.Len(t, evts, 1)
	require.Equal(t, escrow.EventTypeTradeOpened, evts[0].Type)

	record, ok, err := env.proc.Record(env.record)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, receiveAmount, record.ReceiveAmount)
	require.Equal(t, depositAmount, env.tokenBalance(env.vault))

	evts, err = env.proc.Submit(env.takeInstruction())
	require.NoError(t, err)
	require.Len(t, evts, 1)
	require.Equal(t, escrow.EventTypeTradeTaken, evts[0].Type)

	require.Equal(t, depositAmount, env.tokenBalance(env.takerAssetA))
	require.Equal(t, receiveAmount, env.tokenBalance(env.makerAssetB))
	require.Zero(t, env.tokenBalance(env.takerAssetB))

	_, ok, err = env.proc.Record(env.record)
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = env.proc.TokenAccount(env.vault)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSubmitRefundLifecycle(t *testing.T) {
	env := newProcEnv(t)

	_, err := env.proc.Submit(env.makeInstruction())
	require.NoError(t, err)

	nativeBefore, err := env.proc.NativeBalance(env.maker)
	require.NoError(t, err)

	evts, err := env.proc.Submit(env.refundInstruction())
	require.NoError(t, err)
	require.Len(t, evts, 1)
	require.Equal(t, escrow.EventTypeTradeRefunded, evts[0].Type)

	require.Equal(t, depositAmount, env.tokenBalance(env.makerAssetA))
	nativeAfter, err := env.proc.NativeBalance(env.maker)
	require.NoError(t, err)
	require.Equal(t, nativeBefore+escrow.RecordDeposit+token.AccountDeposit, nativeAfter)
}

// A failed instruction must leave the database byte-for-byte untouched, even
// when the engine got partway through its work before failing.
func TestSubmitFailureLeavesNoPartialState(t *testing.T) {
	env := newProcEnv(t)

	_, err := env.proc.Submit(env.makeInstruction())
	require.NoError(t, err)

	makerNative, err := env.proc.NativeBalance(env.maker)
	require.NoError(t, err)

	// Wrong asset B: rejected after the record lookup succeeded.
	bad := env.takeInstruction()
	bad.Accounts[4].Address = env.assetA
	_, err = env.proc.Submit(bad)
	require.ErrorIs(t, err, escrow.ErrAssetMismatch)

	require.Equal(t, depositAmount, env.tokenBalance(env.vault))
	require.Equal(t, receiveAmount, env.tokenBalance(env.takerAssetB))
	record, ok, err := env.proc.Record(env.record)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, tradeSeed, record.Seed)

	nativeAfter, err := env.proc.NativeBalance(env.maker)
	require.NoError(t, err)
	require.Equal(t, makerNative, nativeAfter)
}

func TestSubmitSecondSettlementLoses(t *testing.T) {
	env := newProcEnv(t)

	_, err := env.proc.Submit(env.makeInstruction())
	require.NoError(t, err)

	_, err = env.proc.Submit(env.takeInstruction())
	require.NoError(t, err)

	_, err = env.proc.Submit(env.refundInstruction())
	require.ErrorIs(t, err, escrow.ErrRecordNotFound)
	_, err = env.proc.Submit(env.takeInstruction())
	require.ErrorIs(t, err, escrow.ErrRecordNotFound)
}

func TestSubmitRejectsMalformedInstruction(t *testing.T) {
	env := newProcEnv(t)

	_, err := env.proc.Submit(types.Instruction{Data: []byte{0xde, 0xad}})
	require.ErrorIs(t, err, escrow.ErrInstructionData)

	_, err = env.proc.Submit(types.Instruction{Data: make([]byte, escrow.TagLength)})
	require.ErrorIs(t, err, escrow.ErrUnknownInstruction)
}

func TestEscrowAddressIsDeterministic(t *testing.T) {
	env := newProcEnv(t)

	a1, bump1, err := env.proc.EscrowAddress(env.maker, tradeSeed)
	require.NoError(t, err)
	a2, bump2, err := env.proc.EscrowAddress(env.maker, tradeSeed)
	require.NoError(t, err)
	require.Equal(t, a1, a2)
	require.Equal(t, bump1, bump2)

	other, _, err := env.proc.EscrowAddress(env.maker, tradeSeed+1)
	require.NoError(t, err)
	require.NotEqual(t, a1, other)
}

type captureEmitter struct {
	types []string
}

func (c *captureEmitter) Emit(evt events.Event) {
	c.types = append(c.types, evt.EventType())
}

func TestEmitterReceivesCommittedEventsOnly(t *testing.T) {
	env := newProcEnv(t)
	capture := &captureEmitter{}
	env.proc.SetEmitter(capture)

	_, err := env.proc.Submit(env.makeInstruction())
	require.NoError(t, err)

	bad := env.refundInstruction()
	bad.Accounts[0].Address = env.taker
	_, err = env.proc.Submit(bad)
	require.ErrorIs(t, err, escrow.ErrUnauthorized)

	_, err = env.proc.Submit(env.takeInstruction())
	require.NoError(t, err)

	require.Equal(t, []string{escrow.EventTypeTradeOpened, escrow.EventTypeTradeTaken}, capture.types)
}
