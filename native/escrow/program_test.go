package escrow_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"swapvault/core/types"
	"swapvault/native/escrow"
)

// Wire tags are fixed by the hash of the operation name and must never drift.
func TestOperationTagsAreStable(t *testing.T) {
	require.Equal(t, "8ae3e84ddfa660c5", hex.EncodeToString(escrow.TagMake[:]))
	require.Equal(t, escrow.OperationTag("take"), escrow.TagTake)
	require.Equal(t, escrow.OperationTag("refund"), escrow.TagRefund)
	require.NotEqual(t, escrow.TagMake, escrow.TagTake)
	require.NotEqual(t, escrow.TagTake, escrow.TagRefund)
}

func signerMeta(addr types.Address) types.AccountMeta {
	return types.AccountMeta{Address: addr, Signer: true, Writable: true}
}

func writableMeta(addr types.Address) types.AccountMeta {
	return types.AccountMeta{Address: addr, Writable: true}
}

func (env *tradeEnv) makeInstruction() types.Instruction {
	a := env.makeAccounts()
	return types.Instruction{
		Accounts: []types.AccountMeta{
			signerMeta(a.Maker),
			writableMeta(a.Record),
			{Address: a.AssetA},
			{Address: a.AssetB},
			writableMeta(a.MakerAssetA),
			writableMeta(a.Vault),
		},
		Data: escrow.EncodeMakeData(escrow.MakeParams{
			Seed:          tradeSeed,
			ReceiveAmount: receiveAmount,
			DepositAmount: depositAmount,
		}),
	}
}

func (env *tradeEnv) takeInstruction() types.Instruction {
	a := env.takeAccounts()
	return types.Instruction{
		Accounts: []types.AccountMeta{
			signerMeta(a.Taker),
			writableMeta(a.Maker),
			writableMeta(a.Record),
			{Address: a.AssetA},
			{Address: a.AssetB},
			writableMeta(a.Vault),
			writableMeta(a.TakerAssetA),
			writableMeta(a.TakerAssetB),
			writableMeta(a.MakerAssetB),
		},
		Data: escrow.EncodeTakeData(),
	}
}

func (env *tradeEnv) refundInstruction() types.Instruction {
	a := env.refundAccounts()
	return types.Instruction{
		Accounts: []types.AccountMeta{
			signerMeta(a.Maker),
			writableMeta(a.Record),
			{Address: a.AssetA},
			writableMeta(a.Vault),
			writableMeta(a.MakerAssetA),
		},
		Data: escrow.EncodeRefundData(),
	}
}

func TestProgramExecutesFullTrade(t *testing.T) {
	env := newTradeEnv(t)
	program := escrow.NewProgram(env.engine)

	require.NoError(t, program.Execute(env.makeInstruction()))
	require.NoError(t, program.Execute(env.takeInstruction()))

	require.Equal(t, depositAmount, env.balance(env.takerAssetA))
	require.Equal(t, receiveAmount, env.balance(env.makerAssetB))
	env.requireClosed()
}

func TestProgramExecutesRefund(t *testing.T) {
	env := newTradeEnv(t)
	program := escrow.NewProgram(env.engine)

	require.NoError(t, program.Execute(env.makeInstruction()))
	require.NoError(t, program.Execute(env.refundInstruction()))

	require.Equal(t, depositAmount, env.balance(env.makerAssetA))
	env.requireClosed()
}

func TestProgramRejectsUnknownTag(t *testing.T) {
	env := newTradeEnv(t)
	program := escrow.NewProgram(env.engine)

	ins := env.makeInstruction()
	bogus := escrow.OperationTag("cancel")
	copy(ins.Data[:escrow.TagLength], bogus[:])

	require.ErrorIs(t, program.Execute(ins), escrow.ErrUnknownInstruction)
}

func TestProgramRejectsShortData(t *testing.T) {
	env := newTradeEnv(t)
	program := escrow.NewProgram(env.engine)

	require.ErrorIs(t, program.Execute(types.Instruction{Data: []byte{0x01, 0x02}}), escrow.ErrInstructionData)

	ins := env.makeInstruction()
	ins.Data = ins.Data[:escrow.TagLength+8]
	require.ErrorIs(t, program.Execute(ins), escrow.ErrInstructionData)

	take := env.takeInstruction()
	take.Data = append(take.Data, 0x00)
	require.ErrorIs(t, program.Execute(take), escrow.ErrInstructionData)
}

func TestProgramRejectsMissingSigner(t *testing.T) {
	env := newTradeEnv(t)
	program := escrow.NewProgram(env.engine)

	ins := env.makeInstruction()
	ins.Accounts[0].Signer = false
	require.ErrorIs(t, program.Execute(ins), escrow.ErrMissingSigner)
}

func TestProgramRejectsMissingAccounts(t *testing.T) {
	env := newTradeEnv(t)
	program := escrow.NewProgram(env.engine)

	ins := env.makeInstruction()
	ins.Accounts = ins.Accounts[:4]
	require.ErrorIs(t, program.Execute(ins), escrow.ErrMissingAccounts)
}

func TestProgramToleratesTrailingAccounts(t *testing.T) {
	env := newTradeEnv(t)
	program := escrow.NewProgram(env.engine)

	ins := env.makeInstruction()
	ins.Accounts = append(ins.Accounts, types.AccountMeta{Address: env.newAddress()})
	require.NoError(t, program.Execute(ins))
}

func TestEncodeMakeDataLayout(t *testing.T) {
	data := escrow.EncodeMakeData(escrow.MakeParams{Seed: 1, ReceiveAmount: 2, DepositAmount: 3})
	require.Len(t, data, escrow.TagLength+24)
	require.Equal(t, escrow.TagMake[:], data[:escrow.TagLength])
	// Little-endian u64 arguments in declaration order.
	require.Equal(t, byte(1), data[escrow.TagLength])
	require.Equal(t, byte(2), data[escrow.TagLength+8])
	require.Equal(t, byte(3), data[escrow.TagLength+16])
}
