package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"swapvault/core"
	"swapvault/core/types"
	"swapvault/crypto"
	"swapvault/native/escrow"
	"swapvault/native/token"
	"swapvault/storage"
)

type serverEnv struct {
	t      *testing.T
	proc   *core.Processor
	server *httptest.Server

	maker  types.Address
	taker  types.Address
	assetA types.Address
	assetB types.Address
	record types.Address
	vault  types.Address
}

func newServerEnv(t *testing.T, faucet bool) *serverEnv {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)

	proc := core.NewProcessor(db, "swapvault-test")
	srv := httptest.NewServer(NewServer(proc, nil, faucet).Router())
	t.Cleanup(srv.Close)

	env := &serverEnv{t: t, proc: proc, server: srv}
	env.maker = newAddress(t)
	env.taker = newAddress(t)
	env.assetA = newAddress(t)
	env.assetB = newAddress(t)

	authority := newAddress(t)
	for _, addr := range []types.Address{env.maker, env.taker, authority} {
		require.NoError(t, proc.Airdrop(addr, 10_000_000_000))
	}
	require.NoError(t, proc.CreateMint(env.assetA, authority, 9, authority))
	require.NoError(t, proc.CreateMint(env.assetB, authority, 9, authority))
	require.NoError(t, proc.MintTo(env.assetA, env.maker, authority, 1_000_000_000))
	require.NoError(t, proc.MintTo(env.assetB, env.taker, authority, 500_000_000))

	var err error
	env.record, _, err = proc.EscrowAddress(env.maker, 42)
	require.NoError(t, err)
	env.vault, err = proc.TokenAccountAddress(env.record, env.assetA)
	require.NoError(t, err)
	return env
}

func newAddress(t *testing.T) types.Address {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	return key.Address()
}

func (env *serverEnv) post(path string, body any) *http.Response {
	env.t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(env.t, err)
	resp, err := http.Post(env.server.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(env.t, err)
	env.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (env *serverEnv) get(path string) *http.Response {
	env.t.Helper()
	resp, err := http.Get(env.server.URL + path)
	require.NoError(env.t, err)
	env.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (env *serverEnv) makeInstruction() types.Instruction {
	makerAssetA, err := env.proc.TokenAccountAddress(env.maker, env.assetA)
	require.NoError(env.t, err)
	return types.Instruction{
		Accounts: []types.AccountMeta{
			{Address: env.maker, Signer: true, Writable: true},
			{Address: env.record, Writable: true},
			{Address: env.assetA},
			{Address: env.assetB},
			{Address: makerAssetA, Writable: true},
			{Address: env.vault, Writable: true},
		},
		Data: escrow.EncodeMakeData(escrow.MakeParams{
			Seed:          42,
			ReceiveAmount: 500_000_000,
			DepositAmount: 1_000_000_000,
		}),
	}
}

func TestHealthz(t *testing.T) {
	env := newServerEnv(t, false)
	resp := env.get("/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSubmitInstructionEndpoint(t *testing.T) {
	env := newServerEnv(t, false)

	resp := env.post("/v1/instructions", env.makeInstruction())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeBody[instructionResult](t, resp)
	require.Len(t, result.Events, 1)
	require.Equal(t, escrow.EventTypeTradeOpened, result.Events[0].Type)

	// The trade is now queryable.
	resp = env.get("/v1/escrows/" + env.record.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	record := decodeBody[escrowJSON](t, resp)
	require.Equal(t, uint64(42), record.Seed)
	require.Equal(t, env.maker.String(), record.Maker)

	resp = env.get("/v1/accounts/" + env.vault.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	vault := decodeBody[tokenAccountJSON](t, resp)
	require.Equal(t, uint64(1_000_000_000), vault.Balance)
	require.Equal(t, env.record.String(), vault.Owner)
}

func TestSubmitInstructionErrorMapping(t *testing.T) {
	env := newServerEnv(t, false)

	ins := env.makeInstruction()
	require.Equal(t, http.StatusOK, env.post("/v1/instructions", ins).StatusCode)

	// Same seed again conflicts.
	resp := env.post("/v1/instructions", ins)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decodeBody[errorBody](t, resp)
	require.Equal(t, "duplicate_trade", body.Code)
}

func TestGetEscrowNotFound(t *testing.T) {
	env := newServerEnv(t, false)
	resp := env.get("/v1/escrows/" + env.record.String())
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "record_not_found", decodeBody[errorBody](t, resp).Code)
}

func TestGetEscrowBadAddress(t *testing.T) {
	env := newServerEnv(t, false)
	resp := env.get("/v1/escrows/not-base58-0OIl")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNativeBalanceEndpoint(t *testing.T) {
	env := newServerEnv(t, false)
	resp := env.get("/v1/balances/" + env.maker.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[map[string]any](t, resp)
	require.Equal(t, env.maker.String(), body["address"])
}

func TestFaucetDisabledByDefault(t *testing.T) {
	env := newServerEnv(t, false)
	resp := env.post("/v1/dev/airdrop", airdropParams{Address: env.maker, Amount: 1})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFaucetEndpoints(t *testing.T) {
	env := newServerEnv(t, true)

	resp := env.post("/v1/dev/airdrop", airdropParams{Address: env.maker, Amount: 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	authority := newAddress(t)
	require.NoError(t, env.proc.Airdrop(authority, 10_000_000_000))
	mint := newAddress(t)
	resp = env.post("/v1/dev/mints", createMintParams{Mint: mint, Authority: authority, Decimals: 6, Payer: authority})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.post("/v1/dev/mint-to", mintToParams{Mint: mint, Owner: env.maker, Authority: authority, Amount: 10})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeBody[map[string]string](t, resp)

	acct, ok, err := env.proc.TokenAccount(mustParseAddress(t, out["account"]))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(10), acct.Balance)
}

func mustParseAddress(t *testing.T, s string) types.Address {
	t.Helper()
	addr, err := types.ParseAddress(s)
	require.NoError(t, err)
	return addr
}

func TestMapErrorTaxonomy(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{escrow.ErrRecordNotFound, http.StatusNotFound, "record_not_found"},
		{escrow.ErrDuplicateTrade, http.StatusConflict, "duplicate_trade"},
		{escrow.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
		{escrow.ErrAddressMismatch, http.StatusBadRequest, "address_mismatch"},
		{escrow.ErrAssetMismatch, http.StatusBadRequest, "asset_mismatch"},
		{token.ErrInsufficientFunds, http.StatusUnprocessableEntity, "insufficient_funds"},
		{token.ErrOverflow, http.StatusBadRequest, "overflow"},
	}
	for _, tc := range cases {
		status, code := mapError(tc.err)
		require.Equal(t, tc.status, status, tc.code)
		require.Equal(t, tc.code, code, tc.code)
	}
	status, code := mapError(errors.New("boom"))
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, "internal", code)
}
