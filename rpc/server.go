package rpc

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"swapvault/core"
	"swapvault/core/types"
	"swapvault/observability"
)

// Server exposes the instruction processor over HTTP.
type Server struct {
	processor *core.Processor
	logger    *slog.Logger
	faucet    bool
	metrics   *observability.InstructionMetrics
}

// NewServer wires a processor into the HTTP surface. enableFaucet exposes the
// dev-only mint and airdrop endpoints.
func NewServer(processor *core.Processor, logger *slog.Logger, enableFaucet bool) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		processor: processor,
		logger:    logger,
		faucet:    enableFaucet,
		metrics:   observability.Instructions(),
	}
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/instructions", s.handleSubmitInstruction)
		r.Get("/escrows/{address}", s.handleGetEscrow)
		r.Get("/accounts/{address}", s.handleGetTokenAccount)
		r.Get("/balances/{address}", s.handleGetNativeBalance)
		if s.faucet {
			r.Post("/dev/mints", s.handleCreateMint)
			r.Post("/dev/mint-to", s.handleMintTo)
			r.Post("/dev/airdrop", s.handleAirdrop)
		}
	})
	return r
}

type instructionResult struct {
	Events []*types.Event `json:"events"`
}

func (s *Server) handleSubmitInstruction(w http.ResponseWriter, r *http.Request) {
	var ins types.Instruction
	if err := json.NewDecoder(r.Body).Decode(&ins); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	op := operationName(ins)
	start := time.Now()
	events, err := s.processor.Submit(ins)
	s.metrics.Observe(op, start, err, errorCode(err))
	if err != nil {
		status, code := mapError(err)
		s.logger.Info("instruction rejected",
			slog.String("operation", op),
			slog.String("code", code),
			slog.String("error", err.Error()))
		writeError(w, status, code, err.Error())
		return
	}
	s.logger.Info("instruction committed",
		slog.String("operation", op),
		slog.Int("events", len(events)))
	writeJSON(w, http.StatusOK, instructionResult{Events: events})
}

type escrowJSON struct {
	Address       string `json:"address"`
	Seed          uint64 `json:"seed"`
	Maker         string `json:"maker"`
	AssetA        string `json:"assetA"`
	AssetB        string `json:"assetB"`
	ReceiveAmount uint64 `json:"receiveAmount"`
	Bump          uint8  `json:"bump"`
}

func (s *Server) handleGetEscrow(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddressParam(w, r, "address")
	if !ok {
		return
	}
	record, exists, err := s.processor.Record(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "record_not_found", "no open trade at address")
		return
	}
	writeJSON(w, http.StatusOK, escrowJSON{
		Address:       addr.String(),
		Seed:          record.Seed,
		Maker:         record.Maker.String(),
		AssetA:        record.AssetA.String(),
		AssetB:        record.AssetB.String(),
		ReceiveAmount: record.ReceiveAmount,
		Bump:          record.Bump,
	})
}

type tokenAccountJSON struct {
	Address string `json:"address"`
	Mint    string `json:"mint"`
	Owner   string `json:"owner"`
	Balance uint64 `json:"balance"`
}

func (s *Server) handleGetTokenAccount(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddressParam(w, r, "address")
	if !ok {
		return
	}
	acct, exists, err := s.processor.TokenAccount(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "account_not_found", "no token account at address")
		return
	}
	writeJSON(w, http.StatusOK, tokenAccountJSON{
		Address: acct.Address.String(),
		Mint:    acct.Mint.String(),
		Owner:   acct.Owner.String(),
		Balance: acct.Balance,
	})
}

func (s *Server) handleGetNativeBalance(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddressParam(w, r, "address")
	if !ok {
		return
	}
	balance, err := s.processor.NativeBalance(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address": addr.String(),
		"balance": balance,
	})
}

type createMintParams struct {
	Mint      types.Address `json:"mint"`
	Authority types.Address `json:"authority"`
	Decimals  uint8         `json:"decimals"`
	Payer     types.Address `json:"payer"`
}

func (s *Server) handleCreateMint(w http.ResponseWriter, r *http.Request) {
	var params createMintParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := s.processor.CreateMint(params.Mint, params.Authority, params.Decimals, params.Payer); err != nil {
		status, code := mapError(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mint": params.Mint.String()})
}

type mintToParams struct {
	Mint      types.Address `json:"mint"`
	Owner     types.Address `json:"owner"`
	Authority types.Address `json:"authority"`
	Amount    uint64        `json:"amount"`
}

func (s *Server) handleMintTo(w http.ResponseWriter, r *http.Request) {
	var params mintToParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := s.processor.MintTo(params.Mint, params.Owner, params.Authority, params.Amount); err != nil {
		status, code := mapError(err)
		writeError(w, status, code, err.Error())
		return
	}
	acctAddr, err := s.processor.TokenAccountAddress(params.Owner, params.Mint)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"account": acctAddr.String()})
}

type airdropParams struct {
	Address types.Address `json:"address"`
	Amount  uint64        `json:"amount"`
}

func (s *Server) handleAirdrop(w http.ResponseWriter, r *http.Request) {
	var params airdropParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := s.processor.Airdrop(params.Address, params.Amount); err != nil {
		status, code := mapError(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"address": params.Address.String()})
}

func parseAddressParam(w http.ResponseWriter, r *http.Request, name string) (types.Address, bool) {
	addr, err := types.ParseAddress(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_address", err.Error())
		return types.Address{}, false
	}
	return addr, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Code: code, Message: message})
}
