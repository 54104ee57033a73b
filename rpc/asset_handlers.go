package rpc

import (
	"net/http"

	"raritystake/native/token"
)

type nftMintParams struct {
	Caller string `json:"caller"`
	To     string `json:"to"`
	Count  uint64 `json:"count"`
}

type nftApprovalParams struct {
	Caller   string `json:"caller"`
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

type nftTransferParams struct {
	Caller  string `json:"caller"`
	From    string `json:"from"`
	To      string `json:"to"`
	TokenID uint64 `json:"tokenId"`
}

type tokenAmountParams struct {
	Caller string `json:"caller"`
	Symbol string `json:"symbol"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type tokenBalanceParams struct {
	Symbol  string `json:"symbol"`
	Address string `json:"address"`
}

type nftMintResult struct {
	First uint64 `json:"first"`
	Last  uint64 `json:"last"`
}

type balanceResult struct {
	Symbol  string `json:"symbol"`
	Address string `json:"address"`
	Balance string `json:"balance"`
}

func (s *Server) handleNFTMint(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params nftMintParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddress(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	to, ok := decodeAddress(w, req, "recipient", params.To)
	if !ok {
		return
	}
	first, last, err := s.node.NFTMint(caller, to, params.Count)
	if err != nil {
		writeLedgerError(w, req, "failed to mint tokens", err)
		return
	}
	writeResult(w, req.ID, nftMintResult{First: first, Last: last})
}

func (s *Server) handleNFTSetApprovalForAll(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params nftApprovalParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddress(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	operator, ok := decodeAddress(w, req, "operator", params.Operator)
	if !ok {
		return
	}
	if err := s.node.NFTSetApprovalForAll(caller, operator, params.Approved); err != nil {
		writeLedgerError(w, req, "failed to set approval", err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"approved": params.Approved})
}

func (s *Server) handleNFTTransferFrom(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params nftTransferParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddress(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	from, ok := decodeAddress(w, req, "from", params.From)
	if !ok {
		return
	}
	to, ok := decodeAddress(w, req, "recipient", params.To)
	if !ok {
		return
	}
	if err := s.node.NFTTransferFrom(caller, from, to, params.TokenID); err != nil {
		writeLedgerError(w, req, "failed to transfer token", err)
		return
	}
	writeResult(w, req.ID, map[string]string{"owner": formatAddress(to)})
}

func (s *Server) handleNFTOwnerOf(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params tokenIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	owner, err := s.node.NFTOwnerOf(params.TokenID)
	if err != nil {
		writeLedgerError(w, req, "failed to load token owner", err)
		return
	}
	writeResult(w, req.ID, map[string]string{"owner": formatAddress(owner)})
}

func (s *Server) handleNFTBalanceOf(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params ownerParams
	if !decodeParams(w, req, &params) {
		return
	}
	owner, ok := decodeAddress(w, req, "owner", params.Owner)
	if !ok {
		return
	}
	count, err := s.node.NFTBalanceOf(owner)
	if err != nil {
		writeLedgerError(w, req, "failed to load token balance", err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"balance": count})
}

func (s *Server) handleTokenMint(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params tokenAmountParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddress(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	to, ok := decodeAddress(w, req, "recipient", params.To)
	if !ok {
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.node.TokenMint(caller, params.Symbol, to, amount)
	if err != nil {
		writeLedgerError(w, req, "failed to mint", err)
		return
	}
	writeResult(w, req.ID, balanceResult{
		Symbol:  token.NormalizeSymbol(params.Symbol),
		Address: formatAddress(to),
		Balance: amountString(balance),
	})
}

func (s *Server) handleTokenTransfer(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params tokenAmountParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddress(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	to, ok := decodeAddress(w, req, "recipient", params.To)
	if !ok {
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.node.TokenTransfer(caller, params.Symbol, to, amount)
	if err != nil {
		writeLedgerError(w, req, "failed to transfer", err)
		return
	}
	writeResult(w, req.ID, balanceResult{
		Symbol:  token.NormalizeSymbol(params.Symbol),
		Address: formatAddress(caller),
		Balance: amountString(balance),
	})
}

func (s *Server) handleTokenBalance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params tokenBalanceParams
	if !decodeParams(w, req, &params) {
		return
	}
	addr, ok := decodeAddress(w, req, "account", params.Address)
	if !ok {
		return
	}
	balance, err := s.node.TokenBalance(params.Symbol, addr)
	if err != nil {
		writeLedgerError(w, req, "failed to load balance", err)
		return
	}
	writeResult(w, req.ID, balanceResult{
		Symbol:  token.NormalizeSymbol(params.Symbol),
		Address: formatAddress(addr),
		Balance: amountString(balance),
	})
}

func (s *Server) handleTokenList(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	symbols, err := s.node.TokenList()
	if err != nil {
		writeLedgerError(w, req, "failed to list tokens", err)
		return
	}
	if symbols == nil {
		symbols = []string{}
	}
	writeResult(w, req.ID, symbols)
}
