package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"raritystake/core"
	"raritystake/crypto"
	"raritystake/native/nft"
	"raritystake/native/raritystaking"
	"raritystake/native/token"
)

// decodeParams unmarshals the single parameter object of req into dst.
func decodeParams(w http.ResponseWriter, req *RPCRequest, dst interface{}) bool {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return false
	}
	if err := json.Unmarshal(req.Params[0], dst); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return false
	}
	return true
}

func decodeBech32(addr string) ([20]byte, error) {
	return crypto.ParseAddress(strings.TrimSpace(addr))
}

// decodeAddress resolves a bech32 parameter, writing the error response on failure.
func decodeAddress(w http.ResponseWriter, req *RPCRequest, field, value string) ([20]byte, bool) {
	addr, err := decodeBech32(value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, fmt.Sprintf("invalid %s address", field), err.Error())
		return addr, false
	}
	return addr, true
}

func parseAmount(amount string) (*big.Int, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return nil, fmt.Errorf("amount is required")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount")
	}
	if value.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return value, nil
}

func parseHash(value string) ([32]byte, error) {
	var out [32]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return out, fmt.Errorf("invalid hex: %w", err)
	}
	if len(raw) != len(out) {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

func formatHash(h [32]byte) string {
	return "0x" + hex.EncodeToString(h[:])
}

func formatAddress(addr [20]byte) string {
	if addr == ([20]byte{}) {
		return ""
	}
	return crypto.FormatAddress(addr)
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

var unauthorizedErrors = []error{
	raritystaking.ErrNotContractOwner,
	raritystaking.ErrNotStakeOwner,
	nft.ErrNotOwner,
	nft.ErrNotApproved,
	nft.ErrNotMinter,
	token.ErrNotMintAuthority,
	core.ErrModuleAccount,
}

// writeLedgerError maps a rejected ledger call onto a JSON-RPC error.
func writeLedgerError(w http.ResponseWriter, req *RPCRequest, message string, err error) {
	for _, target := range unauthorizedErrors {
		if errors.Is(err, target) {
			writeError(w, http.StatusForbidden, req.ID, codeUnauthorized, message, err.Error())
			return
		}
	}
	if errors.Is(err, core.ErrDevModeDisabled) {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, message, err.Error())
}
