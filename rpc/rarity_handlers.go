package rpc

import (
	"fmt"
	"net/http"

	"raritystake/native/raritystaking"
)

type rarityEntryParam struct {
	TokenID uint64   `json:"tokenId"`
	Score   uint64   `json:"score"`
	Proof   []string `json:"proof,omitempty"`
}

type rarityInitializeParams struct {
	Caller  string             `json:"caller"`
	Entries []rarityEntryParam `json:"entries"`
}

type raritySetRootParams struct {
	Caller string `json:"caller"`
	Root   string `json:"root"`
}

type tokenIDParams struct {
	TokenID uint64 `json:"tokenId"`
}

type rarityInitializeResult struct {
	Initialized int `json:"initialized"`
}

type rarityResult struct {
	TokenID uint64 `json:"tokenId"`
	Score   uint64 `json:"score"`
}

func (s *Server) handleRarityInitialize(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params rarityInitializeParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddress(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	entries := make([]raritystaking.RarityEntry, len(params.Entries))
	for i, entry := range params.Entries {
		proof := make([][32]byte, len(entry.Proof))
		for j, node := range entry.Proof {
			hash, err := parseHash(node)
			if err != nil {
				writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams,
					fmt.Sprintf("invalid proof for token %d", entry.TokenID), err.Error())
				return
			}
			proof[j] = hash
		}
		entries[i] = raritystaking.RarityEntry{TokenID: entry.TokenID, Score: entry.Score, Proof: proof}
	}
	if err := s.node.InitializeRarity(caller, entries); err != nil {
		writeLedgerError(w, req, "failed to initialize rarity", err)
		return
	}
	writeResult(w, req.ID, rarityInitializeResult{Initialized: len(entries)})
}

func (s *Server) handleRaritySetRoot(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params raritySetRootParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddress(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	root, err := parseHash(params.Root)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid root", err.Error())
		return
	}
	if err := s.node.SetRarityRoot(caller, root); err != nil {
		writeLedgerError(w, req, "failed to set rarity root", err)
		return
	}
	writeResult(w, req.ID, map[string]string{"root": formatHash(root)})
}

func (s *Server) handleRarityGet(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params tokenIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	score, err := s.node.TokenRarity(params.TokenID)
	if err != nil {
		writeLedgerError(w, req, "failed to load rarity", err)
		return
	}
	writeResult(w, req.ID, rarityResult{TokenID: params.TokenID, Score: score})
}
