package rpc

import (
	"net/http"
)

type increaseTimeParams struct {
	Seconds int64 `json:"seconds"`
}

type increaseTimeResult struct {
	Offset int64 `json:"offset"`
	Now    int64 `json:"now"`
}

// handleDevIncreaseTime shifts the ledger clock forward. The node refuses it
// unless dev mode is enabled.
func (s *Server) handleDevIncreaseTime(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params increaseTimeParams
	if !decodeParams(w, req, &params) {
		return
	}
	if params.Seconds <= 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "seconds must be positive", nil)
		return
	}
	offset, err := s.node.AdvanceClock(params.Seconds)
	if err != nil {
		writeLedgerError(w, req, "failed to advance clock", err)
		return
	}
	writeResult(w, req.ID, increaseTimeResult{Offset: offset, Now: s.node.Now()})
}
