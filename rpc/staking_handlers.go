package rpc

import (
	"net/http"

	"raritystake/native/raritystaking"
)

type tokenBatchParams struct {
	Caller   string   `json:"caller"`
	TokenIDs []uint64 `json:"tokenIds"`
}

type ownerParams struct {
	Owner string `json:"owner"`
}

type roundParams struct {
	Round uint64 `json:"round"`
}

type transferOwnershipParams struct {
	Caller   string `json:"caller"`
	NewOwner string `json:"newOwner"`
}

type eventsParams struct {
	Type  string `json:"type,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

type stakeResult struct {
	Staked []uint64 `json:"staked"`
}

type unstakeResult struct {
	Unstaked []uint64 `json:"unstaked"`
	Claimed  string   `json:"claimed"`
}

type claimResult struct {
	Claimed string `json:"claimed"`
}

type stakeInfoResult struct {
	TokenID     uint64 `json:"tokenId"`
	Staked      bool   `json:"staked"`
	Owner       string `json:"owner"`
	StakedAt    uint64 `json:"stakedAt"`
	LastClaimAt uint64 `json:"lastClaimAt"`
}

type pendingRewardsResult struct {
	TokenID uint64 `json:"tokenId"`
	Pending string `json:"pending"`
}

type raffleWinnerResult struct {
	TokenID uint64 `json:"tokenId"`
	Owner   string `json:"owner"`
	Prize   string `json:"prize"`
}

type raffleRoundResult struct {
	Round    uint64               `json:"round"`
	Seed     string               `json:"seed"`
	Entries  []uint64             `json:"entries"`
	Winners  []raffleWinnerResult `json:"winners"`
	RolledAt uint64               `json:"rolledAt"`
}

type statusResult struct {
	StateRoot   string `json:"stateRoot"`
	Sequence    uint64 `json:"sequence"`
	Now         int64  `json:"now"`
	Vault       string `json:"vault"`
	RewardToken string `json:"rewardToken"`
	RaffleToken string `json:"raffleToken"`
}

type eventResult struct {
	ID         string            `json:"id"`
	Position   int64             `json:"position"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
	CreatedAt  int64             `json:"createdAt"`
}

func raffleRoundFrom(round *raritystaking.RaffleRound) raffleRoundResult {
	winners := make([]raffleWinnerResult, len(round.Winners))
	for i, winner := range round.Winners {
		winners[i] = raffleWinnerResult{
			TokenID: winner.TokenID,
			Owner:   formatAddress(winner.Owner),
			Prize:   amountString(winner.Prize),
		}
	}
	entries := round.Entries
	if entries == nil {
		entries = []uint64{}
	}
	return raffleRoundResult{
		Round:    round.Round,
		Seed:     formatHash(round.Seed),
		Entries:  entries,
		Winners:  winners,
		RolledAt: round.RolledAt,
	}
}

func (s *Server) handleStakingStake(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params tokenBatchParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddress(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	if err := s.node.StakeTokens(caller, params.TokenIDs); err != nil {
		writeLedgerError(w, req, "failed to stake tokens", err)
		return
	}
	writeResult(w, req.ID, stakeResult{Staked: params.TokenIDs})
}

func (s *Server) handleStakingUnstake(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params tokenBatchParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddress(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	settled, err := s.node.UnstakeTokens(caller, params.TokenIDs)
	if err != nil {
		writeLedgerError(w, req, "failed to unstake tokens", err)
		return
	}
	writeResult(w, req.ID, unstakeResult{Unstaked: params.TokenIDs, Claimed: amountString(settled)})
}

func (s *Server) handleStakingClaim(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params tokenBatchParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddress(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	claimed, err := s.node.ClaimRewards(caller, params.TokenIDs)
	if err != nil {
		writeLedgerError(w, req, "failed to claim rewards", err)
		return
	}
	writeResult(w, req.ID, claimResult{Claimed: amountString(claimed)})
}

func (s *Server) handleStakingInfo(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params tokenIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	record, err := s.node.StakedInfo(params.TokenID)
	if err != nil {
		writeLedgerError(w, req, "failed to load stake", err)
		return
	}
	writeResult(w, req.ID, stakeInfoResult{
		TokenID:     params.TokenID,
		Staked:      record.Staked(),
		Owner:       formatAddress(record.Owner),
		StakedAt:    record.StakedAt,
		LastClaimAt: record.LastClaimAt,
	})
}

func (s *Server) handleStakingUserStaked(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params ownerParams
	if !decodeParams(w, req, &params) {
		return
	}
	owner, ok := decodeAddress(w, req, "owner", params.Owner)
	if !ok {
		return
	}
	ids, err := s.node.UserStaked(owner)
	if err != nil {
		writeLedgerError(w, req, "failed to load staked tokens", err)
		return
	}
	if ids == nil {
		ids = []uint64{}
	}
	writeResult(w, req.ID, ids)
}

func (s *Server) handleStakingGetRewards(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params tokenIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	pending, err := s.node.PendingRewards(params.TokenID)
	if err != nil {
		writeLedgerError(w, req, "failed to compute rewards", err)
		return
	}
	writeResult(w, req.ID, pendingRewardsResult{TokenID: params.TokenID, Pending: amountString(pending)})
}

func (s *Server) handleStakingRaffleRoll(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params tokenBatchParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddress(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	round, err := s.node.RaffleRoll(caller, params.TokenIDs)
	if err != nil {
		writeLedgerError(w, req, "failed to roll raffle", err)
		return
	}
	writeResult(w, req.ID, raffleRoundFrom(round))
}

func (s *Server) handleStakingRaffleResult(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params roundParams
	if !decodeParams(w, req, &params) {
		return
	}
	round, err := s.node.RaffleResult(params.Round)
	if err != nil {
		writeLedgerError(w, req, "failed to load raffle round", err)
		return
	}
	writeResult(w, req.ID, raffleRoundFrom(round))
}

func (s *Server) handleStakingOwner(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	owner, err := s.node.Owner()
	if err != nil {
		writeLedgerError(w, req, "failed to load owner", err)
		return
	}
	writeResult(w, req.ID, map[string]string{"owner": formatAddress(owner)})
}

func (s *Server) handleStakingTransferOwnership(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params transferOwnershipParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddress(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	newOwner, ok := decodeAddress(w, req, "newOwner", params.NewOwner)
	if !ok {
		return
	}
	if err := s.node.TransferOwnership(caller, newOwner); err != nil {
		writeLedgerError(w, req, "failed to transfer ownership", err)
		return
	}
	writeResult(w, req.ID, map[string]string{"owner": formatAddress(newOwner)})
}

func (s *Server) handleStakingStatus(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	params := s.node.Params()
	writeResult(w, req.ID, statusResult{
		StateRoot:   s.node.StateRoot().Hex(),
		Sequence:    s.node.Sequence(),
		Now:         s.node.Now(),
		Vault:       formatAddress(s.node.Vault()),
		RewardToken: params.RewardToken,
		RaffleToken: params.RaffleToken,
	})
}

func (s *Server) handleStakingEvents(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, req.ID, codeServerError, "event journal not configured", nil)
		return
	}
	var params eventsParams
	if len(req.Params) > 0 && !decodeParams(w, req, &params) {
		return
	}
	if params.Limit < 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "limit must not be negative", nil)
		return
	}
	entries, err := s.journal.List(r.Context(), params.Type, params.Limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to list events", err.Error())
		return
	}
	result := make([]eventResult, 0, len(entries))
	for _, entry := range entries {
		attrs, err := entry.Decoded()
		if err != nil {
			writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "corrupt journal entry", err.Error())
			return
		}
		result = append(result, eventResult{
			ID:         entry.ID.String(),
			Position:   entry.Position,
			Type:       entry.Type,
			Attributes: attrs,
			CreatedAt:  entry.CreatedAt.Unix(),
		})
	}
	writeResult(w, req.ID, result)
}
