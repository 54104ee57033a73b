package raritystaking

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"raritystake/core/events"
	"raritystake/crypto"
)

var errNilState = errors.New("raritystaking engine: state not configured")

// VaultModuleName names the module account holding staked NFTs and reward pools.
const VaultModuleName = "raritystaking"

type engineState interface {
	RarityLedgerGet() (*Ledger, bool, error)
	RarityLedgerPut(ledger *Ledger) error
	TokenRarityGet(tokenID uint64) (*TokenRarity, bool, error)
	TokenRarityPut(rarity *TokenRarity) error
	StakeRecordGet(tokenID uint64) (*StakeRecord, bool, error)
	StakeRecordPut(record *StakeRecord) error
	StakeRecordDelete(tokenID uint64) error
	UserStakedGet(owner [20]byte) ([]uint64, error)
	UserStakedPut(owner [20]byte, tokenIDs []uint64) error
	RaffleRoundGet(round uint64) (*RaffleRound, bool, error)
	RaffleRoundPut(round *RaffleRound) error
}

// Custody is the NFT collection the ledger takes custody from.
type Custody interface {
	OwnerOf(tokenID uint64) ([20]byte, error)
	TransferFrom(operator, from, to [20]byte, tokenID uint64) error
}

// Treasury holds the fungible reward and raffle pools.
type Treasury interface {
	BalanceOf(symbol string, addr [20]byte) (*big.Int, error)
	Transfer(symbol string, from, to [20]byte, amount *big.Int) error
}

// Engine implements the rarity staking ledger: the rarity table, stake
// bookkeeping, reward accrual and raffle rounds.
type Engine struct {
	state    engineState
	custody  Custody
	treasury Treasury
	emitter  events.Emitter
	nowFn    func() int64
	curve    RewardCurve
	selector Selector
	params   Params
	vault    [20]byte
}

// NewEngine constructs an engine with the default reward curve, weighted raffle
// selector and parameters. State and collaborators must be configured before use.
func NewEngine() *Engine {
	return &Engine{
		emitter:  events.NoopEmitter{},
		nowFn:    func() int64 { return time.Now().Unix() },
		curve:    DefaultRewardCurve(),
		selector: WeightedSelector{},
		params:   DefaultParams(),
		vault:    crypto.ModuleAddress(VaultModuleName),
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetCustody configures the NFT collection collaborator.
func (e *Engine) SetCustody(custody Custody) { e.custody = custody }

// SetTreasury configures the fungible token collaborator.
func (e *Engine) SetTreasury(treasury Treasury) { e.treasury = treasury }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetRewardCurve swaps the reward strategy. A nil curve restores the default.
func (e *Engine) SetRewardCurve(curve RewardCurve) {
	if curve == nil {
		curve = DefaultRewardCurve()
	}
	e.curve = curve
}

// SetSelector swaps the raffle strategy. A nil selector restores the default.
func (e *Engine) SetSelector(selector Selector) {
	if selector == nil {
		selector = WeightedSelector{}
	}
	e.selector = selector
}

// SetParams replaces the ledger parameters after validating them.
func (e *Engine) SetParams(params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	e.params = params
	return nil
}

// Params returns the active parameters.
func (e *Engine) Params() Params { return e.params }

// SetVault overrides the custody account. Mainly useful in tests.
func (e *Engine) SetVault(addr [20]byte) { e.vault = addr }

// Vault returns the account that holds staked tokens and the reward pools.
func (e *Engine) Vault() [20]byte { return e.vault }

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() uint64 {
	var ts int64
	if e == nil || e.nowFn == nil {
		ts = time.Now().Unix()
	} else {
		ts = e.nowFn()
	}
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.custody == nil {
		return errors.New("raritystaking engine: custody not configured")
	}
	if e.treasury == nil {
		return errors.New("raritystaking engine: treasury not configured")
	}
	return nil
}

func (e *Engine) ledger() (*Ledger, error) {
	ledger, ok, err := e.state.RarityLedgerGet()
	if err != nil {
		return nil, err
	}
	if !ok || ledger == nil {
		return nil, ErrLedgerNotInitialized
	}
	return ledger, nil
}

func (e *Engine) requireOwner(caller [20]byte) (*Ledger, error) {
	ledger, err := e.ledger()
	if err != nil {
		return nil, err
	}
	if caller != ledger.Owner {
		return nil, ErrNotContractOwner
	}
	return ledger, nil
}

func (e *Engine) checkBatch(tokenIDs []uint64) error {
	if len(tokenIDs) == 0 {
		return ErrEmptyBatch
	}
	if len(tokenIDs) > e.params.MaxBatch {
		return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(tokenIDs), e.params.MaxBatch)
	}
	seen := make(map[uint64]struct{}, len(tokenIDs))
	for _, id := range tokenIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateToken, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Initialize creates the ledger singleton with the given contract owner.
func (e *Engine) Initialize(owner [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if owner == ([20]byte{}) {
		return ErrZeroAddress
	}
	if _, ok, err := e.state.RarityLedgerGet(); err != nil {
		return err
	} else if ok {
		return ErrLedgerInitialized
	}
	return e.state.RarityLedgerPut(&Ledger{Owner: owner})
}

// Owner returns the contract owner.
func (e *Engine) Owner() ([20]byte, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, errNilState
	}
	ledger, err := e.ledger()
	if err != nil {
		return [20]byte{}, err
	}
	return ledger.Owner, nil
}

// TransferOwnership hands the contract owner role to newOwner.
func (e *Engine) TransferOwnership(caller, newOwner [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	ledger, err := e.requireOwner(caller)
	if err != nil {
		return err
	}
	if newOwner == ([20]byte{}) {
		return ErrZeroAddress
	}
	previous := ledger.Owner
	ledger.Owner = newOwner
	if err := e.state.RarityLedgerPut(ledger); err != nil {
		return err
	}
	e.emit(events.OwnershipChanged{Previous: previous, Current: newOwner})
	return nil
}

// SetRarityRoot commits the Merkle root that subsequent rarity entries must
// prove membership in. A zero root disables proof checks.
func (e *Engine) SetRarityRoot(caller [20]byte, root [32]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	ledger, err := e.requireOwner(caller)
	if err != nil {
		return err
	}
	ledger.RarityRoot = root
	if err := e.state.RarityLedgerPut(ledger); err != nil {
		return err
	}
	e.emit(events.RarityRootCommitted{Root: root})
	return nil
}

// InitializeRarity writes a batch of rarity entries. Entries are write-once:
// any token already present fails the whole batch.
func (e *Engine) InitializeRarity(caller [20]byte, entries []RarityEntry) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	ledger, err := e.requireOwner(caller)
	if err != nil {
		return err
	}
	ids := make([]uint64, len(entries))
	for i, entry := range entries {
		ids[i] = entry.TokenID
	}
	if err := e.checkBatch(ids); err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.Score == 0 {
			return fmt.Errorf("%w: token %d", ErrInvalidRarityScore, entry.TokenID)
		}
		if _, ok, err := e.state.TokenRarityGet(entry.TokenID); err != nil {
			return err
		} else if ok {
			return fmt.Errorf("%w: token %d", ErrRarityAlreadySet, entry.TokenID)
		}
		if ledger.HasRarityRoot() {
			leaf := RarityLeaf(entry.TokenID, entry.Score)
			if !VerifyRarityProof(ledger.RarityRoot, leaf, entry.Proof) {
				return fmt.Errorf("%w: token %d", ErrInvalidRarityProof, entry.TokenID)
			}
		}
		if err := e.state.TokenRarityPut(&TokenRarity{
			TokenID: entry.TokenID,
			Score:   entry.Score,
			Proof:   append([][32]byte(nil), entry.Proof...),
		}); err != nil {
			return err
		}
	}
	e.emit(events.RarityInitialized{TokenIDs: ids})
	return nil
}

// TokenRarity returns the rarity score of tokenID, or zero when unset.
func (e *Engine) TokenRarity(tokenID uint64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	rarity, ok, err := e.state.TokenRarityGet(tokenID)
	if err != nil {
		return 0, err
	}
	if !ok || rarity == nil {
		return 0, nil
	}
	return rarity.Score, nil
}

// StakeTokens moves every token in tokenIDs from caller into the vault.
func (e *Engine) StakeTokens(caller [20]byte, tokenIDs []uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if _, err := e.ledger(); err != nil {
		return err
	}
	if err := e.checkBatch(tokenIDs); err != nil {
		return err
	}
	now := e.now()
	index, err := e.state.UserStakedGet(caller)
	if err != nil {
		return err
	}
	for _, id := range tokenIDs {
		if _, ok, err := e.state.TokenRarityGet(id); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%w: token %d", ErrRarityMissing, id)
		}
		record, ok, err := e.state.StakeRecordGet(id)
		if err != nil {
			return err
		}
		if ok && record.Staked() {
			return fmt.Errorf("%w: token %d", ErrAlreadyStaked, id)
		}
		if err := e.custody.TransferFrom(e.vault, caller, e.vault, id); err != nil {
			return fmt.Errorf("raritystaking: stake token %d: %w", id, err)
		}
		if err := e.state.StakeRecordPut(&StakeRecord{
			TokenID:     id,
			Owner:       caller,
			StakedAt:    now,
			LastClaimAt: now,
		}); err != nil {
			return err
		}
		index = append(index, id)
	}
	if err := e.state.UserStakedPut(caller, index); err != nil {
		return err
	}
	e.emit(events.TokensStaked{Owner: caller, TokenIDs: append([]uint64(nil), tokenIDs...), StakedAt: int64(now)})
	return nil
}

// UnstakeTokens returns every token in tokenIDs to caller. When ClaimOnUnstake
// is set the pending rewards are paid out in the same call, capped at the
// reward pool balance so custody is always returned; the paid amount is
// returned and any shortfall is forfeited and reported in the event.
func (e *Engine) UnstakeTokens(caller [20]byte, tokenIDs []uint64) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.checkBatch(tokenIDs); err != nil {
		return nil, err
	}
	now := e.now()
	settled := big.NewInt(0)
	removed := make(map[uint64]struct{}, len(tokenIDs))
	for _, id := range tokenIDs {
		record, err := e.ownedRecord(caller, id)
		if err != nil {
			return nil, err
		}
		if e.params.ClaimOnUnstake {
			reward, err := e.accrued(record, now)
			if err != nil {
				return nil, err
			}
			settled.Add(settled, reward)
		}
		if err := e.state.StakeRecordDelete(id); err != nil {
			return nil, err
		}
		if err := e.custody.TransferFrom(e.vault, e.vault, caller, id); err != nil {
			return nil, fmt.Errorf("raritystaking: unstake token %d: %w", id, err)
		}
		removed[id] = struct{}{}
	}
	index, err := e.state.UserStakedGet(caller)
	if err != nil {
		return nil, err
	}
	kept := index[:0]
	for _, id := range index {
		if _, drop := removed[id]; !drop {
			kept = append(kept, id)
		}
	}
	if err := e.state.UserStakedPut(caller, kept); err != nil {
		return nil, err
	}
	paid, err := e.payRewardUpTo(caller, settled)
	if err != nil {
		return nil, err
	}
	e.emit(events.TokensUnstaked{
		Owner:    caller,
		TokenIDs: append([]uint64(nil), tokenIDs...),
		Token:    e.params.RewardToken,
		Settled:  new(big.Int).Set(paid),
		Unpaid:   new(big.Int).Sub(settled, paid),
	})
	return paid, nil
}

// ClaimRewards pays caller the rewards accrued by tokenIDs since their last
// claim and returns the amount paid.
func (e *Engine) ClaimRewards(caller [20]byte, tokenIDs []uint64) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.checkBatch(tokenIDs); err != nil {
		return nil, err
	}
	now := e.now()
	total := big.NewInt(0)
	for _, id := range tokenIDs {
		record, err := e.ownedRecord(caller, id)
		if err != nil {
			return nil, err
		}
		reward, err := e.accrued(record, now)
		if err != nil {
			return nil, err
		}
		total.Add(total, reward)
		if record.LastClaimAt < now {
			record.LastClaimAt = now
		}
		if err := e.state.StakeRecordPut(record); err != nil {
			return nil, err
		}
	}
	if err := e.payReward(caller, total); err != nil {
		return nil, err
	}
	e.emit(events.RewardsClaimed{
		Owner:    caller,
		TokenIDs: append([]uint64(nil), tokenIDs...),
		Token:    e.params.RewardToken,
		Amount:   new(big.Int).Set(total),
	})
	return total, nil
}

// PendingRewards previews the reward claimable for tokenID right now. Unstaked
// tokens report zero.
func (e *Engine) PendingRewards(tokenID uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, ok, err := e.state.StakeRecordGet(tokenID)
	if err != nil {
		return nil, err
	}
	if !ok || !record.Staked() {
		return big.NewInt(0), nil
	}
	return e.accrued(record, e.now())
}

// StakedInfo returns the stake record for tokenID. Unstaked tokens yield a
// record with the zero owner.
func (e *Engine) StakedInfo(tokenID uint64) (*StakeRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, ok, err := e.state.StakeRecordGet(tokenID)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return &StakeRecord{TokenID: tokenID}, nil
	}
	return record, nil
}

// UserStaked lists the tokens owner currently has staked, in stake order.
func (e *Engine) UserStaked(owner [20]byte) ([]uint64, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.UserStakedGet(owner)
}

// RaffleRoll draws winners among the staked tokenIDs and pays each winner's
// staker the raffle prize from the vault. Stake records are left untouched.
func (e *Engine) RaffleRoll(caller [20]byte, tokenIDs []uint64) (*RaffleRound, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	ledger, err := e.requireOwner(caller)
	if err != nil {
		return nil, err
	}
	if err := e.checkBatch(tokenIDs); err != nil {
		return nil, err
	}
	entries := make([]RaffleEntry, 0, len(tokenIDs))
	for _, id := range tokenIDs {
		record, ok, err := e.state.StakeRecordGet(id)
		if err != nil {
			return nil, err
		}
		if !ok || !record.Staked() {
			return nil, fmt.Errorf("%w: token %d", ErrNotStaked, id)
		}
		score, err := e.TokenRarity(id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, RaffleEntry{TokenID: id, Owner: record.Owner, Weight: score})
	}

	now := e.now()
	roundNumber := ledger.RaffleRound + 1
	seed := deriveRaffleSeed(ledger.RaffleSeed, roundNumber, now, tokenIDs)
	picks, err := e.selector.Select(seed, entries, int(e.params.RaffleWinners))
	if err != nil {
		return nil, err
	}

	prize := copyBig(e.params.RafflePrize)
	required := new(big.Int).Mul(prize, big.NewInt(int64(len(picks))))
	if required.Sign() > 0 {
		pool, err := e.treasury.BalanceOf(e.params.RaffleToken, e.vault)
		if err != nil {
			return nil, err
		}
		if pool.Cmp(required) < 0 {
			return nil, fmt.Errorf("%w: have %s, need %s", ErrInsufficientRafflePool, pool, required)
		}
	}

	round := &RaffleRound{
		Round:    roundNumber,
		Seed:     seed,
		Entries:  append([]uint64(nil), tokenIDs...),
		Winners:  make([]RaffleWinner, 0, len(picks)),
		RolledAt: now,
	}
	seen := make(map[int]struct{}, len(picks))
	for _, idx := range picks {
		if idx < 0 || idx >= len(entries) {
			return nil, fmt.Errorf("raritystaking: selector returned out of range index %d", idx)
		}
		if _, dup := seen[idx]; dup {
			return nil, fmt.Errorf("raritystaking: selector returned duplicate index %d", idx)
		}
		seen[idx] = struct{}{}
		winner := entries[idx]
		if prize.Sign() > 0 {
			if err := e.treasury.Transfer(e.params.RaffleToken, e.vault, winner.Owner, prize); err != nil {
				return nil, err
			}
		}
		round.Winners = append(round.Winners, RaffleWinner{TokenID: winner.TokenID, Owner: winner.Owner, Prize: copyBig(prize)})
	}
	if err := e.state.RaffleRoundPut(round); err != nil {
		return nil, err
	}
	ledger.RaffleRound = roundNumber
	ledger.RaffleSeed = seed
	if err := e.state.RarityLedgerPut(ledger); err != nil {
		return nil, err
	}

	winners := make([]events.RaffleWinner, len(round.Winners))
	for i, w := range round.Winners {
		winners[i] = events.RaffleWinner{TokenID: w.TokenID, Owner: w.Owner, Prize: copyBig(w.Prize)}
	}
	e.emit(events.RaffleRolled{
		Round:   round.Round,
		Seed:    round.Seed,
		Entries: len(round.Entries),
		Token:   e.params.RaffleToken,
		Winners: winners,
	})
	return round, nil
}

// RaffleResult returns a completed raffle round.
func (e *Engine) RaffleResult(round uint64) (*RaffleRound, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	result, ok, err := e.state.RaffleRoundGet(round)
	if err != nil {
		return nil, err
	}
	if !ok || result == nil {
		return nil, fmt.Errorf("%w: %d", ErrRaffleNotFound, round)
	}
	return result, nil
}

func (e *Engine) ownedRecord(caller [20]byte, tokenID uint64) (*StakeRecord, error) {
	record, ok, err := e.state.StakeRecordGet(tokenID)
	if err != nil {
		return nil, err
	}
	if !ok || !record.Staked() {
		return nil, fmt.Errorf("%w: token %d", ErrNotStaked, tokenID)
	}
	if record.Owner != caller {
		return nil, fmt.Errorf("%w: token %d", ErrNotStakeOwner, tokenID)
	}
	return record, nil
}

func (e *Engine) accrued(record *StakeRecord, now uint64) (*big.Int, error) {
	if record == nil || now <= record.LastClaimAt {
		return big.NewInt(0), nil
	}
	score, err := e.TokenRarity(record.TokenID)
	if err != nil {
		return nil, err
	}
	reward, err := e.curve.Reward(score, now-record.LastClaimAt)
	if err != nil {
		return nil, fmt.Errorf("raritystaking: reward for token %d: %w", record.TokenID, err)
	}
	if reward == nil || reward.Sign() < 0 {
		return big.NewInt(0), nil
	}
	return reward, nil
}

func (e *Engine) payReward(to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	pool, err := e.treasury.BalanceOf(e.params.RewardToken, e.vault)
	if err != nil {
		return err
	}
	if pool.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientRewardPool, pool, amount)
	}
	return e.treasury.Transfer(e.params.RewardToken, e.vault, to, amount)
}

// payRewardUpTo pays min(amount, pool) and returns what was paid.
func (e *Engine) payRewardUpTo(to [20]byte, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() == 0 {
		return big.NewInt(0), nil
	}
	pool, err := e.treasury.BalanceOf(e.params.RewardToken, e.vault)
	if err != nil {
		return nil, err
	}
	paid := new(big.Int).Set(amount)
	if pool.Cmp(paid) < 0 {
		paid.Set(pool)
	}
	if paid.Sign() == 0 {
		return paid, nil
	}
	if err := e.treasury.Transfer(e.params.RewardToken, e.vault, to, paid); err != nil {
		return nil, err
	}
	return paid, nil
}
