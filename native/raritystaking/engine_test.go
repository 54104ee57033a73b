package raritystaking

import (
	"errors"
	"math/big"
	"sort"
	"testing"

	"raritystake/core/events"
)

type mockState struct {
	ledger  *Ledger
	rarity  map[uint64]*TokenRarity
	stakes  map[uint64]*StakeRecord
	indexes map[[20]byte][]uint64
	rounds  map[uint64]*RaffleRound
}

func newMockState() *mockState {
	return &mockState{
		rarity:  make(map[uint64]*TokenRarity),
		stakes:  make(map[uint64]*StakeRecord),
		indexes: make(map[[20]byte][]uint64),
		rounds:  make(map[uint64]*RaffleRound),
	}
}

func (m *mockState) RarityLedgerGet() (*Ledger, bool, error) {
	if m.ledger == nil {
		return nil, false, nil
	}
	clone := *m.ledger
	return &clone, true, nil
}

func (m *mockState) RarityLedgerPut(ledger *Ledger) error {
	clone := *ledger
	m.ledger = &clone
	return nil
}

func (m *mockState) TokenRarityGet(id uint64) (*TokenRarity, bool, error) {
	rarity, ok := m.rarity[id]
	if !ok {
		return nil, false, nil
	}
	clone := *rarity
	return &clone, true, nil
}

func (m *mockState) TokenRarityPut(rarity *TokenRarity) error {
	clone := *rarity
	m.rarity[rarity.TokenID] = &clone
	return nil
}

func (m *mockState) StakeRecordGet(id uint64) (*StakeRecord, bool, error) {
	record, ok := m.stakes[id]
	if !ok {
		return nil, false, nil
	}
	clone := *record
	return &clone, true, nil
}

func (m *mockState) StakeRecordPut(record *StakeRecord) error {
	clone := *record
	m.stakes[record.TokenID] = &clone
	return nil
}

func (m *mockState) StakeRecordDelete(id uint64) error {
	delete(m.stakes, id)
	return nil
}

func (m *mockState) UserStakedGet(owner [20]byte) ([]uint64, error) {
	return append([]uint64(nil), m.indexes[owner]...), nil
}

func (m *mockState) UserStakedPut(owner [20]byte, ids []uint64) error {
	if len(ids) == 0 {
		delete(m.indexes, owner)
		return nil
	}
	m.indexes[owner] = append([]uint64(nil), ids...)
	return nil
}

func (m *mockState) RaffleRoundGet(round uint64) (*RaffleRound, bool, error) {
	result, ok := m.rounds[round]
	if !ok {
		return nil, false, nil
	}
	return result.Clone(), true, nil
}

func (m *mockState) RaffleRoundPut(round *RaffleRound) error {
	m.rounds[round.Round] = round.Clone()
	return nil
}

type fakeCustody struct {
	owners map[uint64][20]byte
}

func (f *fakeCustody) OwnerOf(id uint64) ([20]byte, error) {
	owner, ok := f.owners[id]
	if !ok {
		return [20]byte{}, errors.New("token not found")
	}
	return owner, nil
}

func (f *fakeCustody) TransferFrom(_, from, to [20]byte, id uint64) error {
	owner, ok := f.owners[id]
	if !ok {
		return errors.New("token not found")
	}
	if owner != from {
		return errors.New("not owner")
	}
	f.owners[id] = to
	return nil
}

type balanceKey struct {
	symbol string
	addr   [20]byte
}

type fakeTreasury struct {
	balances map[balanceKey]*big.Int
}

func (f *fakeTreasury) BalanceOf(symbol string, addr [20]byte) (*big.Int, error) {
	if bal, ok := f.balances[balanceKey{symbol, addr}]; ok {
		return new(big.Int).Set(bal), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeTreasury) Transfer(symbol string, from, to [20]byte, amount *big.Int) error {
	fromBal, _ := f.BalanceOf(symbol, from)
	if fromBal.Cmp(amount) < 0 {
		return errors.New("insufficient balance")
	}
	toBal, _ := f.BalanceOf(symbol, to)
	f.balances[balanceKey{symbol, from}] = fromBal.Sub(fromBal, amount)
	f.balances[balanceKey{symbol, to}] = toBal.Add(toBal, amount)
	return nil
}

func (f *fakeTreasury) fund(symbol string, addr [20]byte, amount *big.Int) {
	f.balances[balanceKey{symbol, addr}] = new(big.Int).Set(amount)
}

type fixture struct {
	engine   *Engine
	state    *mockState
	custody  *fakeCustody
	treasury *fakeTreasury
	now      int64
	admin    [20]byte
	alice    [20]byte
	bob      [20]byte
}

const fixtureStart = int64(1_700_000_000)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		state:    newMockState(),
		custody:  &fakeCustody{owners: make(map[uint64][20]byte)},
		treasury: &fakeTreasury{balances: make(map[balanceKey]*big.Int)},
		now:      fixtureStart,
		admin:    [20]byte{0xAD},
		alice:    [20]byte{0xA1},
		bob:      [20]byte{0xB0},
	}
	engine := NewEngine()
	engine.SetState(f.state)
	engine.SetCustody(f.custody)
	engine.SetTreasury(f.treasury)
	engine.SetNowFunc(func() int64 { return f.now })
	f.engine = engine
	if err := engine.Initialize(f.admin); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	pool := new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1e18))
	f.treasury.fund("RWD", engine.Vault(), pool)
	f.treasury.fund("NEXUS", engine.Vault(), pool)
	return f
}

func (f *fixture) mint(t *testing.T, owner [20]byte, ids ...uint64) {
	t.Helper()
	for _, id := range ids {
		f.custody.owners[id] = owner
	}
}

func (f *fixture) rarity(t *testing.T, scores map[uint64]uint64) {
	t.Helper()
	entries := make([]RarityEntry, 0, len(scores))
	for id, score := range scores {
		entries = append(entries, RarityEntry{TokenID: id, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].TokenID < entries[j].TokenID })
	if err := f.engine.InitializeRarity(f.admin, entries); err != nil {
		t.Fatalf("initialize rarity: %v", err)
	}
}

func (f *fixture) balance(t *testing.T, symbol string, addr [20]byte) *big.Int {
	t.Helper()
	bal, err := f.treasury.BalanceOf(symbol, addr)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return bal
}

func idRange(from, to uint64) []uint64 {
	ids := make([]uint64, 0, to-from+1)
	for id := from; id <= to; id++ {
		ids = append(ids, id)
	}
	return ids
}

func TestInitializeRarityRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.rarity(t, map[uint64]uint64{1: 277_489, 2: 1_000_000, 3: 2_859_033})

	for id, want := range map[uint64]uint64{1: 277_489, 2: 1_000_000, 3: 2_859_033} {
		got, err := f.engine.TokenRarity(id)
		if err != nil {
			t.Fatalf("token rarity %d: %v", id, err)
		}
		if got != want {
			t.Fatalf("token %d: expected %d, got %d", id, want, got)
		}
	}
	unset, err := f.engine.TokenRarity(99)
	if err != nil {
		t.Fatalf("token rarity unset: %v", err)
	}
	if unset != 0 {
		t.Fatalf("expected zero for unset token, got %d", unset)
	}
}

func TestInitializeRarityRejectsReinitialization(t *testing.T) {
	f := newFixture(t)
	f.rarity(t, map[uint64]uint64{1: 500_000})

	err := f.engine.InitializeRarity(f.admin, []RarityEntry{{TokenID: 2, Score: 10}, {TokenID: 1, Score: 900_000}})
	if !errors.Is(err, ErrRarityAlreadySet) {
		t.Fatalf("expected ErrRarityAlreadySet, got %v", err)
	}
	score, _ := f.engine.TokenRarity(1)
	if score != 500_000 {
		t.Fatalf("existing score must be untouched, got %d", score)
	}
}

func TestInitializeRarityRequiresOwner(t *testing.T) {
	f := newFixture(t)
	err := f.engine.InitializeRarity(f.alice, []RarityEntry{{TokenID: 1, Score: 10}})
	if !errors.Is(err, ErrNotContractOwner) {
		t.Fatalf("expected ErrNotContractOwner, got %v", err)
	}
}

func TestInitializeRarityValidatesBatch(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.InitializeRarity(f.admin, nil); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
	dup := []RarityEntry{{TokenID: 1, Score: 1}, {TokenID: 1, Score: 2}}
	if err := f.engine.InitializeRarity(f.admin, dup); !errors.Is(err, ErrDuplicateToken) {
		t.Fatalf("expected ErrDuplicateToken, got %v", err)
	}
	if err := f.engine.InitializeRarity(f.admin, []RarityEntry{{TokenID: 1}}); !errors.Is(err, ErrInvalidRarityScore) {
		t.Fatalf("expected ErrInvalidRarityScore, got %v", err)
	}
}

func TestInitializeRarityChecksProofsAgainstRoot(t *testing.T) {
	f := newFixture(t)
	dataset := []RarityEntry{
		{TokenID: 1, Score: 300_000},
		{TokenID: 2, Score: 1_200_000},
		{TokenID: 3, Score: 2_000_000},
	}
	root, proven := BuildRarityTree(dataset)
	if err := f.engine.SetRarityRoot(f.admin, root); err != nil {
		t.Fatalf("set root: %v", err)
	}

	forged := proven[1]
	forged.Score = 2_800_000
	if err := f.engine.InitializeRarity(f.admin, []RarityEntry{forged}); !errors.Is(err, ErrInvalidRarityProof) {
		t.Fatalf("expected ErrInvalidRarityProof, got %v", err)
	}
	if err := f.engine.InitializeRarity(f.admin, proven); err != nil {
		t.Fatalf("initialize with proofs: %v", err)
	}
	score, _ := f.engine.TokenRarity(2)
	if score != 1_200_000 {
		t.Fatalf("unexpected score %d", score)
	}
}

func TestStakeMovesCustodyAndIndexes(t *testing.T) {
	f := newFixture(t)
	f.mint(t, f.alice, 1, 2, 3)
	f.rarity(t, map[uint64]uint64{1: 300_000, 2: 300_000, 3: 300_000})

	if err := f.engine.StakeTokens(f.alice, []uint64{1, 3}); err != nil {
		t.Fatalf("stake: %v", err)
	}
	for _, id := range []uint64{1, 3} {
		if owner := f.custody.owners[id]; owner != f.engine.Vault() {
			t.Fatalf("token %d: expected vault custody", id)
		}
		info, err := f.engine.StakedInfo(id)
		if err != nil {
			t.Fatalf("staked info: %v", err)
		}
		if info.Owner != f.alice {
			t.Fatalf("token %d: expected alice as staker", id)
		}
		if info.StakedAt != uint64(fixtureStart) || info.LastClaimAt != uint64(fixtureStart) {
			t.Fatalf("token %d: unexpected timestamps %+v", id, info)
		}
	}
	if f.custody.owners[2] != f.alice {
		t.Fatalf("unstaked token must stay with alice")
	}
	staked, err := f.engine.UserStaked(f.alice)
	if err != nil {
		t.Fatalf("user staked: %v", err)
	}
	if len(staked) != 2 || staked[0] != 1 || staked[1] != 3 {
		t.Fatalf("unexpected index %v", staked)
	}
	other, _ := f.engine.UserStaked(f.bob)
	if len(other) != 0 {
		t.Fatalf("bob should have nothing staked, got %v", other)
	}
}

func TestStakeRejections(t *testing.T) {
	f := newFixture(t)
	f.mint(t, f.alice, 1, 2)
	f.mint(t, f.bob, 3)
	f.rarity(t, map[uint64]uint64{1: 300_000, 3: 300_000})

	if err := f.engine.StakeTokens(f.alice, []uint64{2}); !errors.Is(err, ErrRarityMissing) {
		t.Fatalf("expected ErrRarityMissing, got %v", err)
	}
	if err := f.engine.StakeTokens(f.alice, []uint64{3}); err == nil {
		t.Fatalf("staking a foreign token must fail")
	}
	if err := f.engine.StakeTokens(f.alice, []uint64{1}); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if err := f.engine.StakeTokens(f.alice, []uint64{1}); !errors.Is(err, ErrAlreadyStaked) {
		t.Fatalf("expected ErrAlreadyStaked, got %v", err)
	}
	if err := f.engine.StakeTokens(f.alice, []uint64{}); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
	params := DefaultParams()
	params.MaxBatch = 2
	if err := f.engine.SetParams(params); err != nil {
		t.Fatalf("set params: %v", err)
	}
	if err := f.engine.StakeTokens(f.alice, []uint64{4, 5, 6}); !errors.Is(err, ErrBatchTooLarge) {
		t.Fatalf("expected ErrBatchTooLarge, got %v", err)
	}
}

func TestUnstakeReturnsCustodyAndSettles(t *testing.T) {
	f := newFixture(t)
	f.mint(t, f.alice, 1, 2)
	f.rarity(t, map[uint64]uint64{1: 277_489, 2: 2_859_033})
	if err := f.engine.StakeTokens(f.alice, []uint64{1, 2}); err != nil {
		t.Fatalf("stake: %v", err)
	}
	f.now += secondsPerDay

	settled, err := f.engine.UnstakeTokens(f.alice, []uint64{2})
	if err != nil {
		t.Fatalf("unstake: %v", err)
	}
	want := new(big.Int).Mul(big.NewInt(1200), big.NewInt(1e18))
	if settled.Cmp(want) != 0 {
		t.Fatalf("expected settled %s, got %s", want, settled)
	}
	if f.balance(t, "RWD", f.alice).Cmp(want) != 0 {
		t.Fatalf("settled reward not paid")
	}
	if f.custody.owners[2] != f.alice {
		t.Fatalf("custody not returned")
	}
	info, _ := f.engine.StakedInfo(2)
	if info.Staked() || info.Owner != ([20]byte{}) {
		t.Fatalf("expected cleared stake record, got %+v", info)
	}
	staked, _ := f.engine.UserStaked(f.alice)
	if len(staked) != 1 || staked[0] != 1 {
		t.Fatalf("unexpected index after unstake %v", staked)
	}
}

type unstakeEvents struct{ got []events.TokensUnstaked }

func (u *unstakeEvents) Emit(evt events.Event) {
	if e, ok := evt.(events.TokensUnstaked); ok {
		u.got = append(u.got, e)
	}
}

func TestUnstakeUnderfundedPoolStillReturnsCustody(t *testing.T) {
	f := newFixture(t)
	sink := &unstakeEvents{}
	f.engine.SetEmitter(sink)
	f.treasury.fund("RWD", f.engine.Vault(), big.NewInt(5))
	f.mint(t, f.alice, 2)
	f.rarity(t, map[uint64]uint64{2: 2_859_033})
	if err := f.engine.StakeTokens(f.alice, []uint64{2}); err != nil {
		t.Fatalf("stake: %v", err)
	}
	f.now += secondsPerDay

	paid, err := f.engine.UnstakeTokens(f.alice, []uint64{2})
	if err != nil {
		t.Fatalf("unstake with short pool: %v", err)
	}
	if paid.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("expected the pool balance paid, got %s", paid)
	}
	if f.custody.owners[2] != f.alice {
		t.Fatalf("custody not returned")
	}
	if f.balance(t, "RWD", f.engine.Vault()).Sign() != 0 {
		t.Fatalf("pool should be drained")
	}
	accrued := new(big.Int).Mul(big.NewInt(1200), big.NewInt(1e18))
	if len(sink.got) != 1 || sink.got[0].Unpaid.Cmp(new(big.Int).Sub(accrued, paid)) != 0 {
		t.Fatalf("unexpected unstake events %+v", sink.got)
	}

	f.treasury.fund("RWD", f.engine.Vault(), big.NewInt(0))
	f.mint(t, f.alice, 3)
	f.rarity(t, map[uint64]uint64{3: 300_000})
	if err := f.engine.StakeTokens(f.alice, []uint64{3}); err != nil {
		t.Fatalf("stake: %v", err)
	}
	f.now += secondsPerDay
	paid, err = f.engine.UnstakeTokens(f.alice, []uint64{3})
	if err != nil || paid.Sign() != 0 {
		t.Fatalf("unstake with empty pool: paid=%v err=%v", paid, err)
	}
	if f.custody.owners[3] != f.alice {
		t.Fatalf("custody not returned from empty pool")
	}
}

func TestUnstakeWithoutSettlement(t *testing.T) {
	f := newFixture(t)
	params := DefaultParams()
	params.ClaimOnUnstake = false
	if err := f.engine.SetParams(params); err != nil {
		t.Fatalf("set params: %v", err)
	}
	f.mint(t, f.alice, 1)
	f.rarity(t, map[uint64]uint64{1: 300_000})
	if err := f.engine.StakeTokens(f.alice, []uint64{1}); err != nil {
		t.Fatalf("stake: %v", err)
	}
	f.now += secondsPerDay
	settled, err := f.engine.UnstakeTokens(f.alice, []uint64{1})
	if err != nil {
		t.Fatalf("unstake: %v", err)
	}
	if settled.Sign() != 0 {
		t.Fatalf("expected no settlement, got %s", settled)
	}
	if f.balance(t, "RWD", f.alice).Sign() != 0 {
		t.Fatalf("no reward should be paid")
	}
}

func TestUnstakeRejections(t *testing.T) {
	f := newFixture(t)
	f.mint(t, f.alice, 1)
	f.rarity(t, map[uint64]uint64{1: 300_000, 2: 300_000})
	if err := f.engine.StakeTokens(f.alice, []uint64{1}); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if _, err := f.engine.UnstakeTokens(f.bob, []uint64{1}); !errors.Is(err, ErrNotStakeOwner) {
		t.Fatalf("expected ErrNotStakeOwner, got %v", err)
	}
	if _, err := f.engine.UnstakeTokens(f.alice, []uint64{2}); !errors.Is(err, ErrNotStaked) {
		t.Fatalf("expected ErrNotStaked, got %v", err)
	}
}

func TestClaimRewardsAccruesByRarity(t *testing.T) {
	f := newFixture(t)
	f.mint(t, f.alice, 1, 2)
	f.rarity(t, map[uint64]uint64{1: 277_489, 2: 2_859_033})
	if err := f.engine.StakeTokens(f.alice, []uint64{1, 2}); err != nil {
		t.Fatalf("stake: %v", err)
	}
	f.now += secondsPerDay

	pending, err := f.engine.PendingRewards(1)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	common := new(big.Int).Mul(big.NewInt(800), big.NewInt(1e18))
	if pending.Cmp(common) != 0 {
		t.Fatalf("expected pending %s, got %s", common, pending)
	}
	rare, _ := f.engine.PendingRewards(2)
	if rare.Cmp(pending) <= 0 {
		t.Fatalf("rarer token must accrue more: %s vs %s", rare, pending)
	}

	before := f.balance(t, "RWD", f.alice)
	paid, err := f.engine.ClaimRewards(f.alice, []uint64{1})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if paid.Cmp(common) != 0 {
		t.Fatalf("expected paid %s, got %s", common, paid)
	}
	after := f.balance(t, "RWD", f.alice)
	if after.Cmp(before) <= 0 {
		t.Fatalf("balance did not increase: %s -> %s", before, after)
	}

	again, err := f.engine.ClaimRewards(f.alice, []uint64{1})
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if again.Sign() != 0 {
		t.Fatalf("immediate second claim must be zero, got %s", again)
	}
	info, _ := f.engine.StakedInfo(1)
	if info.LastClaimAt != uint64(f.now) || info.StakedAt != uint64(fixtureStart) {
		t.Fatalf("unexpected record after claim %+v", info)
	}
}

func TestClaimRewardsUnderfundedPool(t *testing.T) {
	f := newFixture(t)
	f.treasury.fund("RWD", f.engine.Vault(), big.NewInt(1))
	f.mint(t, f.alice, 1)
	f.rarity(t, map[uint64]uint64{1: 300_000})
	if err := f.engine.StakeTokens(f.alice, []uint64{1}); err != nil {
		t.Fatalf("stake: %v", err)
	}
	f.now += secondsPerDay
	if _, err := f.engine.ClaimRewards(f.alice, []uint64{1}); !errors.Is(err, ErrInsufficientRewardPool) {
		t.Fatalf("expected ErrInsufficientRewardPool, got %v", err)
	}
}

func TestClaimRewardsUsesCustomCurve(t *testing.T) {
	f := newFixture(t)
	f.engine.SetRewardCurve(RewardCurveFunc(func(score, elapsed uint64) (*big.Int, error) {
		return new(big.Int).SetUint64(score * elapsed), nil
	}))
	f.mint(t, f.alice, 1)
	f.rarity(t, map[uint64]uint64{1: 3})
	if err := f.engine.StakeTokens(f.alice, []uint64{1}); err != nil {
		t.Fatalf("stake: %v", err)
	}
	f.now += 10
	paid, err := f.engine.ClaimRewards(f.alice, []uint64{1})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if paid.Int64() != 30 {
		t.Fatalf("expected 30, got %s", paid)
	}
}

func TestRaffleRollLeavesStakesUntouched(t *testing.T) {
	f := newFixture(t)
	ids := idRange(1, 10)
	f.mint(t, f.alice, ids...)
	scores := make(map[uint64]uint64, len(ids))
	for _, id := range ids {
		scores[id] = 300_000 + id*1_000
	}
	f.rarity(t, scores)
	if err := f.engine.StakeTokens(f.alice, ids); err != nil {
		t.Fatalf("stake: %v", err)
	}
	before := make(map[uint64]StakeRecord, len(ids))
	for _, id := range ids {
		info, _ := f.engine.StakedInfo(id)
		before[id] = *info
	}
	f.now += 3600

	round, err := f.engine.RaffleRoll(f.admin, ids)
	if err != nil {
		t.Fatalf("raffle: %v", err)
	}
	if round.Round != 1 || len(round.Winners) != 1 {
		t.Fatalf("unexpected round %+v", round)
	}
	winner := round.Winners[0]
	if winner.Owner != f.alice || scores[winner.TokenID] == 0 {
		t.Fatalf("unexpected winner %+v", winner)
	}
	if f.balance(t, "NEXUS", f.alice).Cmp(DefaultParams().RafflePrize) != 0 {
		t.Fatalf("raffle prize not paid")
	}
	for _, id := range ids {
		info, _ := f.engine.StakedInfo(id)
		if *info != before[id] {
			t.Fatalf("token %d: stake record changed by raffle", id)
		}
	}
	stored, err := f.engine.RaffleResult(1)
	if err != nil {
		t.Fatalf("raffle result: %v", err)
	}
	if stored.Seed != round.Seed || stored.Winners[0].TokenID != winner.TokenID {
		t.Fatalf("stored round mismatch")
	}
	if _, err := f.engine.RaffleResult(2); !errors.Is(err, ErrRaffleNotFound) {
		t.Fatalf("expected ErrRaffleNotFound, got %v", err)
	}

	next, err := f.engine.RaffleRoll(f.admin, ids)
	if err != nil {
		t.Fatalf("second raffle: %v", err)
	}
	if next.Round != 2 || next.Seed == round.Seed {
		t.Fatalf("second round must advance the seed chain")
	}
}

func TestRaffleRollRejections(t *testing.T) {
	f := newFixture(t)
	f.mint(t, f.alice, 1, 2)
	f.rarity(t, map[uint64]uint64{1: 300_000, 2: 300_000})
	if err := f.engine.StakeTokens(f.alice, []uint64{1}); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if _, err := f.engine.RaffleRoll(f.alice, []uint64{1}); !errors.Is(err, ErrNotContractOwner) {
		t.Fatalf("expected ErrNotContractOwner, got %v", err)
	}
	if _, err := f.engine.RaffleRoll(f.admin, []uint64{1, 2}); !errors.Is(err, ErrNotStaked) {
		t.Fatalf("expected ErrNotStaked, got %v", err)
	}
	f.treasury.fund("NEXUS", f.engine.Vault(), big.NewInt(0))
	if _, err := f.engine.RaffleRoll(f.admin, []uint64{1}); !errors.Is(err, ErrInsufficientRafflePool) {
		t.Fatalf("expected ErrInsufficientRafflePool, got %v", err)
	}
}

func TestTransferOwnership(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.TransferOwnership(f.alice, f.bob); !errors.Is(err, ErrNotContractOwner) {
		t.Fatalf("expected ErrNotContractOwner, got %v", err)
	}
	if err := f.engine.TransferOwnership(f.admin, [20]byte{}); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("expected ErrZeroAddress, got %v", err)
	}
	if err := f.engine.TransferOwnership(f.admin, f.bob); err != nil {
		t.Fatalf("transfer ownership: %v", err)
	}
	owner, err := f.engine.Owner()
	if err != nil {
		t.Fatalf("owner: %v", err)
	}
	if owner != f.bob {
		t.Fatalf("expected bob as owner")
	}
	if err := f.engine.Initialize(f.alice); !errors.Is(err, ErrLedgerInitialized) {
		t.Fatalf("expected ErrLedgerInitialized, got %v", err)
	}
}

func TestDailyScenario(t *testing.T) {
	f := newFixture(t)
	all := idRange(1, 100)
	f.mint(t, f.alice, all...)
	staked := idRange(1, 99)
	scores := make(map[uint64]uint64, len(staked))
	for _, id := range staked {
		scores[id] = 277_489 + id*25_000
	}
	f.rarity(t, scores)

	if err := f.engine.StakeTokens(f.alice, staked); err != nil {
		t.Fatalf("stake: %v", err)
	}
	f.now += secondsPerDay

	before := f.balance(t, "RWD", f.alice)
	if _, err := f.engine.ClaimRewards(f.alice, []uint64{1}); err != nil {
		t.Fatalf("claim: %v", err)
	}
	after := f.balance(t, "RWD", f.alice)
	if after.Cmp(before) <= 0 {
		t.Fatalf("expected reward balance to increase: %s -> %s", before, after)
	}

	if _, err := f.engine.UnstakeTokens(f.alice, []uint64{1}); err != nil {
		t.Fatalf("unstake: %v", err)
	}
	if owner, _ := f.custody.OwnerOf(1); owner != f.alice {
		t.Fatalf("token 1 not returned")
	}
	info, _ := f.engine.StakedInfo(1)
	if info.Owner != ([20]byte{}) {
		t.Fatalf("stake record for token 1 not cleared")
	}
	remaining, _ := f.engine.UserStaked(f.alice)
	if len(remaining) != 98 {
		t.Fatalf("expected 98 staked tokens, got %d", len(remaining))
	}
	for _, id := range remaining {
		if id == 1 {
			t.Fatalf("token 1 still indexed")
		}
	}
}
