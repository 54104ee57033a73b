package state

import (
	"errors"
	"math/big"
	"testing"

	"raritystake/native/nft"
	"raritystake/native/raritystaking"
	"raritystake/native/token"
	"raritystake/storage"
	"raritystake/storage/trie"
)

func newTestManager(t *testing.T) (*Manager, *storage.MemDB) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	tr, err := trie.NewTrie(db, nil)
	if err != nil {
		t.Fatalf("new trie: %v", err)
	}
	return NewManager(tr), db
}

func TestKVRoundTripAndDelete(t *testing.T) {
	mgr, _ := newTestManager(t)
	if err := mgr.KVPut([]byte("answer"), uint64(42)); err != nil {
		t.Fatalf("put: %v", err)
	}
	var got uint64
	ok, err := mgr.KVGet([]byte("answer"), &got)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	if err := mgr.KVDelete([]byte("answer")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ok, err = mgr.KVGet([]byte("answer"), &got)
	if err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}
	if _, err := mgr.KVGet(nil, &got); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("empty key must be rejected, got %v", err)
	}

	list, err := loadList[uint64](mgr, []byte("missing"))
	if err != nil {
		t.Fatalf("get list: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil list")
	}
}

func TestTokenAdapters(t *testing.T) {
	mgr, _ := newTestManager(t)
	engine := token.NewEngine()
	engine.SetState(mgr)

	authority := [20]byte{0x01}
	holder := [20]byte{0x02}
	if err := engine.Register("rwd", "Reward", 18, authority); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := engine.Register("NEXUS", "Nexus", 18, authority); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := engine.Mint(authority, "RWD", holder, big.NewInt(500)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	balance, err := engine.BalanceOf("RWD", holder)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("unexpected balance %s", balance)
	}
	meta, err := engine.Metadata("rwd")
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.TotalSupply.Cmp(big.NewInt(500)) != 0 || meta.MintAuthority != authority {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	list, err := mgr.TokenList()
	if err != nil {
		t.Fatalf("token list: %v", err)
	}
	if len(list) != 2 || list[0] != "NEXUS" || list[1] != "RWD" {
		t.Fatalf("unexpected token list %v", list)
	}

	if err := engine.Transfer("RWD", holder, authority, big.NewInt(500)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	drained, err := mgr.TokenBalanceGet("RWD", holder)
	if err != nil {
		t.Fatalf("balance get: %v", err)
	}
	if drained.Sign() != 0 {
		t.Fatalf("expected zero balance, got %s", drained)
	}
}

func TestNFTAdapters(t *testing.T) {
	mgr, _ := newTestManager(t)
	engine := nft.NewEngine()
	engine.SetState(mgr)

	minter := [20]byte{0x0A}
	owner := [20]byte{0x0B}
	vault := [20]byte{0x0C}
	if err := engine.InitCollection("Rarity", "RAR", minter); err != nil {
		t.Fatalf("init collection: %v", err)
	}
	first, last, err := engine.Mint(minter, owner, 3)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if first != 1 || last != 3 {
		t.Fatalf("unexpected mint range %d..%d", first, last)
	}
	if err := engine.SetApprovalForAll(owner, vault, true); err != nil {
		t.Fatalf("approval: %v", err)
	}
	if err := engine.TransferFrom(vault, owner, vault, 2); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	got, err := engine.OwnerOf(2)
	if err != nil {
		t.Fatalf("owner of: %v", err)
	}
	if got != vault {
		t.Fatalf("expected vault custody")
	}
	count, err := engine.BalanceOf(owner)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 tokens, got %d", count)
	}
	if err := engine.SetApprovalForAll(owner, vault, false); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	approved, err := engine.IsApprovedForAll(owner, vault)
	if err != nil {
		t.Fatalf("is approved: %v", err)
	}
	if approved {
		t.Fatalf("operator approval not revoked")
	}
}

func TestRarityStakingAdapters(t *testing.T) {
	mgr, _ := newTestManager(t)
	owner := [20]byte{0x11}

	if _, ok, err := mgr.RarityLedgerGet(); err != nil || ok {
		t.Fatalf("expected empty ledger, ok=%v err=%v", ok, err)
	}
	ledger := &raritystaking.Ledger{Owner: owner, RaffleRound: 3, RaffleSeed: [32]byte{0x01}}
	if err := mgr.RarityLedgerPut(ledger); err != nil {
		t.Fatalf("ledger put: %v", err)
	}
	loaded, ok, err := mgr.RarityLedgerGet()
	if err != nil || !ok {
		t.Fatalf("ledger get: ok=%v err=%v", ok, err)
	}
	if *loaded != *ledger {
		t.Fatalf("ledger mismatch: %+v", loaded)
	}

	rarity := &raritystaking.TokenRarity{TokenID: 5, Score: 123, Proof: [][32]byte{{0xAA}}}
	if err := mgr.TokenRarityPut(rarity); err != nil {
		t.Fatalf("rarity put: %v", err)
	}
	storedRarity, ok, err := mgr.TokenRarityGet(5)
	if err != nil || !ok {
		t.Fatalf("rarity get: ok=%v err=%v", ok, err)
	}
	if storedRarity.Score != 123 || len(storedRarity.Proof) != 1 || storedRarity.Proof[0] != rarity.Proof[0] {
		t.Fatalf("rarity mismatch: %+v", storedRarity)
	}

	record := &raritystaking.StakeRecord{TokenID: 5, Owner: owner, StakedAt: 10, LastClaimAt: 20}
	if err := mgr.StakeRecordPut(record); err != nil {
		t.Fatalf("stake put: %v", err)
	}
	storedRecord, ok, err := mgr.StakeRecordGet(5)
	if err != nil || !ok || *storedRecord != *record {
		t.Fatalf("stake get mismatch: %+v ok=%v err=%v", storedRecord, ok, err)
	}
	if err := mgr.StakeRecordDelete(5); err != nil {
		t.Fatalf("stake delete: %v", err)
	}
	if _, ok, _ := mgr.StakeRecordGet(5); ok {
		t.Fatalf("stake record not deleted")
	}

	if err := mgr.UserStakedPut(owner, []uint64{9, 4, 7}); err != nil {
		t.Fatalf("index put: %v", err)
	}
	ids, err := mgr.UserStakedGet(owner)
	if err != nil {
		t.Fatalf("index get: %v", err)
	}
	if len(ids) != 3 || ids[0] != 9 || ids[1] != 4 || ids[2] != 7 {
		t.Fatalf("index order not preserved: %v", ids)
	}
	if err := mgr.UserStakedPut(owner, nil); err != nil {
		t.Fatalf("index clear: %v", err)
	}
	ids, _ = mgr.UserStakedGet(owner)
	if len(ids) != 0 {
		t.Fatalf("index not cleared: %v", ids)
	}

	round := &raritystaking.RaffleRound{
		Round:    1,
		Seed:     [32]byte{0x22},
		Entries:  []uint64{1, 2},
		Winners:  []raritystaking.RaffleWinner{{TokenID: 2, Owner: owner, Prize: big.NewInt(100)}},
		RolledAt: 99,
	}
	if err := mgr.RaffleRoundPut(round); err != nil {
		t.Fatalf("raffle put: %v", err)
	}
	storedRound, ok, err := mgr.RaffleRoundGet(1)
	if err != nil || !ok {
		t.Fatalf("raffle get: ok=%v err=%v", ok, err)
	}
	if storedRound.Winners[0].Prize.Cmp(big.NewInt(100)) != 0 || storedRound.Seed != round.Seed {
		t.Fatalf("raffle mismatch: %+v", storedRound)
	}
}

func TestCommittedStateSurvivesRollback(t *testing.T) {
	mgr, db := newTestManager(t)
	if err := mgr.KVPut([]byte("k"), uint64(1)); err != nil {
		t.Fatalf("put: %v", err)
	}
	root, err := mgr.Trie().Commit(1)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := mgr.KVPut([]byte("k"), uint64(2)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := mgr.Trie().Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	var value uint64
	if _, err := mgr.KVGet([]byte("k"), &value); err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != 1 {
		t.Fatalf("expected committed value 1, got %d", value)
	}

	value = 0
	reopened, err := trie.NewTrie(db, root.Bytes())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := NewManager(reopened).KVGet([]byte("k"), &value); err != nil || value != 1 {
		t.Fatalf("reopened value mismatch: %d err=%v", value, err)
	}
}
