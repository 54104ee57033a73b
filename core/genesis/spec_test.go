// core/genesis/spec_test.go
package genesis

import (
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"raritystake/crypto"
)

func writeSpec(t *testing.T, spec any) string {
	t.Helper()
	raw, err := json.Marshal(spec)
	if err != nil {
		t.Fatalf("marshal spec: %v", err)
	}
	path := filepath.Join(t.TempDir(), "genesis.json")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	return path
}

func TestLoadGenesisSpecResolvesAccounts(t *testing.T) {
	owner := [20]byte{0x01}
	holder := [20]byte{0x02}
	authority := [20]byte{0x03}

	path := writeSpec(t, map[string]any{
		"owner": crypto.FormatAddress(owner),
		"nativeTokens": []map[string]any{
			{"symbol": "rwd", "name": "Reward", "decimals": 18},
			{"symbol": "NEXUS", "name": "Nexus", "decimals": 18, "mintAuthority": crypto.FormatAddress(authority)},
		},
		"collection": map[string]any{"name": "Rare", "symbol": "RARE"},
		"pools":      map[string]string{"RWD": "1000", "nexus": "50"},
		"alloc": map[string]map[string]string{
			crypto.FormatAddress(holder): {"RWD": "7", "NEXUS": "0"},
		},
		"rarityRoot": "0x" + strings.Repeat("ab", 32),
	})

	spec, err := LoadGenesisSpec(path)
	if err != nil {
		t.Fatalf("load spec: %v", err)
	}
	if spec.OwnerAddress() != owner {
		t.Fatalf("unexpected owner")
	}
	if spec.NativeTokens[0].Authority() != owner {
		t.Fatalf("mint authority should default to owner")
	}
	if spec.NativeTokens[1].Authority() != authority {
		t.Fatalf("explicit mint authority not resolved")
	}
	if spec.Collection.MinterAddress() != owner {
		t.Fatalf("collection minter should default to owner")
	}
	pools := spec.PoolAmounts()
	if pools["RWD"].Cmp(big.NewInt(1000)) != 0 || pools["NEXUS"].Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("unexpected pools %v", pools)
	}
	alloc := spec.Allocations()
	if len(alloc) != 1 || alloc[0].Account != holder || alloc[0].Symbol != "RWD" || alloc[0].Amount.Int64() != 7 {
		t.Fatalf("unexpected alloc %+v", alloc)
	}
	root, ok := spec.RarityRootHash()
	if !ok || root[0] != 0xab {
		t.Fatalf("rarity root not parsed")
	}
}

func TestLoadGenesisSpecRejectsInvalid(t *testing.T) {
	owner := crypto.FormatAddress([20]byte{0x01})
	cases := map[string]map[string]any{
		"missing owner": {
			"collection": map[string]any{"name": "Rare", "symbol": "RARE"},
		},
		"unknown pool token": {
			"owner":      owner,
			"collection": map[string]any{"name": "Rare", "symbol": "RARE"},
			"pools":      map[string]string{"GOLD": "1"},
		},
		"duplicate token": {
			"owner": owner,
			"nativeTokens": []map[string]any{
				{"symbol": "RWD", "name": "Reward"},
				{"symbol": "rwd", "name": "Reward again"},
			},
			"collection": map[string]any{"name": "Rare", "symbol": "RARE"},
		},
		"negative alloc": {
			"owner":        owner,
			"nativeTokens": []map[string]any{{"symbol": "RWD", "name": "Reward"}},
			"collection":   map[string]any{"name": "Rare", "symbol": "RARE"},
			"alloc":        map[string]map[string]string{owner: {"RWD": "-1"}},
		},
		"unknown field": {
			"owner":      owner,
			"collection": map[string]any{"name": "Rare", "symbol": "RARE"},
			"validators": []string{},
		},
		"missing collection": {
			"owner": owner,
		},
	}
	for name, raw := range cases {
		if _, err := LoadGenesisSpec(writeSpec(t, raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestDefaultGenesis(t *testing.T) {
	owner := [20]byte{0x0F}
	spec := Default(owner, big.NewInt(10), nil)
	if spec.OwnerAddress() != owner {
		t.Fatalf("unexpected owner")
	}
	pools := spec.PoolAmounts()
	if len(pools) != 1 || pools["RWD"].Int64() != 10 {
		t.Fatalf("unexpected pools %v", pools)
	}
	if len(spec.NativeTokens) != 2 {
		t.Fatalf("expected reward and raffle tokens")
	}
}
