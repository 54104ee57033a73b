// core/genesis/spec.go
package genesis

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"

	"raritystake/crypto"
)

// GenesisSpec describes the initial ledger state: the contract owner, the
// fungible tokens, the staked collection and the initial reward pools.
type GenesisSpec struct {
	Owner        string                       `json:"owner"`
	NativeTokens []NativeTokenSpec            `json:"nativeTokens"`
	Collection   CollectionSpec               `json:"collection"`
	Pools        map[string]string            `json:"pools,omitempty"` // token -> amount minted to the vault
	Alloc        map[string]map[string]string `json:"alloc,omitempty"` // addr -> token -> amount
	RarityRoot   string                       `json:"rarityRoot,omitempty"`

	ownerAddr  [20]byte
	rarityRoot [32]byte
	pools      map[string]*big.Int
	alloc      []Allocation
}

type NativeTokenSpec struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Decimals      uint8  `json:"decimals"`
	MintAuthority string `json:"mintAuthority,omitempty"`

	authority [20]byte
}

type CollectionSpec struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Minter string `json:"minter,omitempty"`

	minter [20]byte
}

// Allocation is a resolved alloc entry.
type Allocation struct {
	Account [20]byte
	Symbol  string
	Amount  *big.Int
}

// Default returns the genesis used when no file is configured: RWD and NEXUS
// minted by owner, a collection minted by owner and both pools funded.
func Default(owner [20]byte, rewardPool, rafflePool *big.Int) *GenesisSpec {
	ownerStr := crypto.FormatAddress(owner)
	spec := &GenesisSpec{
		Owner: ownerStr,
		NativeTokens: []NativeTokenSpec{
			{Symbol: "RWD", Name: "Rarity Reward", Decimals: 18},
			{Symbol: "NEXUS", Name: "Nexus", Decimals: 18},
		},
		Collection: CollectionSpec{Name: "Rarity Collection", Symbol: "RARE"},
		Pools:      map[string]string{},
	}
	if rewardPool != nil && rewardPool.Sign() > 0 {
		spec.Pools["RWD"] = rewardPool.String()
	}
	if rafflePool != nil && rafflePool.Sign() > 0 {
		spec.Pools["NEXUS"] = rafflePool.String()
	}
	if err := spec.validate(); err != nil {
		panic(fmt.Sprintf("genesis: invalid default spec: %v", err))
	}
	return spec
}

func LoadGenesisSpec(path string) (*GenesisSpec, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("genesis spec path must be provided")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis spec %q: %w", path, err)
	}
	var spec GenesisSpec
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode genesis spec %q: %w", path, err)
	}
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis spec %q: %w", path, err)
	}
	return &spec, nil
}

func (s *GenesisSpec) OwnerAddress() [20]byte { return s.ownerAddr }

func (s *GenesisSpec) RarityRootHash() ([32]byte, bool) {
	return s.rarityRoot, s.rarityRoot != ([32]byte{})
}

// PoolAmounts returns the vault funding per token symbol.
func (s *GenesisSpec) PoolAmounts() map[string]*big.Int {
	out := make(map[string]*big.Int, len(s.pools))
	for symbol, amount := range s.pools {
		out[symbol] = new(big.Int).Set(amount)
	}
	return out
}

// Allocations returns the resolved alloc entries sorted by account then symbol.
func (s *GenesisSpec) Allocations() []Allocation {
	out := make([]Allocation, len(s.alloc))
	for i, a := range s.alloc {
		out[i] = Allocation{Account: a.Account, Symbol: a.Symbol, Amount: new(big.Int).Set(a.Amount)}
	}
	return out
}

// Authority returns the resolved mint authority of the token, defaulting to the owner.
func (t NativeTokenSpec) Authority() [20]byte { return t.authority }

// MinterAddress returns the resolved collection minter, defaulting to the owner.
func (c CollectionSpec) MinterAddress() [20]byte { return c.minter }

func (s *GenesisSpec) validate() error {
	owner, err := crypto.ParseAddress(strings.TrimSpace(s.Owner))
	if err != nil {
		return fmt.Errorf("owner: %w", err)
	}
	if owner == ([20]byte{}) {
		return fmt.Errorf("owner must not be the zero address")
	}
	s.ownerAddr = owner

	// native tokens
	tokenSymbols := make(map[string]struct{}, len(s.NativeTokens))
	for i := range s.NativeTokens {
		t := &s.NativeTokens[i]
		if err := t.validate(owner); err != nil {
			return fmt.Errorf("nativeToken[%d]: %w", i, err)
		}
		key := strings.ToUpper(strings.TrimSpace(t.Symbol))
		if _, exists := tokenSymbols[key]; exists {
			return fmt.Errorf("nativeToken[%d]: duplicate symbol %q", i, t.Symbol)
		}
		tokenSymbols[key] = struct{}{}
	}

	// collection
	if strings.TrimSpace(s.Collection.Name) == "" || strings.TrimSpace(s.Collection.Symbol) == "" {
		return fmt.Errorf("collection: name and symbol must be provided")
	}
	s.Collection.minter = owner
	if minter := strings.TrimSpace(s.Collection.Minter); minter != "" {
		addr, err := crypto.ParseAddress(minter)
		if err != nil {
			return fmt.Errorf("collection.minter: %w", err)
		}
		s.Collection.minter = addr
	}

	// rarity root
	s.rarityRoot = [32]byte{}
	if trimmed := strings.TrimPrefix(strings.TrimSpace(s.RarityRoot), "0x"); trimmed != "" {
		raw, err := hex.DecodeString(trimmed)
		if err != nil || len(raw) != 32 {
			return fmt.Errorf("rarityRoot must be a 32-byte hex string")
		}
		copy(s.rarityRoot[:], raw)
	}

	// pools
	s.pools = make(map[string]*big.Int, len(s.Pools))
	for symbol, amount := range s.Pools {
		key := strings.ToUpper(strings.TrimSpace(symbol))
		if _, ok := tokenSymbols[key]; !ok {
			return fmt.Errorf("pools[%q]: unknown token", symbol)
		}
		value, err := parseAmountString(amount)
		if err != nil {
			return fmt.Errorf("pools[%q]: %w", symbol, err)
		}
		s.pools[key] = value
	}

	// alloc
	s.alloc = s.alloc[:0]
	accounts := make([]string, 0, len(s.Alloc))
	for account := range s.Alloc {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	for _, account := range accounts {
		addr, err := crypto.ParseAddress(account)
		if err != nil {
			return fmt.Errorf("alloc[%q]: %w", account, err)
		}
		tokenAlloc := s.Alloc[account]
		symbols := make([]string, 0, len(tokenAlloc))
		for symbol := range tokenAlloc {
			symbols = append(symbols, symbol)
		}
		sort.Strings(symbols)
		for _, symbol := range symbols {
			key := strings.ToUpper(strings.TrimSpace(symbol))
			if _, ok := tokenSymbols[key]; !ok {
				return fmt.Errorf("alloc[%q]: unknown token %q", account, symbol)
			}
			amount, err := parseAmountString(tokenAlloc[symbol])
			if err != nil {
				return fmt.Errorf("alloc[%q][%q]: %w", account, symbol, err)
			}
			if amount.Sign() == 0 {
				continue
			}
			s.alloc = append(s.alloc, Allocation{Account: addr, Symbol: key, Amount: amount})
		}
	}
	return nil
}

func (t *NativeTokenSpec) validate(owner [20]byte) error {
	if strings.TrimSpace(t.Symbol) == "" {
		return fmt.Errorf("symbol must be provided")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("name must be provided")
	}
	if t.Decimals > 18 {
		return fmt.Errorf("decimals must be 18 or fewer")
	}
	t.authority = owner
	if strings.TrimSpace(t.MintAuthority) != "" {
		addr, err := crypto.ParseAddress(t.MintAuthority)
		if err != nil {
			return fmt.Errorf("mintAuthority: %w", err)
		}
		t.authority = addr
	}
	return nil
}

func parseAmountString(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}
