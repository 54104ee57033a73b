package state

import (
	"fmt"
	"math/big"
	"sort"

	"raritystake/native/token"
)

// TokenMetadataGet loads the metadata of a registered token.
func (m *Manager) TokenMetadataGet(symbol string) (*token.Metadata, bool, error) {
	meta := new(token.Metadata)
	ok, err := m.KVGet(TokenMetadataKey(symbol), meta)
	if err != nil || !ok {
		return nil, ok, err
	}
	if meta.TotalSupply == nil {
		meta.TotalSupply = big.NewInt(0)
	}
	return meta, true, nil
}

// TokenMetadataPut persists token metadata and records the symbol in the
// token index on first write.
func (m *Manager) TokenMetadataPut(meta *token.Metadata) error {
	if meta == nil {
		return fmt.Errorf("token: metadata must not be nil")
	}
	key := TokenMetadataKey(meta.Symbol)
	exists, err := m.KVGet(key, nil)
	if err != nil {
		return err
	}
	if !exists {
		list, err := m.TokenList()
		if err != nil {
			return err
		}
		list = append(list, meta.Symbol)
		sort.Strings(list)
		if err := m.KVPut(tokenListKeyBytes, list); err != nil {
			return err
		}
	}
	return m.KVPut(key, meta)
}

// TokenList returns all registered token symbols in sorted order.
func (m *Manager) TokenList() ([]string, error) {
	return loadList[string](m, tokenListKeyBytes)
}

// TokenBalanceGet returns addr's balance of symbol, zero when unset.
func (m *Manager) TokenBalanceGet(symbol string, addr [20]byte) (*big.Int, error) {
	balance := new(big.Int)
	ok, err := m.KVGet(TokenBalanceKey(symbol, addr), balance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return balance, nil
}

// TokenBalancePut stores addr's balance of symbol. Zero balances are pruned.
func (m *Manager) TokenBalancePut(symbol string, addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return m.KVDelete(TokenBalanceKey(symbol, addr))
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("token: negative balance for %s", symbol)
	}
	return m.KVPut(TokenBalanceKey(symbol, addr), amount)
}
