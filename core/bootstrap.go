package core

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"raritystake/core/genesis"
	"raritystake/native/raritystaking"
)

// ErrAlreadyBootstrapped is returned when genesis is applied to an initialized ledger.
var ErrAlreadyBootstrapped = errors.New("ledger already bootstrapped")

// Bootstrapped reports whether the staking ledger exists.
func (n *Node) Bootstrapped() (bool, error) {
	_, err := n.Owner()
	if errors.Is(err, raritystaking.ErrLedgerNotInitialized) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ApplyGenesis creates the tokens, the collection and the staking ledger and
// funds the vault pools, all in one state transition.
func (n *Node) ApplyGenesis(spec *genesis.GenesisSpec) error {
	if spec == nil {
		return fmt.Errorf("core: genesis spec required")
	}
	ok, err := n.Bootstrapped()
	if err != nil {
		return err
	}
	if ok {
		return ErrAlreadyBootstrapped
	}
	owner := spec.OwnerAddress()
	err = n.apply("genesis", func(e *engines) error {
		authorities := make(map[string][20]byte, len(spec.NativeTokens))
		for _, tok := range spec.NativeTokens {
			if err := e.tokens.Register(tok.Symbol, tok.Name, tok.Decimals, tok.Authority()); err != nil {
				return fmt.Errorf("register %s: %w", tok.Symbol, err)
			}
			meta, err := e.tokens.Metadata(tok.Symbol)
			if err != nil {
				return err
			}
			authorities[meta.Symbol] = tok.Authority()
		}
		for _, symbol := range []string{n.params.RewardToken, n.params.RaffleToken} {
			if _, err := e.tokens.Metadata(symbol); err != nil {
				return fmt.Errorf("staking token %s: %w", symbol, err)
			}
		}
		if err := e.nfts.InitCollection(spec.Collection.Name, spec.Collection.Symbol, spec.Collection.MinterAddress()); err != nil {
			return err
		}
		if err := e.staking.Initialize(owner); err != nil {
			return err
		}
		if root, ok := spec.RarityRootHash(); ok {
			if err := e.staking.SetRarityRoot(owner, root); err != nil {
				return err
			}
		}

		pools := spec.PoolAmounts()
		symbols := make([]string, 0, len(pools))
		for symbol := range pools {
			symbols = append(symbols, symbol)
		}
		sort.Strings(symbols)
		vault := e.staking.Vault()
		for _, symbol := range symbols {
			if pools[symbol].Sign() == 0 {
				continue
			}
			if _, err := e.tokens.Mint(authorities[symbol], symbol, vault, pools[symbol]); err != nil {
				return fmt.Errorf("fund %s pool: %w", symbol, err)
			}
		}
		for _, alloc := range spec.Allocations() {
			if _, err := e.tokens.Mint(authorities[alloc.Symbol], alloc.Symbol, alloc.Account, alloc.Amount); err != nil {
				return fmt.Errorf("alloc %s: %w", alloc.Symbol, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	n.logger.Info("genesis applied",
		slog.Int("tokens", len(spec.NativeTokens)),
		slog.String("collection", spec.Collection.Symbol),
		slog.String("root", n.StateRoot().Hex()))
	return nil
}
