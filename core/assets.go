package core

import (
	"errors"
	"fmt"
	"math/big"

	"raritystake/native/nft"
	"raritystake/native/token"
)

// ErrModuleAccount is returned when a direct asset call acts for, or sends an
// NFT into, the staking vault. Vault holdings move only through staking calls.
var ErrModuleAccount = errors.New("module account is not directly controllable")

func (n *Node) guardVault(acting ...[20]byte) error {
	vault := n.Vault()
	for _, addr := range acting {
		if addr == vault {
			return fmt.Errorf("%w: %x", ErrModuleAccount, vault)
		}
	}
	return nil
}

// InitCollection creates the NFT collection whose tokens are staked.
func (n *Node) InitCollection(name, symbol string, minter [20]byte) error {
	return n.apply("nft_init_collection", func(e *engines) error {
		return e.nfts.InitCollection(name, symbol, minter)
	})
}

// Collection returns the NFT collection metadata.
func (n *Node) Collection() (*nft.Collection, error) {
	var collection *nft.Collection
	err := n.view(func(e *engines) error {
		var err error
		collection, err = e.nfts.Collection()
		return err
	})
	return collection, err
}

// NFTMint mints count sequential tokens to `to`.
func (n *Node) NFTMint(caller, to [20]byte, count uint64) (uint64, uint64, error) {
	if err := n.guardVault(caller, to); err != nil {
		return 0, 0, err
	}
	var first, last uint64
	err := n.apply("nft_mint", func(e *engines) error {
		var err error
		first, last, err = e.nfts.Mint(caller, to, count)
		return err
	})
	return first, last, err
}

// NFTOwnerOf returns the owner of tokenID.
func (n *Node) NFTOwnerOf(tokenID uint64) ([20]byte, error) {
	var owner [20]byte
	err := n.view(func(e *engines) error {
		var err error
		owner, err = e.nfts.OwnerOf(tokenID)
		return err
	})
	return owner, err
}

// NFTBalanceOf returns the number of tokens held by owner.
func (n *Node) NFTBalanceOf(owner [20]byte) (uint64, error) {
	var count uint64
	err := n.view(func(e *engines) error {
		var err error
		count, err = e.nfts.BalanceOf(owner)
		return err
	})
	return count, err
}

// NFTApprove approves spender to move tokenID.
func (n *Node) NFTApprove(caller, spender [20]byte, tokenID uint64) error {
	if err := n.guardVault(caller); err != nil {
		return err
	}
	return n.apply("nft_approve", func(e *engines) error {
		return e.nfts.Approve(caller, spender, tokenID)
	})
}

// NFTSetApprovalForAll grants or revokes operator over all of caller's tokens.
func (n *Node) NFTSetApprovalForAll(caller, operator [20]byte, approved bool) error {
	if err := n.guardVault(caller); err != nil {
		return err
	}
	return n.apply("nft_set_approval_for_all", func(e *engines) error {
		return e.nfts.SetApprovalForAll(caller, operator, approved)
	})
}

// NFTIsApprovedForAll reports whether operator may move all of owner's tokens.
func (n *Node) NFTIsApprovedForAll(owner, operator [20]byte) (bool, error) {
	var approved bool
	err := n.view(func(e *engines) error {
		var err error
		approved, err = e.nfts.IsApprovedForAll(owner, operator)
		return err
	})
	return approved, err
}

// NFTTransferFrom moves tokenID from `from` to `to` with caller as operator.
// Tokens enter and leave the vault only by staking and unstaking.
func (n *Node) NFTTransferFrom(caller, from, to [20]byte, tokenID uint64) error {
	if err := n.guardVault(caller, from, to); err != nil {
		return err
	}
	return n.apply("nft_transfer", func(e *engines) error {
		return e.nfts.TransferFrom(caller, from, to, tokenID)
	})
}

// RegisterToken records a fungible token with its mint authority.
func (n *Node) RegisterToken(symbol, name string, decimals uint8, authority [20]byte) error {
	return n.apply("token_register", func(e *engines) error {
		return e.tokens.Register(symbol, name, decimals, authority)
	})
}

// TokenMetadata returns the metadata of symbol.
func (n *Node) TokenMetadata(symbol string) (*token.Metadata, error) {
	var meta *token.Metadata
	err := n.view(func(e *engines) error {
		var err error
		meta, err = e.tokens.Metadata(symbol)
		return err
	})
	return meta, err
}

// TokenList returns the registered token symbols.
func (n *Node) TokenList() ([]string, error) {
	var list []string
	err := n.view(func(e *engines) error {
		var err error
		list, err = e.manager.TokenList()
		return err
	})
	return list, err
}

// TokenMint mints amount of symbol to `to` and returns the new balance.
func (n *Node) TokenMint(caller [20]byte, symbol string, to [20]byte, amount *big.Int) (*big.Int, error) {
	if err := n.guardVault(caller); err != nil {
		return nil, err
	}
	var balance *big.Int
	err := n.apply("token_mint", func(e *engines) error {
		var err error
		balance, err = e.tokens.Mint(caller, symbol, to, amount)
		return err
	})
	return balance, err
}

// TokenTransfer moves amount of symbol from caller to `to` and returns the
// caller's remaining balance. Transfers into the vault top up its pools;
// transfers out of it are refused.
func (n *Node) TokenTransfer(caller [20]byte, symbol string, to [20]byte, amount *big.Int) (*big.Int, error) {
	if err := n.guardVault(caller); err != nil {
		return nil, err
	}
	var balance *big.Int
	err := n.apply("token_transfer", func(e *engines) error {
		if err := e.tokens.Transfer(symbol, caller, to, amount); err != nil {
			return err
		}
		var err error
		balance, err = e.tokens.BalanceOf(symbol, caller)
		return err
	})
	return balance, err
}

// TokenBalance returns addr's balance of symbol.
func (n *Node) TokenBalance(symbol string, addr [20]byte) (*big.Int, error) {
	var balance *big.Int
	err := n.view(func(e *engines) error {
		var err error
		balance, err = e.tokens.BalanceOf(symbol, addr)
		return err
	})
	return balance, err
}
