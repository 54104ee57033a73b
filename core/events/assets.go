package events

import (
	"math/big"
	"strconv"
	"strings"

	"raritystake/core/types"
	"raritystake/crypto"
)

const (
	TypeNFTTransferred   = "nft.transferred"
	TypeNFTApprovalAll   = "nft.approval_for_all"
	TypeTokenTransferred = "token.transferred"
	TypeTokenMinted      = "token.minted"
)

// NFTTransferred is emitted whenever a collection token changes hands, including mints.
type NFTTransferred struct {
	From    [20]byte
	To      [20]byte
	TokenID uint64
}

func (NFTTransferred) EventType() string { return TypeNFTTransferred }

func (e NFTTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeNFTTransferred,
		Attributes: map[string]string{
			"from":    crypto.FormatAddress(e.From),
			"to":      crypto.FormatAddress(e.To),
			"tokenId": strconv.FormatUint(e.TokenID, 10),
		},
	}
}

// NFTApprovalForAll is emitted when an owner grants or revokes an operator.
type NFTApprovalForAll struct {
	Owner    [20]byte
	Operator [20]byte
	Approved bool
}

func (NFTApprovalForAll) EventType() string { return TypeNFTApprovalAll }

func (e NFTApprovalForAll) Event() *types.Event {
	return &types.Event{
		Type: TypeNFTApprovalAll,
		Attributes: map[string]string{
			"owner":    crypto.FormatAddress(e.Owner),
			"operator": crypto.FormatAddress(e.Operator),
			"approved": strconv.FormatBool(e.Approved),
		},
	}
}

// TokenTransferred is emitted for fungible token movements between accounts.
type TokenTransferred struct {
	Symbol string
	From   [20]byte
	To     [20]byte
	Amount *big.Int
}

func (TokenTransferred) EventType() string { return TypeTokenTransferred }

func (e TokenTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenTransferred,
		Attributes: map[string]string{
			"token":  normalizeAsset(e.Symbol),
			"from":   crypto.FormatAddress(e.From),
			"to":     crypto.FormatAddress(e.To),
			"amount": formatAmount(e.Amount),
		},
	}
}

// TokenMinted is emitted when new fungible supply is created.
type TokenMinted struct {
	Symbol string
	To     [20]byte
	Amount *big.Int
}

func (TokenMinted) EventType() string { return TypeTokenMinted }

func (e TokenMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenMinted,
		Attributes: map[string]string{
			"token":  normalizeAsset(e.Symbol),
			"to":     crypto.FormatAddress(e.To),
			"amount": formatAmount(e.Amount),
		},
	}
}

func normalizeAsset(asset string) string {
	return strings.ToUpper(strings.TrimSpace(asset))
}
