package nft

import "errors"

var (
	ErrTokenNotFound     = errors.New("nft: token does not exist")
	ErrNotOwner          = errors.New("nft: transfer from incorrect owner")
	ErrNotApproved       = errors.New("nft: caller is not owner nor approved")
	ErrNotMinter         = errors.New("nft: caller is not the collection minter")
	ErrZeroRecipient     = errors.New("nft: transfer to the zero address")
	ErrInvalidMintCount  = errors.New("nft: mint count out of range")
	ErrSelfApproval      = errors.New("nft: approve to caller")
	ErrCollectionMissing = errors.New("nft: collection not initialised")
	ErrCollectionExists  = errors.New("nft: collection already initialised")
)

// MaxMintPerCall bounds how many tokens a single mint may create.
const MaxMintPerCall = 1_000

// Collection holds the collection-wide bookkeeping.
type Collection struct {
	Name   string
	Symbol string
	Minter [20]byte
	Supply uint64
}
