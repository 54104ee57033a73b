package state

import (
	"encoding/binary"
	"strings"
)

var (
	tokenMetadataPrefix   = []byte("token/meta/")
	tokenBalancePrefix    = []byte("token/balance/")
	tokenListKeyBytes     = []byte("token/list")
	nftCollectionKeyBytes = []byte("nft/collection")
	nftOwnerPrefix        = []byte("nft/owner/")
	nftBalancePrefix      = []byte("nft/balance/")
	nftApprovedPrefix     = []byte("nft/approved/")
	nftOperatorPrefix     = []byte("nft/operator/")
	rarityLedgerKeyBytes  = []byte("rarity/ledger")
	rarityTokenPrefix     = []byte("rarity/token/")
	rarityStakePrefix     = []byte("rarity/stake/")
	rarityUserPrefix      = []byte("rarity/user/")
	rarityRafflePrefix    = []byte("rarity/raffle/")
)

func withID(prefix []byte, id uint64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], id)
	return key
}

func withAddr(prefix []byte, addr [20]byte) []byte {
	key := make([]byte, len(prefix)+len(addr))
	copy(key, prefix)
	copy(key[len(prefix):], addr[:])
	return key
}

// TokenMetadataKey returns the state key of a token's metadata.
func TokenMetadataKey(symbol string) []byte {
	return append(append([]byte(nil), tokenMetadataPrefix...), strings.ToUpper(symbol)...)
}

// TokenBalanceKey returns the state key of addr's balance of symbol.
func TokenBalanceKey(symbol string, addr [20]byte) []byte {
	key := append(append([]byte(nil), tokenBalancePrefix...), strings.ToUpper(symbol)...)
	key = append(key, '/')
	return append(key, addr[:]...)
}

// NFTOwnerKey returns the state key of a token's owner.
func NFTOwnerKey(id uint64) []byte { return withID(nftOwnerPrefix, id) }

// NFTBalanceKey returns the state key of an account's token count.
func NFTBalanceKey(owner [20]byte) []byte { return withAddr(nftBalancePrefix, owner) }

// NFTApprovedKey returns the state key of a token's single approval.
func NFTApprovedKey(id uint64) []byte { return withID(nftApprovedPrefix, id) }

// NFTOperatorKey returns the state key of an operator approval.
func NFTOperatorKey(owner, operator [20]byte) []byte {
	return append(withAddr(nftOperatorPrefix, owner), operator[:]...)
}

// RarityTokenKey returns the state key of a token's rarity entry.
func RarityTokenKey(id uint64) []byte { return withID(rarityTokenPrefix, id) }

// RarityStakeKey returns the state key of a token's stake record.
func RarityStakeKey(id uint64) []byte { return withID(rarityStakePrefix, id) }

// RarityUserKey returns the state key of an owner's staked token index.
func RarityUserKey(owner [20]byte) []byte { return withAddr(rarityUserPrefix, owner) }

// RarityRaffleKey returns the state key of a completed raffle round.
func RarityRaffleKey(round uint64) []byte { return withID(rarityRafflePrefix, round) }
