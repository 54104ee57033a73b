package raritystaking

import (
	"bytes"
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// RarityLeaf is the commitment for a single (tokenId, score) pair: the keccak256
// of both values encoded as 32-byte big-endian words.
func RarityLeaf(tokenID, score uint64) [32]byte {
	var buf [64]byte
	binary.BigEndian.PutUint64(buf[24:32], tokenID)
	binary.BigEndian.PutUint64(buf[56:64], score)
	var leaf [32]byte
	copy(leaf[:], ethcrypto.Keccak256(buf[:]))
	return leaf
}

func hashPair(a, b [32]byte) [32]byte {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	var out [32]byte
	copy(out[:], ethcrypto.Keccak256(a[:], b[:]))
	return out
}

// VerifyRarityProof checks a sorted-pair Merkle proof of leaf against root.
func VerifyRarityProof(root, leaf [32]byte, proof [][32]byte) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}

// BuildRarityTree commits a rarity dataset and returns its root together with a
// copy of entries whose Proof fields are populated. A layer with an odd number
// of nodes promotes its last node unchanged.
func BuildRarityTree(entries []RarityEntry) ([32]byte, []RarityEntry) {
	out := make([]RarityEntry, len(entries))
	if len(entries) == 0 {
		return [32]byte{}, out
	}
	layer := make([][32]byte, len(entries))
	positions := make([]int, len(entries))
	for i, entry := range entries {
		layer[i] = RarityLeaf(entry.TokenID, entry.Score)
		positions[i] = i
		out[i] = RarityEntry{TokenID: entry.TokenID, Score: entry.Score}
	}
	for len(layer) > 1 {
		for i := range out {
			pos := positions[i]
			sibling := pos ^ 1
			if sibling < len(layer) {
				out[i].Proof = append(out[i].Proof, layer[sibling])
			}
			positions[i] = pos / 2
		}
		next := make([][32]byte, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			if i+1 < len(layer) {
				next = append(next, hashPair(layer[i], layer[i+1]))
			} else {
				next = append(next, layer[i])
			}
		}
		layer = next
	}
	return layer[0], out
}
