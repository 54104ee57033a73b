package raritystaking

import (
	"encoding/binary"
	"errors"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"lukechampine.com/blake3"
)

var errNoRaffleEntries = errors.New("raritystaking: raffle requires at least one entry")

// RaffleEntry is a staked token taking part in a raffle round.
type RaffleEntry struct {
	TokenID uint64
	Owner   [20]byte
	Weight  uint64
}

// Selector picks winners for a raffle round. It returns indices into entries,
// without duplicates, and must be deterministic for a given seed.
type Selector interface {
	Select(seed [32]byte, entries []RaffleEntry, winners int) ([]int, error)
}

// SelectorFunc adapts a plain function to the Selector interface.
type SelectorFunc func(seed [32]byte, entries []RaffleEntry, winners int) ([]int, error)

// Select implements Selector.
func (f SelectorFunc) Select(seed [32]byte, entries []RaffleEntry, winners int) ([]int, error) {
	return f(seed, entries, winners)
}

// WeightedSelector draws winners without replacement with probability
// proportional to each entry's weight. Draw n uses keccak256(seed || n) as its
// random word. Zero weights count as one so every entry stays eligible.
type WeightedSelector struct{}

// Select implements Selector.
func (WeightedSelector) Select(seed [32]byte, entries []RaffleEntry, winners int) ([]int, error) {
	if len(entries) == 0 {
		return nil, errNoRaffleEntries
	}
	if winners <= 0 {
		return []int{}, nil
	}
	if winners > len(entries) {
		winners = len(entries)
	}
	remaining := make([]int, len(entries))
	total := new(uint256.Int)
	for i, entry := range entries {
		remaining[i] = i
		total.Add(total, uint256.NewInt(entryWeight(entry)))
	}
	picks := make([]int, 0, winners)
	var counter [8]byte
	for draw := 0; draw < winners; draw++ {
		binary.BigEndian.PutUint64(counter[:], uint64(draw))
		word := new(uint256.Int).SetBytes32(ethcrypto.Keccak256(seed[:], counter[:]))
		target := new(uint256.Int).Mod(word, total)

		cumulative := new(uint256.Int)
		chosen := len(remaining) - 1
		for pos, idx := range remaining {
			cumulative.Add(cumulative, uint256.NewInt(entryWeight(entries[idx])))
			if target.Lt(cumulative) {
				chosen = pos
				break
			}
		}
		winner := remaining[chosen]
		picks = append(picks, winner)
		total.Sub(total, uint256.NewInt(entryWeight(entries[winner])))
		remaining = append(remaining[:chosen], remaining[chosen+1:]...)
	}
	return picks, nil
}

func entryWeight(entry RaffleEntry) uint64 {
	if entry.Weight == 0 {
		return 1
	}
	return entry.Weight
}

// deriveRaffleSeed chains the previous round's seed with the round inputs.
func deriveRaffleSeed(previous [32]byte, round uint64, now uint64, tokenIDs []uint64) [32]byte {
	buf := make([]byte, 0, 32+16+8*len(tokenIDs))
	buf = append(buf, previous[:]...)
	buf = binary.BigEndian.AppendUint64(buf, round)
	buf = binary.BigEndian.AppendUint64(buf, now)
	for _, id := range tokenIDs {
		buf = binary.BigEndian.AppendUint64(buf, id)
	}
	return blake3.Sum256(buf)
}
