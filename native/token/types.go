package token

import (
	"errors"
	"math/big"
	"strings"
)

var (
	ErrTokenExists         = errors.New("token: already registered")
	ErrTokenNotFound       = errors.New("token: not registered")
	ErrInvalidSymbol       = errors.New("token: symbol must not be empty")
	ErrInvalidAmount       = errors.New("token: amount must be positive")
	ErrInsufficientBalance = errors.New("token: insufficient balance")
	ErrNotMintAuthority    = errors.New("token: caller is not the mint authority")
	ErrZeroRecipient       = errors.New("token: recipient must not be the zero address")
)

// Metadata describes a registered fungible token.
type Metadata struct {
	Symbol        string
	Name          string
	Decimals      uint8
	MintAuthority [20]byte
	TotalSupply   *big.Int
}

// Clone returns a deep copy of the metadata.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	clone := *m
	if m.TotalSupply != nil {
		clone.TotalSupply = new(big.Int).Set(m.TotalSupply)
	}
	return &clone
}

// NormalizeSymbol upper-cases and trims a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
