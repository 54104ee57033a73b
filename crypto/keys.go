package crypto

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Prefix is the bech32 human-readable part of every ledger account.
const Prefix = "rsk"

// ErrInvalidAddress is returned for strings that are not rsk accounts.
var ErrInvalidAddress = errors.New("crypto: invalid address")

// FormatAddress renders addr as a bech32 rsk account.
func FormatAddress(addr [20]byte) string {
	encoded, err := encode(Prefix, addr)
	if err != nil {
		// 20 bytes always regroup into 5-bit words.
		panic(err)
	}
	return encoded
}

func encode(hrp string, addr [20]byte) (string, error) {
	words, err := bech32.ConvertBits(addr[:], 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrp, words)
}

// ParseAddress decodes a bech32 rsk account.
func ParseAddress(s string) ([20]byte, error) {
	var out [20]byte
	hrp, words, err := bech32.Decode(strings.TrimSpace(s))
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if hrp != Prefix {
		return out, fmt.Errorf("%w: prefix %q", ErrInvalidAddress, hrp)
	}
	raw, err := bech32.ConvertBits(words, 5, 8, false)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != len(out) {
		return out, fmt.Errorf("%w: %d bytes", ErrInvalidAddress, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// ModuleAddress derives the keyless account of a native module. Only the
// module itself moves what that account holds.
func ModuleAddress(name string) [20]byte {
	var out [20]byte
	copy(out[:], ethcrypto.Keccak256([]byte("module:"+name))[12:])
	return out
}

// Key is a secp256k1 account key.
type Key struct {
	priv *ecdsa.PrivateKey
}

// GenerateKey creates a random account key.
func GenerateKey() (*Key, error) {
	priv, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &Key{priv: priv}, nil
}

// Address returns the account controlled by k.
func (k *Key) Address() [20]byte {
	return ethcrypto.PubkeyToAddress(k.priv.PublicKey)
}
