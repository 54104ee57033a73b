package token

import (
	"errors"
	"fmt"
	"math/big"

	"raritystake/core/events"
)

var errNilState = errors.New("token engine: state not configured")

type engineState interface {
	TokenMetadataGet(symbol string) (*Metadata, bool, error)
	TokenMetadataPut(meta *Metadata) error
	TokenBalanceGet(symbol string, addr [20]byte) (*big.Int, error)
	TokenBalancePut(symbol string, addr [20]byte, amount *big.Int) error
}

// Engine maintains the fungible ledgers used for staking rewards and raffle prizes.
type Engine struct {
	state   engineState
	emitter events.Emitter
}

// NewEngine constructs a token engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

// Register records a new token. The mint authority is the only account allowed
// to create supply afterwards.
func (e *Engine) Register(symbol, name string, decimals uint8, authority [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	normalized := NormalizeSymbol(symbol)
	if normalized == "" {
		return ErrInvalidSymbol
	}
	if _, ok, err := e.state.TokenMetadataGet(normalized); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("%w: %s", ErrTokenExists, normalized)
	}
	return e.state.TokenMetadataPut(&Metadata{
		Symbol:        normalized,
		Name:          name,
		Decimals:      decimals,
		MintAuthority: authority,
		TotalSupply:   big.NewInt(0),
	})
}

// Metadata returns the registered metadata for symbol.
func (e *Engine) Metadata(symbol string) (*Metadata, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	normalized := NormalizeSymbol(symbol)
	meta, ok, err := e.state.TokenMetadataGet(normalized)
	if err != nil {
		return nil, err
	}
	if !ok || meta == nil {
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, normalized)
	}
	return meta, nil
}

// BalanceOf returns the balance of addr for symbol.
func (e *Engine) BalanceOf(symbol string, addr [20]byte) (*big.Int, error) {
	meta, err := e.Metadata(symbol)
	if err != nil {
		return nil, err
	}
	return e.state.TokenBalanceGet(meta.Symbol, addr)
}

// Mint creates amount of new supply credited to `to`.
func (e *Engine) Mint(caller [20]byte, symbol string, to [20]byte, amount *big.Int) (*big.Int, error) {
	meta, err := e.Metadata(symbol)
	if err != nil {
		return nil, err
	}
	if caller != meta.MintAuthority {
		return nil, ErrNotMintAuthority
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if to == ([20]byte{}) {
		return nil, ErrZeroRecipient
	}
	balance, err := e.state.TokenBalanceGet(meta.Symbol, to)
	if err != nil {
		return nil, err
	}
	balance = new(big.Int).Add(balance, amount)
	if err := e.state.TokenBalancePut(meta.Symbol, to, balance); err != nil {
		return nil, err
	}
	meta.TotalSupply = new(big.Int).Add(meta.TotalSupply, amount)
	if err := e.state.TokenMetadataPut(meta); err != nil {
		return nil, err
	}
	e.emit(events.TokenMinted{Symbol: meta.Symbol, To: to, Amount: new(big.Int).Set(amount)})
	return balance, nil
}

// Transfer moves amount of symbol from `from` to `to`. Authorization of the
// sender is the caller's responsibility.
func (e *Engine) Transfer(symbol string, from, to [20]byte, amount *big.Int) error {
	meta, err := e.Metadata(symbol)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if to == ([20]byte{}) {
		return ErrZeroRecipient
	}
	fromBalance, err := e.state.TokenBalanceGet(meta.Symbol, from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, fromBalance, amount)
	}
	if from == to {
		return nil
	}
	toBalance, err := e.state.TokenBalanceGet(meta.Symbol, to)
	if err != nil {
		return err
	}
	if err := e.state.TokenBalancePut(meta.Symbol, from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	if err := e.state.TokenBalancePut(meta.Symbol, to, new(big.Int).Add(toBalance, amount)); err != nil {
		return err
	}
	e.emit(events.TokenTransferred{Symbol: meta.Symbol, From: from, To: to, Amount: new(big.Int).Set(amount)})
	return nil
}
