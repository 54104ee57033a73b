package nft

import (
	"errors"
	"fmt"
	"strings"

	"raritystake/core/events"
)

var errNilState = errors.New("nft engine: state not configured")

type engineState interface {
	NFTCollectionGet() (*Collection, bool, error)
	NFTCollectionPut(c *Collection) error
	NFTOwnerGet(id uint64) ([20]byte, bool, error)
	NFTOwnerPut(id uint64, owner [20]byte) error
	NFTBalanceGet(owner [20]byte) (uint64, error)
	NFTBalancePut(owner [20]byte, count uint64) error
	NFTApprovedGet(id uint64) ([20]byte, error)
	NFTApprovedPut(id uint64, spender [20]byte) error
	NFTOperatorGet(owner, operator [20]byte) (bool, error)
	NFTOperatorPut(owner, operator [20]byte, approved bool) error
}

// Engine implements the ERC-721 style collection whose tokens are staked.
type Engine struct {
	state   engineState
	emitter events.Emitter
}

// NewEngine constructs an NFT engine with a no-op emitter.
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

// InitCollection creates the collection record. It may only run once.
func (e *Engine) InitCollection(name, symbol string, minter [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if _, ok, err := e.state.NFTCollectionGet(); err != nil {
		return err
	} else if ok {
		return ErrCollectionExists
	}
	return e.state.NFTCollectionPut(&Collection{
		Name:   strings.TrimSpace(name),
		Symbol: strings.ToUpper(strings.TrimSpace(symbol)),
		Minter: minter,
	})
}

// Collection returns the collection record.
func (e *Engine) Collection() (*Collection, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	c, ok, err := e.state.NFTCollectionGet()
	if err != nil {
		return nil, err
	}
	if !ok || c == nil {
		return nil, ErrCollectionMissing
	}
	return c, nil
}

// Mint creates count sequential tokens for `to`, continuing from the current
// supply. Token ids start at 1.
func (e *Engine) Mint(caller, to [20]byte, count uint64) (first, last uint64, err error) {
	c, err := e.Collection()
	if err != nil {
		return 0, 0, err
	}
	if caller != c.Minter {
		return 0, 0, ErrNotMinter
	}
	if count == 0 || count > MaxMintPerCall {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidMintCount, count)
	}
	if to == ([20]byte{}) {
		return 0, 0, ErrZeroRecipient
	}
	first = c.Supply + 1
	last = c.Supply + count
	for id := first; id <= last; id++ {
		if err := e.state.NFTOwnerPut(id, to); err != nil {
			return 0, 0, err
		}
		e.emit(events.NFTTransferred{To: to, TokenID: id})
	}
	balance, err := e.state.NFTBalanceGet(to)
	if err != nil {
		return 0, 0, err
	}
	if err := e.state.NFTBalancePut(to, balance+count); err != nil {
		return 0, 0, err
	}
	c.Supply = last
	if err := e.state.NFTCollectionPut(c); err != nil {
		return 0, 0, err
	}
	return first, last, nil
}

// OwnerOf returns the current holder of id.
func (e *Engine) OwnerOf(id uint64) ([20]byte, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, errNilState
	}
	owner, ok, err := e.state.NFTOwnerGet(id)
	if err != nil {
		return [20]byte{}, err
	}
	if !ok || owner == ([20]byte{}) {
		return [20]byte{}, fmt.Errorf("%w: %d", ErrTokenNotFound, id)
	}
	return owner, nil
}

// BalanceOf returns how many tokens owner holds.
func (e *Engine) BalanceOf(owner [20]byte) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.NFTBalanceGet(owner)
}

// Approve grants spender the right to transfer a single token.
func (e *Engine) Approve(caller, spender [20]byte, id uint64) error {
	owner, err := e.OwnerOf(id)
	if err != nil {
		return err
	}
	if spender == owner {
		return ErrSelfApproval
	}
	if caller != owner {
		operator, err := e.state.NFTOperatorGet(owner, caller)
		if err != nil {
			return err
		}
		if !operator {
			return ErrNotApproved
		}
	}
	return e.state.NFTApprovedPut(id, spender)
}

// GetApproved returns the single-token approval for id.
func (e *Engine) GetApproved(id uint64) ([20]byte, error) {
	if _, err := e.OwnerOf(id); err != nil {
		return [20]byte{}, err
	}
	return e.state.NFTApprovedGet(id)
}

// SetApprovalForAll grants or revokes operator rights over all of caller's tokens.
func (e *Engine) SetApprovalForAll(caller, operator [20]byte, approved bool) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if caller == operator {
		return ErrSelfApproval
	}
	if err := e.state.NFTOperatorPut(caller, operator, approved); err != nil {
		return err
	}
	e.emit(events.NFTApprovalForAll{Owner: caller, Operator: operator, Approved: approved})
	return nil
}

// IsApprovedForAll reports whether operator may move any of owner's tokens.
func (e *Engine) IsApprovedForAll(owner, operator [20]byte) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	return e.state.NFTOperatorGet(owner, operator)
}

// TransferFrom moves id from `from` to `to` on behalf of operator. The operator
// must be the owner, the approved spender of id, or an approved operator.
func (e *Engine) TransferFrom(operator, from, to [20]byte, id uint64) error {
	owner, err := e.OwnerOf(id)
	if err != nil {
		return err
	}
	if owner != from {
		return fmt.Errorf("%w: token %d", ErrNotOwner, id)
	}
	if to == ([20]byte{}) {
		return ErrZeroRecipient
	}
	if operator != owner {
		approved, err := e.state.NFTApprovedGet(id)
		if err != nil {
			return err
		}
		if approved != operator {
			isOperator, err := e.state.NFTOperatorGet(owner, operator)
			if err != nil {
				return err
			}
			if !isOperator {
				return fmt.Errorf("%w: token %d", ErrNotApproved, id)
			}
		}
	}
	if err := e.state.NFTApprovedPut(id, [20]byte{}); err != nil {
		return err
	}
	if from != to {
		fromBalance, err := e.state.NFTBalanceGet(from)
		if err != nil {
			return err
		}
		if fromBalance > 0 {
			fromBalance--
		}
		if err := e.state.NFTBalancePut(from, fromBalance); err != nil {
			return err
		}
		toBalance, err := e.state.NFTBalanceGet(to)
		if err != nil {
			return err
		}
		if err := e.state.NFTBalancePut(to, toBalance+1); err != nil {
			return err
		}
	}
	if err := e.state.NFTOwnerPut(id, to); err != nil {
		return err
	}
	e.emit(events.NFTTransferred{From: from, To: to, TokenID: id})
	return nil
}
