package core

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"raritystake/core/events"
	rskstate "raritystake/core/state"
	"raritystake/native/nft"
	"raritystake/native/raritystaking"
	"raritystake/native/token"
	"raritystake/observability/metrics"
	"raritystake/storage"
	"raritystake/storage/trie"
)

var headKey = []byte("raritystake/head")

// ErrDevModeDisabled is returned by clock manipulation outside dev mode.
var ErrDevModeDisabled = errors.New("dev mode disabled")

// Node is the single writer over the ledger state. Every mutating call runs
// against the working trie under stateMu and either commits as a whole or is
// reset to the last committed root.
type Node struct {
	db       storage.Database
	trie     *trie.Trie
	sequence uint64
	stateMu  sync.Mutex

	emitter  events.Emitter
	logger   *slog.Logger
	metrics  *metrics.StakingMetrics
	params   raritystaking.Params
	curve    raritystaking.RewardCurve
	selector raritystaking.Selector

	nowFn       func() int64
	clockOffset int64
	devMode     bool
}

// Option customises a Node at construction time.
type Option func(*Node)

// WithEmitter routes committed events to emitter.
func WithEmitter(emitter events.Emitter) Option {
	return func(n *Node) {
		if emitter != nil {
			n.emitter = emitter
		}
	}
}

// WithLogger sets the node logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Node) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithParams overrides the staking parameters.
func WithParams(params raritystaking.Params) Option {
	return func(n *Node) { n.params = params }
}

// WithRewardCurve overrides the reward strategy.
func WithRewardCurve(curve raritystaking.RewardCurve) Option {
	return func(n *Node) { n.curve = curve }
}

// WithSelector overrides the raffle strategy.
func WithSelector(selector raritystaking.Selector) Option {
	return func(n *Node) { n.selector = selector }
}

// WithClock overrides the wall clock. Mainly useful in tests.
func WithClock(now func() int64) Option {
	return func(n *Node) {
		if now != nil {
			n.nowFn = now
		}
	}
}

// WithDevMode enables clock manipulation through AdvanceClock.
func WithDevMode(enabled bool) Option {
	return func(n *Node) { n.devMode = enabled }
}

// WithMetrics records operation outcomes on m.
func WithMetrics(m *metrics.StakingMetrics) Option {
	return func(n *Node) { n.metrics = m }
}

// NewNode opens the ledger state stored in db, resuming from the last
// committed head when present.
func NewNode(db storage.Database, opts ...Option) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database required")
	}
	n := &Node{
		db:       db,
		emitter:  events.NoopEmitter{},
		logger:   slog.Default(),
		params:   raritystaking.DefaultParams(),
		curve:    raritystaking.DefaultRewardCurve(),
		selector: raritystaking.WeightedSelector{},
		nowFn:    func() int64 { return time.Now().Unix() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	if err := n.params.Validate(); err != nil {
		return nil, fmt.Errorf("core: staking params: %w", err)
	}

	root, sequence, err := loadHead(db)
	if err != nil {
		return nil, err
	}
	stateTrie, err := trie.NewTrie(db, root)
	if err != nil {
		return nil, fmt.Errorf("core: open state trie: %w", err)
	}
	n.trie = stateTrie
	n.sequence = sequence
	n.logger.Info("ledger state opened",
		slog.String("root", stateTrie.Root().Hex()),
		slog.Uint64("sequence", sequence))
	return n, nil
}

func loadHead(db storage.Database) ([]byte, uint64, error) {
	ok, err := db.Has(headKey)
	if err != nil {
		return nil, 0, fmt.Errorf("core: read head: %w", err)
	}
	if !ok {
		return nil, 0, nil
	}
	raw, err := db.Get(headKey)
	if err != nil {
		return nil, 0, fmt.Errorf("core: read head: %w", err)
	}
	if len(raw) != common.HashLength+8 {
		return nil, 0, fmt.Errorf("core: corrupt head record (%d bytes)", len(raw))
	}
	return raw[:common.HashLength], binary.BigEndian.Uint64(raw[common.HashLength:]), nil
}

func (n *Node) storeHead(root common.Hash) error {
	raw := make([]byte, common.HashLength+8)
	copy(raw, root.Bytes())
	binary.BigEndian.PutUint64(raw[common.HashLength:], n.sequence)
	return n.db.Put(headKey, raw)
}

// StateRoot returns the last committed state root.
func (n *Node) StateRoot() common.Hash {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.trie.Root()
}

// Sequence returns the number of committed calls.
func (n *Node) Sequence() uint64 {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.sequence
}

// Now returns the ledger clock including any dev offset.
func (n *Node) Now() int64 {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.now()
}

func (n *Node) now() int64 {
	return n.nowFn() + n.clockOffset
}

// AdvanceClock shifts the ledger clock forward by seconds and returns the total
// offset. Only available in dev mode.
func (n *Node) AdvanceClock(seconds int64) (int64, error) {
	if !n.devMode {
		return 0, ErrDevModeDisabled
	}
	if seconds < 0 {
		return 0, fmt.Errorf("core: clock cannot move backwards")
	}
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	n.clockOffset += seconds
	n.logger.Warn("ledger clock advanced", slog.Int64("seconds", seconds), slog.Int64("offset", n.clockOffset))
	return n.clockOffset, nil
}

// engines bundles the native engines bound to one state transition.
type engines struct {
	manager *rskstate.Manager
	tokens  *token.Engine
	nfts    *nft.Engine
	staking *raritystaking.Engine
}

func (n *Node) bind(emitter events.Emitter) (*engines, error) {
	manager := rskstate.NewManager(n.trie)
	now := n.now()
	clock := func() int64 { return now }

	tokens := token.NewEngine()
	tokens.SetState(manager)
	tokens.SetEmitter(emitter)

	nfts := nft.NewEngine()
	nfts.SetState(manager)
	nfts.SetEmitter(emitter)

	staking := raritystaking.NewEngine()
	staking.SetState(manager)
	staking.SetCustody(nfts)
	staking.SetTreasury(tokens)
	staking.SetEmitter(emitter)
	staking.SetNowFunc(clock)
	staking.SetRewardCurve(n.curve)
	staking.SetSelector(n.selector)
	if err := staking.SetParams(n.params); err != nil {
		return nil, err
	}
	return &engines{manager: manager, tokens: tokens, nfts: nfts, staking: staking}, nil
}

// apply runs fn as one atomic state transition.
func (n *Node) apply(op string, fn func(*engines) error) (err error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	started := time.Now()
	defer func() { n.metrics.ObserveOperation(op, err, time.Since(started)) }()

	buffer := &events.Buffer{}
	bound, err := n.bind(buffer)
	if err != nil {
		return err
	}
	if err = fn(bound); err != nil {
		buffer.Discard()
		if resetErr := n.trie.Rollback(); resetErr != nil {
			n.logger.Error("state rollback failed", slog.String("op", op), slog.Any("error", resetErr))
			return errors.Join(err, resetErr)
		}
		n.logger.Debug("state transition rejected", slog.String("op", op), slog.Any("error", err))
		return err
	}

	previous := n.trie.Root()
	n.sequence++
	root, err := n.trie.Commit(n.sequence)
	if err != nil {
		n.sequence--
		buffer.Discard()
		_ = n.trie.Rollback()
		n.logger.Error("state commit failed", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("core: commit %s: %w", op, err)
	}
	if err = n.storeHead(root); err != nil {
		n.sequence--
		buffer.Discard()
		if restoreErr := n.trie.Restore(previous); restoreErr != nil {
			err = errors.Join(err, restoreErr)
		}
		n.logger.Error("persist head failed", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("core: persist head for %s: %w", op, err)
	}
	for _, evt := range buffer.Drain() {
		n.emitter.Emit(evt)
	}
	n.logger.Debug("state transition committed",
		slog.String("op", op),
		slog.String("root", root.Hex()),
		slog.Uint64("sequence", n.sequence))
	return nil
}

// view runs fn against the committed state without mutating it.
func (n *Node) view(fn func(*engines) error) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	bound, err := n.bind(events.NoopEmitter{})
	if err != nil {
		return err
	}
	return fn(bound)
}
