package metrics

import (
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"raritystake/core/events"
	"raritystake/native/raritystaking"
	"raritystake/observability"
)

type StakingMetrics struct {
	operations   *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	stakedTokens prometheus.Gauge
	rewardsPaid  *prometheus.CounterVec
	raffleRounds prometheus.Counter
}

var (
	stakingOnce     sync.Once
	stakingRegistry *StakingMetrics
)

// Staking returns the metrics registry for ledger state transitions.
func Staking() *StakingMetrics {
	stakingOnce.Do(func() {
		stakingRegistry = &StakingMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "raritystake_operations_total",
				Help: "Count of ledger state transitions by operation and outcome.",
			}, []string{"op", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "raritystake_operation_duration_seconds",
				Help:    "Latency of ledger state transitions including commit.",
				Buckets: prometheus.DefBuckets,
			}, []string{"op"}),
			stakedTokens: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "raritystake_staked_tokens",
				Help: "Tokens currently in ledger custody, as observed since process start.",
			}),
			rewardsPaid: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "raritystake_rewards_paid",
				Help: "Reward and raffle payouts in whole tokens by symbol.",
			}, []string{"token"}),
			raffleRounds: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "raritystake_raffle_rounds_total",
				Help: "Number of completed raffle rounds.",
			}),
		}
		prometheus.MustRegister(
			stakingRegistry.operations,
			stakingRegistry.latency,
			stakingRegistry.stakedTokens,
			stakingRegistry.rewardsPaid,
			stakingRegistry.raffleRounds,
		)
	})
	return stakingRegistry
}

// ObserveOperation records the outcome and latency of a state transition.
func (m *StakingMetrics) ObserveOperation(op string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	m.operations.WithLabelValues(op, outcome(err)).Inc()
	m.latency.WithLabelValues(op).Observe(duration.Seconds())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "committed"
	case errors.Is(err, raritystaking.ErrNotContractOwner),
		errors.Is(err, raritystaking.ErrNotStakeOwner):
		return "unauthorized"
	case errors.Is(err, raritystaking.ErrInsufficientRewardPool),
		errors.Is(err, raritystaking.ErrInsufficientRafflePool):
		return "underfunded"
	default:
		return "rejected"
	}
}

func (m *StakingMetrics) addPayout(token string, amount *big.Int) {
	if m == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	whole, _ := new(big.Float).Quo(new(big.Float).SetInt(amount), big.NewFloat(1e18)).Float64()
	m.rewardsPaid.WithLabelValues(token).Add(whole)
}

// EventSink updates ledger metrics from committed events.
type EventSink struct {
	Metrics *StakingMetrics
}

// Emit implements events.Emitter.
func (s EventSink) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	observability.Ledger().Event(evt.EventType())
	m := s.Metrics
	if m == nil {
		return
	}
	switch e := evt.(type) {
	case events.TokensStaked:
		m.stakedTokens.Add(float64(len(e.TokenIDs)))
	case events.TokensUnstaked:
		m.stakedTokens.Sub(float64(len(e.TokenIDs)))
		m.addPayout(e.Token, e.Settled)
	case events.RewardsClaimed:
		m.addPayout(e.Token, e.Amount)
	case events.RaffleRolled:
		m.raffleRounds.Inc()
		for _, w := range e.Winners {
			m.addPayout(e.Token, w.Prize)
		}
	case events.TokenTransferred:
		observability.Ledger().Transfer(e.Symbol)
	case events.NFTTransferred:
		observability.Ledger().Transfer("NFT")
	}
}
