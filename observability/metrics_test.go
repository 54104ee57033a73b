package observability

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRPCMetricsLabels(t *testing.T) {
	m := RPC()
	before := testutil.ToFloat64(m.calls.WithLabelValues("staking_stake", "401"))
	m.Observe("staking_stake", http.StatusUnauthorized, 5*time.Millisecond)
	require.Equal(t, before+1, testutil.ToFloat64(m.calls.WithLabelValues("staking_stake", "401")))

	before = testutil.ToFloat64(m.throttle.WithLabelValues("unspecified"))
	m.Throttled(" ")
	require.Equal(t, before+1, testutil.ToFloat64(m.throttle.WithLabelValues("unspecified")))

	before = testutil.ToFloat64(m.replays.WithLabelValues("token_transfer"))
	m.Replayed("token_transfer")
	require.Equal(t, before+1, testutil.ToFloat64(m.replays.WithLabelValues("token_transfer")))
}

func TestLedgerMetricsNormalizeAssets(t *testing.T) {
	m := Ledger()
	before := testutil.ToFloat64(m.transfers.WithLabelValues("RWD"))
	m.Transfer("rwd")
	m.Transfer(" RWD ")
	require.Equal(t, before+2, testutil.ToFloat64(m.transfers.WithLabelValues("RWD")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var rpc *RPCMetrics
	var ledger *LedgerMetrics
	require.NotPanics(t, func() {
		rpc.Observe("x", http.StatusOK, time.Second)
		rpc.Throttled("x")
		ledger.Event("x")
	})
}
