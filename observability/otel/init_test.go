package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestParseHeaders(t *testing.T) {
	headers := ParseHeaders(" authorization = Bearer x ,broken, =skip,env=dev")
	require.Equal(t, map[string]string{
		"authorization": "Bearer x",
		"env":           "dev",
	}, headers)
}

func TestInitWithoutSignals(t *testing.T) {
	_, err := Init(context.Background(), Config{})
	require.Error(t, err)

	shutdown, err := Init(context.Background(), Config{ServiceName: "raritystakingd"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
	require.NotNil(t, Tracer())
}

func TestSamplerRatio(t *testing.T) {
	always := sdktrace.ParentBased(sdktrace.AlwaysSample()).Description()
	require.Equal(t, always, Config{}.sampler().Description())
	require.Equal(t, always, Config{SampleRatio: 2}.sampler().Description())
	require.Contains(t, Config{SampleRatio: 0.25}.sampler().Description(), "TraceIDRatioBased{0.25}")
}
