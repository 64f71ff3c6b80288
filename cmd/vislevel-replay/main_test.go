package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vislevel/internal/config"
)

func TestMerge_OnlyExplicitFlags(t *testing.T) {
	base := config.Config{
		Debug:   true,
		Trace:   config.TraceConfig{Capacity: 8, OTLPEndpoint: "http://collector:4318"},
		Inspect: config.InspectConfig{Addr: "127.0.0.1:9876"},
	}
	opts := options{inspectAddr: "127.0.0.1:0", metrics: true}

	got := merge(base, opts, map[string]bool{"inspect-addr": true, "metrics": true})

	assert.True(t, got.Debug)
	assert.Equal(t, "http://collector:4318", got.Trace.OTLPEndpoint)
	assert.Equal(t, "127.0.0.1:0", got.Inspect.Addr)
	assert.True(t, got.Metrics.Enabled)

	got = merge(base, options{}, map[string]bool{"debug": true, "otlp-endpoint": true})
	assert.False(t, got.Debug)
	assert.Empty(t, got.Trace.OTLPEndpoint)
}
