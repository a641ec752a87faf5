package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, ValidateConfig(cfg))
	assert.Equal(t, "agenthire-1", cfg.Chain.ID)
	assert.Equal(t, "agenthired", cfg.Chain.Binary)
	assert.Equal(t, 4*time.Second, cfg.Client.PollIntervalDuration())
	assert.Equal(t, 5*time.Minute, cfg.Client.ResultTimeoutDuration())
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"missing chain id", func(c *Config) { c.Chain.ID = "" }, "chain ID"},
		{"missing rpc", func(c *Config) { c.Chain.RPCEndpoint = "" }, "RPC endpoint"},
		{"bad registry address", func(c *Config) { c.Contracts.Registry = "cosmos1notagenthire" }, "registry address"},
		{"bad escrow address", func(c *Config) { c.Contracts.Escrow = "garbage" }, "escrow address"},
		{"bad poll interval", func(c *Config) { c.Client.PollInterval = "often" }, "poll_interval"},
		{"bad result timeout", func(c *Config) { c.Client.ResultTimeout = "eventually" }, "result_timeout"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := ValidateConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestValidateConfigEmptyContractsAllowed(t *testing.T) {
	// Fresh installs have no contract addresses yet; read paths fail later
	// with a clearer error.
	cfg := DefaultConfig()
	cfg.Contracts.Registry = ""
	cfg.Contracts.Escrow = ""
	assert.NoError(t, ValidateConfig(cfg))
}

func TestDurationAccessorsZeroOnUnset(t *testing.T) {
	var c ClientConfig
	assert.Zero(t, c.PollIntervalDuration())
	assert.Zero(t, c.ResultTimeoutDuration())
}
