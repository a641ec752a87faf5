package client

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/agenthire/agenthire-go/pkg/errs"
	"github.com/agenthire/agenthire-go/pkg/gateway"
	"github.com/agenthire/agenthire-go/pkg/keys"
	"github.com/agenthire/agenthire-go/pkg/lifecycle"
	"github.com/agenthire/agenthire-go/pkg/marketplace"
	"github.com/agenthire/agenthire-go/pkg/provider"
	"github.com/agenthire/agenthire-go/pkg/utils"
)

// AgentHire is the top-level client wiring one chain gateway into the
// marketplace query, the consumer job lifecycle and (for providers) the
// provider loop. Components receive their gateway handles explicitly, so
// tests and multi-configuration processes build them against fakes.
type AgentHire struct {
	cfg *utils.Config
	gw  *gateway.ChainGateway

	Marketplace *marketplace.Query
	Jobs        *lifecycle.Client
}

// New builds a client from configuration. With no key configured the client
// is read-only: queries and waits work, every write fails fast with a
// configuration error.
func New(cfg *utils.Config) (*AgentHire, error) {
	if cfg.Contracts.Registry == "" || cfg.Contracts.Escrow == "" {
		return nil, errorsmod.Wrap(errs.ErrConfiguration,
			"registry and escrow contract addresses must be configured (run 'agenthire init' and edit the config)")
	}

	signerAddr := ""
	if cfg.Client.KeyName != "" {
		ring, err := keys.NewRing(cfg.Client.KeyringBackend, cfg.Client.KeyringDir)
		if err != nil {
			return nil, err
		}
		signerAddr, err = ring.Address(cfg.Client.KeyName)
		if err != nil {
			return nil, err
		}
	}

	gw, err := gateway.NewChainGateway(gateway.Config{
		Binary:          cfg.Chain.Binary,
		ChainID:         cfg.Chain.ID,
		RPCEndpoint:     cfg.Chain.RPCEndpoint,
		RegistryAddress: cfg.Contracts.Registry,
		EscrowAddress:   cfg.Contracts.Escrow,
		Denom:           cfg.Chain.Denom,
		Fees:            cfg.Chain.Fees,
		KeyName:         cfg.Client.KeyName,
		KeyringBackend:  cfg.Client.KeyringBackend,
		SignerAddress:   signerAddr,
	})
	if err != nil {
		return nil, err
	}

	var writer gateway.Writer
	if gw.CanSign() {
		writer = gw
	}

	ah := &AgentHire{
		cfg:         cfg,
		gw:          gw,
		Marketplace: marketplace.New(gw),
		Jobs: lifecycle.New(gw, writer, gw, lifecycle.Config{
			EscrowAddress: cfg.Contracts.Escrow,
			PollInterval:  cfg.Client.PollIntervalDuration(),
			ResultTimeout: cfg.Client.ResultTimeoutDuration(),
		}),
	}
	return ah, nil
}

// ReadOnly reports whether the client lacks a signing key.
func (a *AgentHire) ReadOnly() bool { return !a.gw.CanSign() }

// Address returns the signer address, empty in read-only mode.
func (a *AgentHire) Address() string { return a.gw.Address() }

// Gateway exposes the underlying chain gateway.
func (a *AgentHire) Gateway() *gateway.ChainGateway { return a.gw }

// ProviderNode builds the provider loop on top of this client's gateway.
func (a *AgentHire) ProviderNode() (*provider.Node, error) {
	var writer gateway.Writer
	if a.gw.CanSign() {
		writer = a.gw
	}
	return provider.New(a.gw, writer, a.gw, provider.Config{
		EscrowAddress: a.cfg.Contracts.Escrow,
	})
}

// Close releases the gateway's websocket connection, if any.
func (a *AgentHire) Close() error { return a.gw.Close() }
