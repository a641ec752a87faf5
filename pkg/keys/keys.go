package keys

import (
	errorsmod "cosmossdk.io/errors"
	"github.com/cosmos/cosmos-sdk/codec"
	"github.com/cosmos/cosmos-sdk/codec/address"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	"github.com/cosmos/cosmos-sdk/std"

	"github.com/agenthire/agenthire-go/pkg/errs"
)

// Bech32Prefix is the account prefix of the AgentHire chain.
const Bech32Prefix = "agent"

const serviceName = "agenthire"

var bech32Codec = address.NewBech32Codec(Bech32Prefix)

// Ring wraps the cosmos keyring holding the client's signing keys. The
// chain daemon signs transactions from the same keyring; this package only
// resolves identities.
type Ring struct {
	kr keyring.Keyring
}

// Key is one named identity in the ring.
type Key struct {
	Name    string
	Address string
}

// NewRing opens (or creates) the keyring at dir with the given backend.
func NewRing(backend, dir string) (*Ring, error) {
	registry := codectypes.NewInterfaceRegistry()
	std.RegisterInterfaces(registry)
	cdc := codec.NewProtoCodec(registry)

	kr, err := keyring.New(serviceName, backend, dir, nil, cdc)
	if err != nil {
		return nil, errorsmod.Wrapf(errs.ErrConfiguration, "open keyring (backend %s): %v", backend, err)
	}
	return &Ring{kr: kr}, nil
}

// Address resolves a key name to its bech32 account address.
func (r *Ring) Address(name string) (string, error) {
	rec, err := r.kr.Key(name)
	if err != nil {
		return "", errorsmod.Wrapf(errs.ErrConfiguration, "key %q: %v", name, err)
	}
	addr, err := rec.GetAddress()
	if err != nil {
		return "", errorsmod.Wrapf(errs.ErrConfiguration, "key %q: %v", name, err)
	}
	return bech32Codec.BytesToString(addr)
}

// List enumerates all keys in the ring.
func (r *Ring) List() ([]Key, error) {
	records, err := r.kr.List()
	if err != nil {
		return nil, errorsmod.Wrapf(errs.ErrConfiguration, "list keys: %v", err)
	}
	out := make([]Key, 0, len(records))
	for _, rec := range records {
		addr, err := rec.GetAddress()
		if err != nil {
			continue
		}
		str, err := bech32Codec.BytesToString(addr)
		if err != nil {
			continue
		}
		out = append(out, Key{Name: rec.Name, Address: str})
	}
	return out, nil
}

// ValidateAddress checks that addr is a well-formed account address of the
// AgentHire chain.
func ValidateAddress(addr string) error {
	if _, err := bech32Codec.StringToBytes(addr); err != nil {
		return errorsmod.Wrapf(errs.ErrValidation, "invalid address %q: %v", addr, err)
	}
	return nil
}
