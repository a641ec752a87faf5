package keys

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthire/agenthire-go/pkg/errs"
)

func TestValidateAddress(t *testing.T) {
	raw := bytes.Repeat([]byte{0x42}, 20)
	addr, err := bech32Codec.BytesToString(raw)
	require.NoError(t, err)
	assert.True(t, len(addr) > len(Bech32Prefix))

	require.NoError(t, ValidateAddress(addr))
}

func TestValidateAddressRejectsForeignPrefix(t *testing.T) {
	err := ValidateAddress("cosmos1qypqxpq9qcrsszg2pvxq6rs0zqg3yyc5lzv7xu")
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestValidateAddressRejectsGarbage(t *testing.T) {
	for _, addr := range []string{"", "agent1", "not-bech32-at-all"} {
		err := ValidateAddress(addr)
		require.Error(t, err, "address %q", addr)
		assert.True(t, errs.IsValidation(err))
	}
}

func TestNewRingTestBackend(t *testing.T) {
	ring, err := NewRing("test", t.TempDir())
	require.NoError(t, err)

	keys, err := ring.List()
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, err = ring.Address("nobody")
	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))
}
