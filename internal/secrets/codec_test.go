package secrets

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/tether/internal/models"
)

func TestCodec_RoundTrip(t *testing.T) {
	codec, err := NewCodec("unit-test-passphrase")
	require.NoError(t, err)

	sealed, err := codec.Protect("sb-access-token-A1")
	require.NoError(t, err)
	assert.NotEqual(t, "sb-access-token-A1", sealed)

	plain, err := codec.Reveal(sealed)
	require.NoError(t, err)
	assert.Equal(t, "sb-access-token-A1", plain)
}

func TestCodec_FreshNoncePerCall(t *testing.T) {
	codec, err := NewCodec("unit-test-passphrase")
	require.NoError(t, err)

	first, err := codec.Protect("same-plaintext")
	require.NoError(t, err)
	second, err := codec.Protect("same-plaintext")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCodec_TamperedCiphertext(t *testing.T) {
	codec, err := NewCodec("unit-test-passphrase")
	require.NoError(t, err)

	sealed, err := codec.Protect("sb-refresh-token-R1")
	require.NoError(t, err)

	raw, err := hex.DecodeString(sealed)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01

	_, err = codec.Reveal(hex.EncodeToString(raw))
	assert.True(t, errors.Is(err, models.ErrIntegrity))
}

func TestCodec_WrongKey(t *testing.T) {
	sealer, err := NewCodec("passphrase-one")
	require.NoError(t, err)
	opener, err := NewCodec("passphrase-two")
	require.NoError(t, err)

	sealed, err := sealer.Protect("secret")
	require.NoError(t, err)

	_, err = opener.Reveal(sealed)
	assert.True(t, errors.Is(err, models.ErrIntegrity))
}

func TestCodec_MalformedInput(t *testing.T) {
	codec, err := NewCodec("unit-test-passphrase")
	require.NoError(t, err)

	for _, input := range []string{"", "zz-not-hex", "abcd"} {
		_, err := codec.Reveal(input)
		assert.True(t, errors.Is(err, models.ErrIntegrity), "input %q", input)
	}
}

func TestNewCodec_MissingKey(t *testing.T) {
	_, err := NewCodec("")
	assert.True(t, errors.Is(err, models.ErrMissingKey))
}
